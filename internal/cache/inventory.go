package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	GroupKeyPrefix = "group:%s"
	PageKeyPrefix  = "page:"
)

const (
	GroupTTL = 10 * time.Minute
)

// GroupKey caches a group looked up by slug. Groups never change after creation.
func GroupKey(slug string) string {
	return fmt.Sprintf(GroupKeyPrefix, slug)
}

// PageKey identifies one rendered page for one viewer (0 for anonymous).
func PageKey(page, url string, viewerID uint) string {
	return fmt.Sprintf("%s%s:%d:%s", PageKeyPrefix, page, viewerID, url)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateGroup(ctx context.Context, slug string) {
	Invalidate(ctx, GroupKey(slug))
}
