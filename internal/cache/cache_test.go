package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() { SetClient(nil) })
	return mr, rdb
}

type groupDTO struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func TestAside(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *groupDTO) func() error {
		return func() error {
			calls++
			*dest = groupDTO{Slug: "cats", Title: "Cats"}
			return nil
		}
	}

	var first groupDTO
	require.NoError(t, Aside(ctx, GroupKey("cats"), &first, time.Minute, fetch(&first)))
	var second groupDTO
	require.NoError(t, Aside(ctx, GroupKey("cats"), &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	InvalidateGroup(ctx, "cats")
	var third groupDTO
	require.NoError(t, Aside(ctx, GroupKey("cats"), &third, time.Minute, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr, _ := setupRedis(t)
	var dest groupDTO
	err := Aside(context.Background(), GroupKey("nope"), &dest, time.Minute, func() error {
		return errors.New("not found")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists(GroupKey("nope")))
}

func TestHelpers_WithoutClient(t *testing.T) {
	SetClient(nil)
	found, err := GetJSON(context.Background(), "k", &groupDTO{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetJSON(context.Background(), "k", groupDTO{}, time.Minute))
}

func TestPageCache(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()
	pages := NewPageCache(rdb, 20*time.Second)
	key := PageKey("index", "/?page=1", 0)

	_, ok, err := pages.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, pages.Set(ctx, key, []byte("<html>v1</html>")))
	body, ok, err := pages.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<html>v1</html>", string(body))

	mr.FastForward(21 * time.Second)
	_, ok, err = pages.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearPages_OnlyTouchesPages(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()
	pages := NewPageCache(rdb, time.Minute)

	require.NoError(t, pages.Set(ctx, PageKey("index", "/", 0), []byte("a")))
	require.NoError(t, pages.Set(ctx, PageKey("index", "/", 5), []byte("b")))
	require.NoError(t, mr.Set(GroupKey("cats"), "{}"))

	n, err := pages.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists(GroupKey("cats")))
}

func TestPageCache_Disabled(t *testing.T) {
	pages := NewPageCache(nil, time.Minute)
	assert.False(t, pages.Enabled())
	assert.NoError(t, pages.Set(context.Background(), "k", []byte("x")))
	_, ok, err := pages.Get(context.Background(), "k")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPageKey(t *testing.T) {
	assert.Equal(t, "page:index:0:/?page=2", PageKey("index", "/?page=2", 0))
	assert.NotEqual(t, PageKey("index", "/", 1), PageKey("index", "/", 2))
}
