// Package storage keeps uploaded media on the local filesystem or in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"yatube/internal/config"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// Object is an open stored file.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Storage defines the file operations the media pipeline needs.
type Storage interface {
	// Write stores r under key. size may be -1 when unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Read opens key. The caller closes Object.Body.
	Read(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// GetURL returns the public URL templates link to.
	GetURL(key string) string
}

// MediaPrefix is the route uploaded files are served from when the backend has no public URL.
const MediaPrefix = "/media/"

// New builds the backend selected by MEDIA_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.MediaBackend {
	case "", "local":
		return NewLocalStorage(LocalConfig{BasePath: cfg.MediaRoot})
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicURL:       cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.MediaBackend)
	}
}
