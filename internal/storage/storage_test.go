package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"yatube/internal/config"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	store, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "posts/a.gif", bytes.NewReader([]byte("GIF89a")), 6, "image/gif"))

	ok, err := store.Exists(ctx, "posts/a.gif")
	require.NoError(t, err)
	assert.True(t, ok)

	obj, err := store.Read(ctx, "posts/a.gif")
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(data))
	assert.Equal(t, int64(6), obj.Size)
	assert.Equal(t, "image/gif", obj.ContentType)

	assert.Equal(t, "/media/posts/a.gif", store.GetURL("posts/a.gif"))

	require.NoError(t, store.Delete(ctx, "posts/a.gif"))
	require.NoError(t, store.Delete(ctx, "posts/a.gif"))
	_, err = store.Read(ctx, "posts/a.gif")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_KeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(LocalConfig{BasePath: filepath.Join(root, "media")})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "../../escape.txt", bytes.NewReader([]byte("x")), 1, ""))

	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	ok, err := store.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = store.Read(ctx, "")
	assert.Error(t, err)
}

func TestLocalStorage_DirectoryIsNotAnObject(t *testing.T) {
	store, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "posts/a.png", bytes.NewReader([]byte("x")), 1, ""))

	_, err = store.Read(ctx, "posts")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_SelectsBackend(t *testing.T) {
	store, err := New(context.Background(), &config.Config{MediaBackend: "local", MediaRoot: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)

	_, err = New(context.Background(), &config.Config{MediaBackend: "ftp"})
	assert.Error(t, err)

	_, err = NewS3Storage(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestS3Storage_GetURL(t *testing.T) {
	s3store := &S3Storage{bucket: "media", publicURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/posts/a.webp", s3store.GetURL("/posts/a.webp"))

	s3store.publicURL = ""
	assert.Equal(t, "/media/posts/a.webp", s3store.GetURL("posts/a.webp"))
}

func TestIsS3NotFound(t *testing.T) {
	assert.True(t, isS3NotFound(&types.NoSuchKey{}))
	assert.True(t, isS3NotFound(&types.NotFound{}))
	assert.True(t, isS3NotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(t, isS3NotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isS3NotFound(errors.New("timeout")))
}
