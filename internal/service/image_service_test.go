package service

import (
	"bytes"
	"context"
	"image"
	"testing"

	"yatube/internal/models"
	"yatube/internal/storage"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageService(t *testing.T) (*ImageService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	return NewImageService(store, 1<<20), store
}

func TestImageService_SaveGIF(t *testing.T) {
	svc, store := newImageService(t)
	ctx := context.Background()

	key, err := svc.Save(ctx, ImageUpload{Filename: "small.gif", ContentType: "image/gif", Content: testutil.SmallGIF})
	require.NoError(t, err)
	assert.Regexp(t, `^posts/[0-9a-f-]{36}\.gif$`, key)

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	obj, err := store.Read(ctx, ThumbnailKey(key))
	require.NoError(t, err)
	defer obj.Body.Close()
	thumb, format, err := image.Decode(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, ThumbnailWidth, thumb.Bounds().Dx())
	assert.Equal(t, ThumbnailHeight, thumb.Bounds().Dy())

	again, err := svc.Save(ctx, ImageUpload{Filename: "copy.gif", Content: testutil.SmallGIF})
	require.NoError(t, err)
	assert.NotEqual(t, key, again)

	assert.Equal(t, "/media/"+key, svc.URL(key))
	assert.Equal(t, "/media/"+ThumbnailKey(key), svc.ThumbnailURL(key))
	assert.Empty(t, svc.URL(""))

	svc.Delete(ctx, key)
	ok, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.Exists(ctx, ThumbnailKey(key))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImageService_Rejects(t *testing.T) {
	svc, _ := newImageService(t)

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image")},
		{"truncated gif", testutil.SmallGIF[:10]},
		{"too large", append(append([]byte{}, testutil.SmallGIF...), bytes.Repeat([]byte{0}, 1<<20)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Save(context.Background(), ImageUpload{Filename: "x.gif", Content: tt.content})
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Fields, "image")
		})
	}
}

func TestImageService_SavePNGKeepsFormat(t *testing.T) {
	svc, _ := newImageService(t)
	key, err := svc.Save(context.Background(), ImageUpload{Content: testutil.TinyPNG(t, 1200, 300)})
	require.NoError(t, err)
	assert.Regexp(t, `\.png$`, key)
}

func TestThumbnailKey(t *testing.T) {
	assert.Equal(t, "posts/thumbs/abc.webp", ThumbnailKey("posts/abc.jpg"))
	assert.Equal(t, "posts/thumbs/abc.webp", ThumbnailKey("posts/abc.webp"))
}

func TestCropFill(t *testing.T) {
	wide := image.NewRGBA(image.Rect(0, 0, 4000, 500))
	out := cropFill(wide, ThumbnailWidth, ThumbnailHeight)
	assert.Equal(t, image.Rect(0, 0, ThumbnailWidth, ThumbnailHeight), out.Bounds())

	tall := image.NewRGBA(image.Rect(10, 10, 60, 500))
	out = cropFill(tall, ThumbnailWidth, ThumbnailHeight)
	assert.Equal(t, image.Rect(0, 0, ThumbnailWidth, ThumbnailHeight), out.Bounds())
}
