package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxImageBytes = 5 << 20
	ThumbnailWidth       = 960
	ThumbnailHeight      = 339
	WebPQuality          = 80

	postImageDir = "posts"
	thumbDir     = "posts/thumbs"
)

var errInvalidImage = errors.New("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")

// ImageUpload is a file received from the post form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService validates post images, stores them and renders feed thumbnails.
type ImageService struct {
	store    storage.Storage
	maxBytes int64
}

func NewImageService(store storage.Storage, maxBytes int64) *ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageService{store: store, maxBytes: maxBytes}
}

// Validate decodes the upload and returns a user-facing error for anything
// that is not a GIF, PNG, JPEG or WebP image within the size limit.
func (s *ImageService) Validate(in ImageUpload) (image.Image, string, error) {
	if len(in.Content) == 0 {
		return nil, "", errors.New("The submitted file is empty.")
	}
	if int64(len(in.Content)) > s.maxBytes {
		return nil, "", fmt.Errorf("File too large (max %dMB).", s.maxBytes/(1024*1024))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return nil, "", errInvalidImage
	}
	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil || !isSupportedDecodedFormat(format) {
		return nil, "", errInvalidImage
	}
	return decoded, format, nil
}

// Save stores the original and its thumbnail and returns the storage key of the original.
// Every upload gets its own key, so deleting one post's image never touches another's.
func (s *ImageService) Save(ctx context.Context, in ImageUpload) (string, error) {
	ctx, span := observability.StartSpan(ctx, "image", "save")
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()

	decoded, format, err := s.Validate(in)
	if err != nil {
		observability.ImageUploads.WithLabelValues("rejected").Inc()
		spanErr = err
		return "", models.NewFieldValidationError(map[string]string{"image": err.Error()})
	}

	key := path.Join(postImageDir, uuid.NewString()+"."+extensionFor(format))

	if err := s.store.Write(ctx, key, bytes.NewReader(in.Content), int64(len(in.Content)), decodedFormatToMime(format)); err != nil {
		observability.ImageUploads.WithLabelValues("error").Inc()
		spanErr = err
		return "", models.NewInternalError(err)
	}

	thumb, err := encodeWebP(cropFill(decoded, ThumbnailWidth, ThumbnailHeight), WebPQuality)
	if err == nil {
		err = s.store.Write(ctx, ThumbnailKey(key), bytes.NewReader(thumb), int64(len(thumb)), "image/webp")
	}
	if err != nil {
		_ = s.store.Delete(ctx, key)
		observability.ImageUploads.WithLabelValues("error").Inc()
		spanErr = err
		return "", models.NewInternalError(err)
	}

	observability.ImageUploads.WithLabelValues("stored").Inc()
	return key, nil
}

// Delete removes an image and its thumbnail. Failures are logged, not returned.
func (s *ImageService) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	for _, k := range []string{key, ThumbnailKey(key)} {
		if err := s.store.Delete(ctx, k); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to delete image",
				slog.String("key", k),
				slog.String("error", err.Error()),
			)
		}
	}
}

// URL is the public address of the original image.
func (s *ImageService) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.GetURL(key)
}

// ThumbnailURL is the public address of the 960x339 feed thumbnail.
func (s *ImageService) ThumbnailURL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.GetURL(ThumbnailKey(key))
}

// ThumbnailKey maps an original image key to its thumbnail key.
func ThumbnailKey(key string) string {
	base := path.Base(key)
	return path.Join(thumbDir, strings.TrimSuffix(base, path.Ext(base))+".webp")
}

// cropFill scales src to cover w x h and crops the centre, upscaling small images.
func cropFill(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if sw <= 0 || sh <= 0 {
		return dst
	}

	crop := b
	target := float64(w) / float64(h)
	if float64(sw)/float64(sh) > target {
		cw := int(float64(sh) * target)
		if cw < 1 {
			cw = 1
		}
		x0 := b.Min.X + (sw-cw)/2
		crop = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else {
		ch := int(float64(sw) / target)
		if ch < 1 {
			ch = 1
		}
		y0 := b.Min.Y + (sh-ch)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}

	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func extensionFor(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}
