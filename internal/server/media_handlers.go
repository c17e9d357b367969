package server

import (
	"errors"

	"yatube/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// ServeMedia streams an uploaded image or thumbnail from the media store.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return fiber.ErrNotFound
	}
	obj, err := s.store.Read(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fiber.ErrNotFound
		}
		return err
	}

	if obj.ContentType != "" {
		c.Set(fiber.HeaderContentType, obj.ContentType)
	}
	// Keys are content hashes, so a stored object never changes.
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendStream(obj.Body, int(obj.Size))
}
