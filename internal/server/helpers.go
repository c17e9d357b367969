package server

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

func asAppError(err error, target **models.AppError) bool {
	return errors.As(err, target)
}

// errorHandler turns handler errors into pages: missing objects get the
// custom 404, anonymous access the login redirect, everything else a 500.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeNotFound:
			return s.renderNotFound(c)
		case models.CodeUnauthorized:
			if !middleware.IdentityFrom(c).IsAuthenticated() {
				return c.Redirect(middleware.LoginURL(loginPath, c.OriginalURL()), fiber.StatusFound)
			}
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return s.renderNotFound(c)
		case fe.Code < fiber.StatusInternalServerError:
			return c.Status(fe.Code).SendString(fe.Message)
		}
	}

	middleware.Logger.ErrorContext(c.UserContext(), "request error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	body, rerr := s.renderBytes("core/500", s.page(c, "Server error"))
	if rerr != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	return sendHTML(c, fiber.StatusInternalServerError, body)
}

func (s *Server) renderNotFound(c *fiber.Ctx) error {
	view := errorView{pageView: s.page(c, "Page not found"), RequestPath: c.Path()}
	body, err := s.renderBytes("core/404", view)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Not Found")
	}
	return sendHTML(c, fiber.StatusNotFound, body)
}

// parseID reads a positive numeric route parameter. Anything else is a 404,
// the same as an id that does not exist.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}

// readUpload returns the uploaded image, or nil when the field was left empty.
// Files larger than limit are cut at limit+1 bytes so the size check still fails.
func readUpload(c *fiber.Ctx, field string, limit int64) (*service.ImageUpload, error) {
	// Missing field and non-multipart bodies both mean "no image".
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil //nolint:nilerr
	}
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil
	}
	return readFileHeader(fh, limit)
}

func readFileHeader(fh *multipart.FileHeader, limit int64) (*service.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if limit <= 0 {
		limit = service.DefaultMaxImageBytes
	}
	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	return &service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}
