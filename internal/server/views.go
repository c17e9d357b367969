package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

const baseLayout = "layouts/base"

func newViewEngine(images *service.ImageService) (*html.Engine, error) {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("thumbnail", images.ThumbnailURL)
	engine.AddFunc("media", images.URL)
	engine.AddFunc("date", formatDate)
	engine.AddFunc("linebreaksbr", linebreaksbr)
	engine.AddFunc("card", func(post *models.Post, showGroup bool) postCard {
		return postCard{Post: post, ShowGroup: showGroup}
	})
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return engine, nil
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

// linebreaksbr escapes text and turns newlines into <br>.
func linebreaksbr(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// pageView carries what the layout needs on every page.
type pageView struct {
	Title     string
	AppName   string
	Path      string
	CSRFToken string
	Viewer    middleware.Identity
	Flags     map[string]bool
	Year      int
}

type postCard struct {
	Post      *models.Post
	ShowGroup bool
}

type feedView struct {
	pageView
	Feed      *service.FeedPage
	ShowGroup bool
}

type groupView struct {
	feedView
	Group *models.Group
}

type profileView struct {
	feedView
	Summary *service.AuthorSummary
}

type postDetailView struct {
	pageView
	Detail *service.PostDetail
}

type postFormValues struct {
	Text  string
	Group string
}

type postFormView struct {
	pageView
	IsEdit        bool
	PostID        uint
	Form          postFormValues
	Errors        map[string]string
	Groups        []models.Group
	ImagesEnabled bool
}

type authValues struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

type authFormView struct {
	pageView
	Values authValues
	Errors map[string]string
	Next   string
}

type errorView struct {
	pageView
	RequestPath string
}

func (s *Server) page(c *fiber.Ctx, title string) pageView {
	viewer := middleware.IdentityFrom(c)
	token, _ := c.Locals(csrfContextKey).(string)
	return pageView{
		Title:     title,
		AppName:   s.config.AppName,
		Path:      c.Path(),
		CSRFToken: token,
		Viewer:    viewer,
		Flags:     s.featureFlags.Snapshot(viewer.UserID),
		Year:      time.Now().Year(),
	}
}

func (s *Server) imagesEnabled(viewer middleware.Identity) bool {
	return s.featureFlags.Enabled(featureflags.PostImages, viewer.UserID)
}

// renderBytes executes a page template inside the base layout.
func (s *Server) renderBytes(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.engine.Render(&buf, name, data, baseLayout); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (s *Server) render(c *fiber.Ctx, status int, name string, data any) error {
	body, err := s.renderBytes(name, data)
	if err != nil {
		return err
	}
	return sendHTML(c, status, body)
}

func sendHTML(c *fiber.Ctx, status int, body []byte) error {
	c.Status(status)
	c.Type("html", "utf-8")
	return c.Send(body)
}

// formErrors flattens a validation error into per-field messages. Errors
// that are not tied to a field are stored under "__all__".
func formErrors(err error) (map[string]string, bool) {
	var appErr *models.AppError
	if !asAppError(err, &appErr) {
		return nil, false
	}
	if appErr.Code != models.CodeValidation {
		return nil, false
	}
	if len(appErr.Fields) > 0 {
		return appErr.Fields, true
	}
	return map[string]string{"__all__": appErr.Message}, true
}
