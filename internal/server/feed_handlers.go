package server

import (
	"log/slog"
	"strconv"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Index renders the site-wide feed. The rendered page is cached per page number
// and viewer, so new posts show up only after the cache window passes.
func (s *Server) Index(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewer := middleware.IdentityFrom(c)
	key := indexPageKey(requestedPage(c.Query("page")), viewer.UserID)

	if s.pageCache.Enabled() {
		body, ok, err := s.pageCache.Get(ctx, key)
		switch {
		case err != nil:
			observability.PageCacheRequests.WithLabelValues("index", "error").Inc()
			middleware.Logger.WarnContext(ctx, "page cache read failed", slog.String("error", err.Error()))
		case ok:
			observability.PageCacheRequests.WithLabelValues("index", "hit").Inc()
			return sendHTML(c, fiber.StatusOK, body)
		default:
			observability.PageCacheRequests.WithLabelValues("index", "miss").Inc()
		}
	}

	feed, err := s.feedService.Index(ctx, c.Query("page"))
	if err != nil {
		return err
	}
	body, err := s.renderBytes("posts/index", feedView{
		pageView:  s.page(c, "Latest updates on the site"),
		Feed:      feed,
		ShowGroup: true,
	})
	if err != nil {
		return err
	}

	// Out-of-range requests are stored under the page they resolved to.
	key = indexPageKey(feed.Page.Number, viewer.UserID)
	if err := s.pageCache.Set(ctx, key, body); err != nil {
		middleware.Logger.WarnContext(ctx, "page cache write failed", slog.String("error", err.Error()))
	}
	return sendHTML(c, fiber.StatusOK, body)
}

// requestedPage parses ?page= the way the paginator does: anything that is not
// an integer means page 1.
func requestedPage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

func indexPageKey(page int, viewerID uint) string {
	return cache.PageKey("index", "page="+strconv.Itoa(page), viewerID)
}

// GroupPosts lists the posts filed under one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, feed, err := s.feedService.Group(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/group_list", groupView{
		feedView: feedView{
			pageView: s.page(c, "Posts of group "+group.Title),
			Feed:     feed,
		},
		Group: group,
	})
}

// Profile lists one author's posts with their post count and follow state.
func (s *Server) Profile(c *fiber.Ctx) error {
	viewer := middleware.IdentityFrom(c)
	summary, feed, err := s.feedService.Profile(c.UserContext(), viewer, c.Params("username"), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/profile", profileView{
		feedView: feedView{
			pageView:  s.page(c, "Profile of user "+summary.Author.DisplayName()),
			Feed:      feed,
			ShowGroup: true,
		},
		Summary: summary,
	})
}

// PostDetail shows a single post.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	detail, err := s.feedService.Detail(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/post_detail", postDetailView{
		pageView: s.page(c, "Post "+detail.Post.Excerpt(30)),
		Detail:   detail,
	})
}

// FollowIndex lists posts by the authors the viewer follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	viewer := middleware.IdentityFrom(c)
	if !s.featureFlags.Enabled(featureflags.FollowFeed, viewer.UserID) {
		return fiber.ErrNotFound
	}
	feed, err := s.feedService.Follow(c.UserContext(), viewer, c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/follow", feedView{
		pageView:  s.page(c, "Subscriptions"),
		Feed:      feed,
		ShowGroup: true,
	})
}

func (s *Server) AboutAuthor(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "about/author", s.page(c, "About the author"))
}

func (s *Server) AboutTech(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "about/tech", s.page(c, "Technologies"))
}
