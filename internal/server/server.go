// Package server contains the HTTP handlers and page rendering for the blog.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const loginPath = "/auth/login/"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	engine         *html.Engine
	promMiddleware *fiberprometheus.FiberPrometheus
	store          storage.Storage
	featureFlags   *featureflags.Manager
	sessions       *middleware.Sessions
	pageCache      *cache.PageCache

	userRepo   repository.UserRepository
	groupRepo  repository.GroupRepository
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository

	images        *service.ImageService
	feedService   *service.FeedService
	postService   *service.PostService
	followService *service.FollowService
	authService   *service.AuthService
	groupService  *service.GroupService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client disables the page cache, revocation list and rate limits.
	redisClient := cache.InitRedis(cfg.RedisURL)

	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("media storage: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Storage) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics(cfg.AppName),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		sessions:       middleware.NewSessions(cfg.JWTSecret, cfg.SessionTTL, redisClient),
		pageCache:      cache.NewPageCache(redisClient, cfg.IndexCacheTTL),
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		postRepo:       repository.NewPostRepository(db),
		followRepo:     repository.NewFollowRepository(db),
	}

	s.images = service.NewImageService(store, cfg.MaxImageBytes)
	s.feedService = service.NewFeedService(s.postRepo, s.groupRepo, s.userRepo, s.followRepo)
	s.postService = service.NewPostService(s.postRepo, s.groupRepo, s.images, cfg.ReassignAuthorOnEdit())
	s.followService = service.NewFollowService(s.followRepo, s.userRepo)
	s.authService = service.NewAuthService(s.userRepo, s.sessions)
	s.groupService = service.NewGroupService(s.groupRepo)

	engine, err := newViewEngine(s.images)
	if err != nil {
		return nil, err
	}
	s.engine = engine

	return s, nil
}

// App builds the Fiber application with middleware and routes. It is built
// once; later calls return the same app.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	bodyLimit := s.config.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 10
	}
	app := fiber.New(fiber.Config{
		AppName:      s.config.AppName,
		ErrorHandler: s.errorHandler,
		BodyLimit:    bodyLimit * 1024 * 1024,
		UnescapePath: true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Identity must be resolved before ContextMiddleware copies it into the log context.
	app.Use(s.sessions.Authenticate())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Post images and the stylesheet are served from other origins.
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(middleware.StructuredLogger())

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return isInfraPath(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}))

	if s.config.CSRFEnabled {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:csrfmiddlewaretoken",
			CookieName:     "csrftoken",
			CookieSameSite: "Lax",
			CookieSecure:   s.config.CookieSecure,
			CookieHTTPOnly: true,
			Expiration:     2 * time.Hour,
			ContextKey:     csrfContextKey,
			Next: func(c *fiber.Ctx) bool {
				return isInfraPath(c.Path())
			},
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				middleware.Logger.Warn("csrf check failed",
					slog.String("path", c.Path()),
					slog.String("error", err.Error()),
				)
				return s.render(c, fiber.StatusForbidden, "core/403csrf", s.page(c, "Forbidden"))
			},
		}))
	}
}

const csrfContextKey = "csrf"

func isInfraPath(path string) bool {
	return strings.HasPrefix(path, "/health") ||
		strings.HasPrefix(path, "/metrics") ||
		strings.HasPrefix(path, "/media/")
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/media/*", s.ServeMedia)

	login := middleware.LoginRequired(loginPath)

	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/profile/:username/", s.Profile)
	app.Get("/profile/:username/follow/", login, s.ProfileFollow)
	app.Get("/profile/:username/unfollow/", login, s.ProfileUnfollow)
	app.Get("/posts/:id/", s.PostDetail)
	app.Get("/posts/:id/edit/", login, s.EditPostForm)
	app.Post("/posts/:id/edit/", login, s.EditPost)
	app.Get("/create/", login, s.CreatePostForm)
	app.Post("/create/", login, s.CreatePost)
	app.Get("/follow/", login, s.FollowIndex)

	about := app.Group("/about")
	about.Get("/author/", s.AboutAuthor)
	about.Get("/tech/", s.AboutTech)

	limitsOn := s.rateLimitsEnabled()
	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupForm)
	auth.Post("/signup/", middleware.RateLimit(s.redis, middleware.RateLimitRule{
		Name: "signup", Limit: 5, Window: 10 * time.Minute, Policy: middleware.FailOpen,
	}, limitsOn), s.Signup)
	auth.Get("/login/", s.LoginForm)
	auth.Post("/login/", middleware.RateLimit(s.redis, middleware.RateLimitRule{
		Name: "login", Limit: 10, Window: 5 * time.Minute, Policy: middleware.FailOpen,
	}, limitsOn), s.Login)
	auth.Get("/logout/", s.Logout)
}

func (s *Server) rateLimitsEnabled() bool {
	return s.redis != nil && !strings.EqualFold(s.config.Env, "test")
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without
// it pages are simply not cached, so only the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	app := s.App()

	if err := observability.RegisterDatabaseMetrics(s.db); err != nil {
		middleware.Logger.Warn("database metrics disabled", slog.String("error", err.Error()))
	}

	port := s.config.Port
	if port == "" {
		port = "8000"
	}
	middleware.Logger.Info("server starting",
		slog.String("port", port),
		slog.String("env", s.config.Env),
		slog.String("media_backend", s.config.MediaBackend),
	)
	return app.Listen(":" + port)
}

// Shutdown drains the HTTP server and closes the DB and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("fiber shutdown error", slog.String("error", err.Error()))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				middleware.Logger.Error("database close error", slog.String("error", err.Error()))
			}
		}
	}
	return nil
}
