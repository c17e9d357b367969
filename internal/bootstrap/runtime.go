// Package bootstrap wires the process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/observability"
	"yatube/internal/seed"
	"yatube/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedBuiltIns creates the default groups when they are missing.
	SeedBuiltIns bool
}

// Runtime is everything a command needs after startup.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Store storage.Storage

	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, then connects the database,
// Redis and the media store. A missing Redis is not an error.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.ConfigureLogger(cfg.Env, os.Stdout)
	observability.SetLogger(middleware.Logger)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    cfg.AppName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1,
	})
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media storage: %w", err)
	}

	if opts.SeedBuiltIns {
		groups, err := seed.Groups(db)
		if err != nil {
			return nil, fmt.Errorf("failed to seed built-in groups: %w", err)
		}
		middleware.Logger.Info("built-in groups ensured", slog.Int("count", len(groups)))
	}

	return &Runtime{DB: db, Redis: rdb, Store: store, shutdownTracing: shutdownTracing}, nil
}

// Close flushes traces. The server owns the DB and Redis connections.
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil || r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}
