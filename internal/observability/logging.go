// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var baseLogger atomic.Pointer[slog.Logger]

// SetLogger routes observability logging through l (normally middleware.Logger).
func SetLogger(l *slog.Logger) {
	if l != nil {
		baseLogger.Store(l)
	}
}

func logger() *slog.Logger {
	if l := baseLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{tableName: tableName}
}

// LogWrite records a successful mutation at debug level.
func (l *RepoLogger) LogWrite(ctx context.Context, operation string, attrs ...any) {
	base := []any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
	}
	logger().DebugContext(ctx, "repository write", append(base, attrs...)...)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	logger().ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
