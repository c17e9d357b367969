package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// PostsWritten counts post writes by action (create, edit).
	PostsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_posts_written_total",
		Help: "Total number of posts created or edited",
	}, []string{"action"})

	// FollowEvents counts follow and unfollow actions that changed state.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follow_events_total",
		Help: "Total number of follow relation changes by action",
	}, []string{"action"})

	// PageCacheRequests counts rendered-page cache lookups by result (hit, miss, error).
	PageCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_requests_total",
		Help: "Rendered page cache lookups by result",
	}, []string{"page", "result"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ImageUploads counts processed image uploads by outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_image_uploads_total",
		Help: "Image uploads by outcome",
	}, []string{"outcome"})
)

const queryStartKey = "observability:query_start"

// RegisterDatabaseMetrics installs GORM callbacks that feed DatabaseQueryLatency.
func RegisterDatabaseMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := "unknown"
			if tx.Statement != nil && tx.Statement.Table != "" {
				table = tx.Statement.Table
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}{
		{"create", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(name+":after", a)
		}},
		{"query", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(name+":after", a)
		}},
		{"update", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(name+":after", a)
		}},
		{"delete", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(name+":after", a)
		}},
		{"row", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Row().Before("gorm:row").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register(name+":after", a)
		}},
	}
	for _, s := range steps {
		if err := s.register("metrics:"+s.op, before, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
