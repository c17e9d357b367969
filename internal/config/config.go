// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Edit author policies.
const (
	AuthorPolicyPreserve = "preserve"
	AuthorPolicyReassign = "reassign"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env         string `mapstructure:"APP_ENV"`
	AppName     string `mapstructure:"APP_NAME"`
	Port        string `mapstructure:"PORT"`
	BodyLimitMB int    `mapstructure:"BODY_LIMIT_MB"`

	DBDriver       string `mapstructure:"DB_DRIVER"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBPath         string `mapstructure:"DB_PATH"`
	DBSchemaMode   string `mapstructure:"DB_SCHEMA_MODE"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS"`

	RedisURL      string        `mapstructure:"REDIS_URL"`
	IndexCacheTTL time.Duration `mapstructure:"INDEX_CACHE_TTL"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	SessionTTL   time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure bool          `mapstructure:"COOKIE_SECURE"`
	CSRFEnabled  bool          `mapstructure:"CSRF_ENABLED"`

	PostEditAuthorPolicy string `mapstructure:"POST_EDIT_AUTHOR_POLICY"`

	MediaBackend      string `mapstructure:"MEDIA_BACKEND"`
	MediaRoot         string `mapstructure:"MEDIA_ROOT"`
	MaxImageBytes     int64  `mapstructure:"MAX_IMAGE_BYTES"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle    bool   `mapstructure:"S3_USE_PATH_STYLE"`
	S3PublicURL       string `mapstructure:"S3_PUBLIC_URL"`

	TracingEnabled bool   `mapstructure:"TRACING_ENABLED"`
	OTLPEndpoint   string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	FeatureFlags string `mapstructure:"FEATURE_FLAGS"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; environment variables are enough to boot.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	bindDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func bindDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_NAME", "Yatube")
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("BODY_LIMIT_MB", 10)
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "yatube")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_PATH", "yatube.sqlite3")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("INDEX_CACHE_TTL", "20s")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("SESSION_TTL", "336h")
	viper.SetDefault("CSRF_ENABLED", true)
	viper.SetDefault("POST_EDIT_AUTHOR_POLICY", AuthorPolicyPreserve)
	viper.SetDefault("MEDIA_BACKEND", "local")
	viper.SetDefault("MEDIA_ROOT", "media")
	viper.SetDefault("MAX_IMAGE_BYTES", 5<<20)
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_ACCESS_KEY_ID", "")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_USE_PATH_STYLE", false)
	viper.SetDefault("S3_PUBLIC_URL", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	viper.SetDefault("FEATURE_FLAGS", "")
}

// SetDefaults fills zero values. Used for configs built in code (tests, tools)
// that never went through viper.
func (c *Config) SetDefaults() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = "development"
	}
	if c.AppName == "" {
		c.AppName = "Yatube"
	}
	if c.Port == "" {
		c.Port = "8000"
	}
	if c.BodyLimitMB <= 0 {
		c.BodyLimitMB = 10
	}
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	if c.DBDriver == "" {
		c.DBDriver = "postgres"
	}
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	if c.DBSchemaMode == "" {
		c.DBSchemaMode = "hybrid"
	}
	if c.DBMaxOpenConns <= 0 {
		c.DBMaxOpenConns = 25
	}
	if c.DBMaxIdleConns <= 0 {
		c.DBMaxIdleConns = 5
	}
	if c.IndexCacheTTL <= 0 {
		c.IndexCacheTTL = 20 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 14 * 24 * time.Hour
	}
	c.PostEditAuthorPolicy = strings.ToLower(strings.TrimSpace(c.PostEditAuthorPolicy))
	if c.PostEditAuthorPolicy == "" {
		c.PostEditAuthorPolicy = AuthorPolicyPreserve
	}
	c.MediaBackend = strings.ToLower(strings.TrimSpace(c.MediaBackend))
	if c.MediaBackend == "" {
		c.MediaBackend = "local"
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "media"
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = 5 << 20
	}
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// ReassignAuthorOnEdit reports whether an edit hands the post to the editing user.
func (c *Config) ReassignAuthorOnEdit() bool {
	return c.PostEditAuthorPolicy == AuthorPolicyReassign
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.DBDriver {
	case "postgres", "sqlite", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported (postgres, sqlite, mysql)", c.DBDriver)
	}

	switch c.DBSchemaMode {
	case "hybrid", "sql", "auto":
	default:
		return fmt.Errorf("DB_SCHEMA_MODE %q is not supported (hybrid, sql, auto)", c.DBSchemaMode)
	}

	switch c.PostEditAuthorPolicy {
	case AuthorPolicyPreserve, AuthorPolicyReassign:
	default:
		return fmt.Errorf("POST_EDIT_AUTHOR_POLICY %q is not supported (preserve, reassign)", c.PostEditAuthorPolicy)
	}

	switch c.MediaBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when MEDIA_BACKEND=s3")
		}
	default:
		return fmt.Errorf("MEDIA_BACKEND %q is not supported (local, s3)", c.MediaBackend)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if !c.CookieSecure {
			return errors.New("COOKIE_SECURE must be enabled in production")
		}
		if c.DBDriver != "sqlite" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
