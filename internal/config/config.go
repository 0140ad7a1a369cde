package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Generation GenerationConfig `yaml:"generation"`
	Review     ReviewConfig     `yaml:"review"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	CORS       CORSConfig       `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// GenerateRateLimit caps generation requests per minute per client IP.
	// Zero disables the limiter.
	GenerateRateLimit int `yaml:"generate_rate_limit" env:"SERVER_GENERATE_RATE_LIMIT" env-default:"30"`
}

// GenerationConfig holds settings for the external generation service.
// Generation endpoints run slow AI jobs, so their timeout is far longer
// than the one used for plain reads.
type GenerationConfig struct {
	BaseURL         string        `yaml:"base_url"         env:"GENERATION_BASE_URL"         env-required:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"GENERATION_READ_TIMEOUT"     env-default:"30s"`
	GenerateTimeout time.Duration `yaml:"generate_timeout" env:"GENERATION_GENERATE_TIMEOUT" env-default:"10m"`
	// StorageHostPattern is the known hostname fragment of the media storage
	// backend, used as the last-resort match when resolving upload URLs.
	StorageHostPattern string `yaml:"storage_host_pattern" env:"GENERATION_STORAGE_HOST_PATTERN" env-default:""`
	// LegacyURLScan keeps the deep response-tree scan for upload URLs.
	// Older service deployments returned the URL under arbitrary keys; once
	// every deployment reports a direct field this can be switched off.
	LegacyURLScan bool `yaml:"legacy_url_scan" env:"GENERATION_LEGACY_URL_SCAN" env-default:"true"`
}

// ReviewConfig holds review-workflow settings.
type ReviewConfig struct {
	// PageIncrement is how many flashcards each "load more" reveals.
	PageIncrement int `yaml:"page_increment" env:"REVIEW_PAGE_INCREMENT" env-default:"20"`
	// DefaultBatchSize is the flashcard count requested per preview batch.
	DefaultBatchSize int `yaml:"default_batch_size" env:"REVIEW_DEFAULT_BATCH_SIZE" env-default:"20"`
}

// DatabaseConfig holds PostgreSQL connection settings for the review audit
// trail. An empty DSN disables auditing entirely.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// AuditRetentionDays is how long review decision records are kept before
	// the audit-prune job removes them.
	AuditRetentionDays int `yaml:"audit_retention_days" env:"DATABASE_AUDIT_RETENTION_DAYS" env-default:"90"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// CORSConfig holds CORS settings for the dashboard frontend.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// AuditEnabled reports whether the review audit trail is configured.
func (c *Config) AuditEnabled() bool {
	return c.Database.DSN != ""
}
