// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBodySizeLimit is the default maximum request body size accepted by the server.
const DefaultBodySizeLimit = "1M"

// MaxHistoryRetentionDays bounds HISTORY_RETENTION_DAYS (about a century).
const MaxHistoryRetentionDays = 36500

// DefaultConfigPaths lists where Load looks for a YAML configuration file, in order.
var DefaultConfigPaths = []string{"config/config.yaml", "config.yaml"}

// Config holds the application configuration
type Config struct {
	// Testing mirrors the framework TESTING flag reported by the /test endpoint.
	Testing bool `yaml:"testing"`

	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
	History   HistoryConfig   `yaml:"history"`
	Recommend RecommendConfig `yaml:"recommend"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	// BodySizeLimit uses Echo's size notation (e.g. "1M", "512K")
	BodySizeLimit string `yaml:"body_size_limit"`
	// CompressionEnabled turns on brotli/gzip response compression
	CompressionEnabled bool `yaml:"compression_enabled"`
}

// SessionConfig controls the signed session cookie
type SessionConfig struct {
	// Secret signs session tokens. A random secret is generated when empty,
	// which invalidates sessions on every restart.
	Secret string `yaml:"secret"`
	// TTL is the session lifetime in seconds
	TTL int `yaml:"ttl"`
	// Secure marks the cookie HTTPS-only. Enable it when TLS terminates in
	// front of the server; browsers drop Secure cookies over plain HTTP.
	Secure bool `yaml:"secure"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	// Type is one of "sqlite", "postgresql", "mongodb" or "memory"
	Type       string           `yaml:"type"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// CacheConfig configures the recommendation cache
type CacheConfig struct {
	// Type is "local" or "redis"
	Type string `yaml:"type"`
	// TTL is the entry lifetime in seconds
	TTL   int         `yaml:"ttl"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// LogConfig holds application log output configuration
type LogConfig struct {
	// Format is "auto", "text" or "json"
	Format string `yaml:"format"`
	// Level is "debug", "info", "warn" or "error"
	Level string `yaml:"level"`
}

// HistoryConfig controls recommendation history retention
type HistoryConfig struct {
	// RetentionDays deletes entries older than this many days; 0 keeps everything
	RetentionDays int `yaml:"retention_days"`
}

// RecommendConfig tunes the recommender
type RecommendConfig struct {
	// Limit is the number of songs returned per recommendation
	Limit int `yaml:"limit"`
}

// SessionTTL returns the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTL) * time.Second
}

// CacheTTL returns the cache entry lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			BodySizeLimit: DefaultBodySizeLimit,
		},
		Session: SessionConfig{
			TTL: 7 * 24 * 60 * 60,
		},
		Storage: StorageConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: "data/moodtunes.db",
			},
			PostgreSQL: PostgreSQLConfig{
				MaxConns: 10,
			},
			MongoDB: MongoDBConfig{
				Database: "moodtunes",
			},
		},
		Cache: CacheConfig{
			Type: "local",
			TTL:  600,
			Redis: RedisConfig{
				KeyPrefix: "moodtunes:",
			},
		},
		Metrics: MetricsConfig{
			Endpoint: "/metrics",
		},
		Log: LogConfig{
			Format: "auto",
			Level:  "info",
		},
		Recommend: RecommendConfig{
			Limit: 5,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is loaded into the environment first; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := buildDefaultConfig()

	for _, path := range DefaultConfigPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		break
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "sqlite", "memory":
	case "postgresql":
		if c.Storage.PostgreSQL.URL == "" {
			return fmt.Errorf("POSTGRES_URL is required when storage type is postgresql")
		}
	case "mongodb":
		if c.Storage.MongoDB.URL == "" {
			return fmt.Errorf("MONGODB_URL is required when storage type is mongodb")
		}
	default:
		return fmt.Errorf("unknown storage type: %s (valid: sqlite, postgresql, mongodb, memory)", c.Storage.Type)
	}

	switch c.Cache.Type {
	case "local":
	case "redis":
		if c.Cache.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when cache type is redis")
		}
	default:
		return fmt.Errorf("unknown cache type: %s (valid: local, redis)", c.Cache.Type)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %d", c.Session.TTL)
	}
	if c.History.RetentionDays < 0 || c.History.RetentionDays > MaxHistoryRetentionDays {
		return fmt.Errorf("history retention days must be between 0 and %d, got %d", MaxHistoryRetentionDays, c.History.RetentionDays)
	}
	if c.Recommend.Limit <= 0 {
		return fmt.Errorf("recommend limit must be positive, got %d", c.Recommend.Limit)
	}
	return nil
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} placeholders.
// Unset or empty variables without a default are left untouched.
func expandString(s string) string {
	if s == "" {
		return s
	}
	return envPlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPlaceholder.FindStringSubmatch(match)
		name, hasDefault, def := parts[1], parts[2] != "", parts[3]
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasDefault {
			return def
		}
		return match
	})
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"PORT":             &cfg.Server.Port,
		"BODY_SIZE_LIMIT":  &cfg.Server.BodySizeLimit,
		"SESSION_SECRET":   &cfg.Session.Secret,
		"STORAGE_TYPE":     &cfg.Storage.Type,
		"SQLITE_PATH":      &cfg.Storage.SQLite.Path,
		"POSTGRES_URL":     &cfg.Storage.PostgreSQL.URL,
		"MONGODB_URL":      &cfg.Storage.MongoDB.URL,
		"MONGODB_DATABASE": &cfg.Storage.MongoDB.Database,
		"CACHE_TYPE":       &cfg.Cache.Type,
		"REDIS_URL":        &cfg.Cache.Redis.URL,
		"REDIS_KEY_PREFIX": &cfg.Cache.Redis.KeyPrefix,
		"METRICS_ENDPOINT": &cfg.Metrics.Endpoint,
		"LOG_FORMAT":       &cfg.Log.Format,
		"LOG_LEVEL":        &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SESSION_TTL":            &cfg.Session.TTL,
		"POSTGRES_MAX_CONNS":     &cfg.Storage.PostgreSQL.MaxConns,
		"CACHE_TTL":              &cfg.Cache.TTL,
		"HISTORY_RETENTION_DAYS": &cfg.History.RetentionDays,
		"RECOMMEND_LIMIT":        &cfg.Recommend.Limit,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid value for %s: %q is not an integer", key, v)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"MOODTUNES_TESTING":   &cfg.Testing,
		"METRICS_ENABLED":     &cfg.Metrics.Enabled,
		"COMPRESSION_ENABLED": &cfg.Server.CompressionEnabled,
		"SESSION_SECURE":      &cfg.Session.Secure,
	}
	for key, dst := range bools {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid value for %s: %q is not a boolean", key, v)
		}
		*dst = b
	}
	return nil
}
