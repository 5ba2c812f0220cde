package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		envVars  map[string]string
		expected string
	}{
		{"empty string", "", nil, ""},
		{"no placeholders", "data/moodtunes.db", nil, "data/moodtunes.db"},
		{
			name:     "session secret from env",
			input:    "${SESSION_SECRET}",
			envVars:  map[string]string{"SESSION_SECRET": "s3cret"},
			expected: "s3cret",
		},
		{
			name:     "placeholder inside a value",
			input:    "prefix-${SESSION_SECRET}-suffix",
			envVars:  map[string]string{"SESSION_SECRET": "s3cret"},
			expected: "prefix-s3cret-suffix",
		},
		{
			name:     "postgres url assembled from parts",
			input:    "postgres://${PGUSER}:${PGPASSWORD}@${PGHOST}:5432/moodtunes",
			envVars:  map[string]string{"PGUSER": "mood", "PGPASSWORD": "pw", "PGHOST": "db"},
			expected: "postgres://mood:pw@db:5432/moodtunes",
		},
		{
			name:     "postgres url default",
			input:    "${POSTGRES_URL:-postgres://localhost:5432/moodtunes}",
			expected: "postgres://localhost:5432/moodtunes",
		},
		{
			name:     "redis url default with path",
			input:    "${REDIS_URL:-redis://localhost:6379}/0",
			expected: "redis://localhost:6379/0",
		},
		{
			name:     "redis url set wins over default",
			input:    "${REDIS_URL:-redis://localhost:6379}",
			envVars:  map[string]string{"REDIS_URL": "redis://cache:6380"},
			expected: "redis://cache:6380",
		},
		{
			name:     "empty env value falls back to default",
			input:    "${STORAGE_TYPE:-sqlite}",
			envVars:  map[string]string{"STORAGE_TYPE": ""},
			expected: "sqlite",
		},
		{
			name:     "sqlite path default keeps slashes",
			input:    "${SQLITE_PATH:-/var/lib/moodtunes/moodtunes.db}",
			expected: "/var/lib/moodtunes/moodtunes.db",
		},
		{
			name:     "empty default",
			input:    "${SESSION_SECRET:-}",
			expected: "",
		},
		{
			name:     "unset without default is left as-is",
			input:    "${MONGODB_URL}",
			expected: "${MONGODB_URL}",
		},
		{
			name:     "mixed resolved, defaulted and unresolved",
			input:    "${MONGODB_DATABASE}:${CACHE_TYPE:-local}:${MONGODB_URL}",
			envVars:  map[string]string{"MONGODB_DATABASE": "tunes"},
			expected: "tunes:local:${MONGODB_URL}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"SESSION_SECRET", "POSTGRES_URL", "REDIS_URL", "STORAGE_TYPE", "SQLITE_PATH", "MONGODB_URL", "MONGODB_DATABASE", "CACHE_TYPE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.expected, expandString(tt.input))
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "session",
			envVars: map[string]string{"SESSION_SECRET": "my-secret", "SESSION_TTL": "60", "SESSION_SECURE": "true"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "my-secret", cfg.Session.Secret)
				assert.Equal(t, 60, cfg.Session.TTL)
				assert.True(t, cfg.Session.Secure)
			},
		},
		{
			name:    "postgresql storage",
			envVars: map[string]string{"STORAGE_TYPE": "postgresql", "POSTGRES_URL": "postgres://localhost/test", "POSTGRES_MAX_CONNS": "20"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgresql", cfg.Storage.Type)
				assert.Equal(t, "postgres://localhost/test", cfg.Storage.PostgreSQL.URL)
				assert.Equal(t, 20, cfg.Storage.PostgreSQL.MaxConns)
			},
		},
		{
			name:    "mongodb storage",
			envVars: map[string]string{"STORAGE_TYPE": "mongodb", "MONGODB_URL": "mongodb://localhost:27017", "MONGODB_DATABASE": "tunes"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mongodb", cfg.Storage.Type)
				assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.MongoDB.URL)
				assert.Equal(t, "tunes", cfg.Storage.MongoDB.Database)
			},
		},
		{
			name:    "redis cache",
			envVars: map[string]string{"CACHE_TYPE": "redis", "REDIS_URL": "redis://localhost:6379", "REDIS_KEY_PREFIX": "mt:", "CACHE_TTL": "30"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "redis", cfg.Cache.Type)
				assert.Equal(t, "redis://localhost:6379", cfg.Cache.Redis.URL)
				assert.Equal(t, "mt:", cfg.Cache.Redis.KeyPrefix)
				assert.Equal(t, 30, cfg.Cache.TTL)
			},
		},
		{
			name:    "testing flag accepts strconv booleans",
			envVars: map[string]string{"MOODTUNES_TESTING": "1", "METRICS_ENABLED": "T", "COMPRESSION_ENABLED": "false"},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Testing)
				assert.True(t, cfg.Metrics.Enabled)
				assert.False(t, cfg.Server.CompressionEnabled)
			},
		},
		{
			name:    "integers tolerate surrounding spaces",
			envVars: map[string]string{"HISTORY_RETENTION_DAYS": " 14 ", "RECOMMEND_LIMIT": "8"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 14, cfg.History.RetentionDays)
				assert.Equal(t, 8, cfg.Recommend.Limit)
			},
		},
		{
			name:    "unset keeps defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8080", cfg.Server.Port)
				assert.Equal(t, "sqlite", cfg.Storage.Type)
				assert.Equal(t, 5, cfg.Recommend.Limit)
				assert.False(t, cfg.Session.Secure)
				assert.False(t, cfg.Testing)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := buildDefaultConfig()
			require.NoError(t, applyEnvOverrides(cfg))
			tt.check(t, cfg)
		})
	}
}

func TestApplyEnvOverrides_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"SESSION_TTL", "a week", "not an integer"},
		{"RECOMMEND_LIMIT", "many", "not an integer"},
		{"HISTORY_RETENTION_DAYS", "1.5", "not an integer"},
		{"METRICS_ENABLED", "sometimes", "not a boolean"},
		{"MOODTUNES_TESTING", "yes", "not a boolean"},
		{"SESSION_SECURE", "on", "not a boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := applyEnvOverrides(buildDefaultConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
