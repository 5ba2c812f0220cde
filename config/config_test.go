package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray config.yaml or
// .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultBodySizeLimit, cfg.Server.BodySizeLimit)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "local", cfg.Cache.Type)
	assert.Equal(t, "/metrics", cfg.Metrics.Endpoint)
	assert.False(t, cfg.Testing)
	assert.Equal(t, 7*24*60*60, cfg.Session.TTL)
}

func TestLoad_PortFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoad_YAMLWithPlaceholders(t *testing.T) {
	dir := chdirTemp(t)

	content := `
testing: true
server:
  port: "${TEST_PORT_DEFAULTS:-9999}"
session:
  secret: "${TEST_SECRET_DEFAULTS:-default-secret}"
storage:
  type: memory
recommend:
  limit: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	t.Run("UseDefaultValue", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Testing)
		assert.Equal(t, "9999", cfg.Server.Port)
		assert.Equal(t, "default-secret", cfg.Session.Secret)
		assert.Equal(t, "memory", cfg.Storage.Type)
		assert.Equal(t, 3, cfg.Recommend.Limit)
		// untouched sections keep their defaults
		assert.Equal(t, "local", cfg.Cache.Type)
	})

	t.Run("OverrideDefaultValue", func(t *testing.T) {
		t.Setenv("TEST_PORT_DEFAULTS", "1111")
		t.Setenv("TEST_SECRET_DEFAULTS", "real-secret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "1111", cfg.Server.Port)
		assert.Equal(t, "real-secret", cfg.Session.Secret)
	})

	t.Run("EnvBeatsYAML", func(t *testing.T) {
		t.Setenv("RECOMMEND_LIMIT", "7")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Recommend.Limit)
	})
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MOODTUNES_DOTENV_PORT=7070\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: \"${MOODTUNES_DOTENV_PORT}\"\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("MOODTUNES_DOTENV_PORT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "memory storage", mutate: func(cfg *Config) { cfg.Storage.Type = "memory" }},
		{
			name:    "unknown storage",
			mutate:  func(cfg *Config) { cfg.Storage.Type = "cassandra" },
			wantErr: "unknown storage type",
		},
		{
			name:    "postgresql without url",
			mutate:  func(cfg *Config) { cfg.Storage.Type = "postgresql" },
			wantErr: "POSTGRES_URL",
		},
		{
			name:    "mongodb without url",
			mutate:  func(cfg *Config) { cfg.Storage.Type = "mongodb" },
			wantErr: "MONGODB_URL",
		},
		{
			name:    "redis without url",
			mutate:  func(cfg *Config) { cfg.Cache.Type = "redis" },
			wantErr: "REDIS_URL",
		},
		{
			name:    "unknown cache",
			mutate:  func(cfg *Config) { cfg.Cache.Type = "memcached" },
			wantErr: "unknown cache type",
		},
		{
			name:    "zero session ttl",
			mutate:  func(cfg *Config) { cfg.Session.TTL = 0 },
			wantErr: "session ttl",
		},
		{name: "retention at upper bound", mutate: func(cfg *Config) { cfg.History.RetentionDays = MaxHistoryRetentionDays }},
		{
			name:    "retention beyond bound",
			mutate:  func(cfg *Config) { cfg.History.RetentionDays = 200000 },
			wantErr: "history retention days",
		},
		{
			name:    "negative retention",
			mutate:  func(cfg *Config) { cfg.History.RetentionDays = -1 },
			wantErr: "history retention days",
		},
		{
			name:    "zero recommend limit",
			mutate:  func(cfg *Config) { cfg.Recommend.Limit = 0 },
			wantErr: "recommend limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := buildDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
