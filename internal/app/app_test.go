package app

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodtunes/config"
	"moodtunes/internal/contract"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Testing: true,
		Server:  config.ServerConfig{BodySizeLimit: config.DefaultBodySizeLimit},
		Session: config.SessionConfig{Secret: "app-test-secret", TTL: 3600},
		Storage: config.StorageConfig{
			Type:   "sqlite",
			SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "app.db")},
		},
		Cache:     config.CacheConfig{Type: "local", TTL: 60},
		Recommend: config.RecommendConfig{Limit: 5},
		History:   config.HistoryConfig{RetentionDays: 30},
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestApp_ContractAgainstSQLite(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	runner := &contract.Runner{
		NewClient: func() (*contract.Client, error) {
			return contract.NewHandlerClient(app.Handler(), app.Sessions()), nil
		},
	}
	results := runner.Run(context.Background(), contract.DefaultCases())
	for _, f := range results.Failures {
		t.Errorf("[%s] %v", f.TestID, f.Errors)
	}
	assert.True(t, results.OK())
}

func TestApp_LoginPersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t)
	login := func(app *App, password string) int {
		form := url.Values{"username": {"alice"}, "password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	first, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, login(first, "pw-1"))
	require.NoError(t, first.Shutdown(context.Background()))

	second, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Shutdown(context.Background()) })
	assert.Equal(t, http.StatusUnauthorized, login(second, "pw-2"))
	assert.Equal(t, http.StatusFound, login(second, "pw-1"))
}

func TestApp_MemoryStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Type = "memory"
	cfg.Session.Secret = ""

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, app.storage)
	assert.NotNil(t, app.Sessions())
	require.NoError(t, app.Shutdown(context.Background()))
}

func TestApp_ShutdownIsIdempotent(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)

	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
	assert.Nil(t, app.storage)
	assert.Nil(t, app.retention)
}

func TestNew_CacheErrors(t *testing.T) {
	tests := []struct {
		name  string
		cache config.CacheConfig
	}{
		{"unknown type", config.CacheConfig{Type: "memcached"}},
		{"bad redis url", config.CacheConfig{Type: "redis", Redis: config.RedisConfig{URL: "not-a-url"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Cache = tt.cache
			_, err := New(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to initialize cache")
		})
	}
}

func TestNew_StorageError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Type = "cassandra"
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize storage")
}

func TestApp_LoginOverPlainHTTPReachesHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Testing = false

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.PostForm(srv.URL+"/login", url.Values{"username": {"alice"}, "password": {"pw-1"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.NotEmpty(t, resp.Cookies())
	assert.False(t, resp.Cookies()[0].Secure)

	resp, err = client.Get(srv.URL + "/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "location: %s", resp.Header.Get("Location"))
}

func TestApp_SecureSessionCookie(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Secure = true

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	form := url.Values{"username": {"alice"}, "password": {"pw-1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[0].Secure)
}
