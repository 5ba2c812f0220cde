// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the moodtunes server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"moodtunes/config"
	"moodtunes/internal/cache"
	"moodtunes/internal/catalog"
	"moodtunes/internal/feedback"
	"moodtunes/internal/history"
	"moodtunes/internal/mood"
	"moodtunes/internal/recommend"
	"moodtunes/internal/server"
	"moodtunes/internal/session"
	"moodtunes/internal/storage"
	"moodtunes/internal/users"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config *config.Config

	storage   *storage.DB
	users     *users.Service
	history   history.Store
	feedback  feedback.Store
	cache     cache.Cache
	retention *history.Retention
	sessions  *session.Codec
	server    *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is required")
	}

	app := &App{config: cfg}
	// fail closes whatever was built so far, newest first.
	fail := func(step string, err error) (*App, error) {
		if closeErr := app.closeComponents(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w (also: close error: %v)", step, err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize %s: %w", step, err)
	}

	if cfg.Storage.Type != storage.TypeMemory {
		shared, err := storage.Open(ctx, storage.Config{
			Type:       cfg.Storage.Type,
			SQLite:     storage.SQLiteConfig{Path: cfg.Storage.SQLite.Path},
			PostgreSQL: storage.PostgreSQLConfig{URL: cfg.Storage.PostgreSQL.URL, MaxConns: cfg.Storage.PostgreSQL.MaxConns},
			MongoDB:    storage.MongoDBConfig{URL: cfg.Storage.MongoDB.URL, Database: cfg.Storage.MongoDB.Database},
		})
		if err != nil {
			return fail("storage", err)
		}
		app.storage = shared
	}

	userStore, err := users.NewStore(app.storage)
	if err != nil {
		return fail("user store", err)
	}
	app.users = users.NewService(userStore, 0)

	historyStore, err := history.NewStore(app.storage)
	if err != nil {
		return fail("history store", err)
	}
	app.history = historyStore

	feedbackStore, err := feedback.NewStore(app.storage)
	if err != nil {
		return fail("feedback store", err)
	}
	app.feedback = feedbackStore

	recCache, err := newCache(ctx, cfg)
	if err != nil {
		return fail("cache", err)
	}
	app.cache = recCache

	cat, err := catalog.Default()
	if err != nil {
		return fail("catalog", err)
	}
	recommender := recommend.NewService(mood.NewAnalyzer(nil), cat, app.feedback, app.cache, recommend.Config{
		Limit:    cfg.Recommend.Limit,
		CacheTTL: cfg.CacheTTL(),
	})

	codec, generated, err := session.NewCodec(cfg.Session.Secret, cfg.SessionTTL(), cfg.Session.Secure)
	if err != nil {
		return fail("sessions", err)
	}
	if generated {
		slog.Warn("SESSION_SECRET not set - using a random secret, sessions will not survive a restart")
	}
	app.sessions = codec

	app.retention = history.StartRetention(app.history, cfg.History.RetentionDays)

	app.logStartupInfo(cat)

	app.server = server.New(server.Deps{
		Sessions:    codec,
		Users:       app.users,
		Recommender: recommender,
		History:     app.history,
		Feedback:    app.feedback,
	}, &server.Config{
		Testing:            cfg.Testing,
		MetricsEnabled:     cfg.Metrics.Enabled,
		MetricsEndpoint:    cfg.Metrics.Endpoint,
		BodySizeLimit:      cfg.Server.BodySizeLimit,
		CompressionEnabled: cfg.Server.CompressionEnabled,
	})

	return app, nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Type {
	case "redis":
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:       cfg.Cache.Redis.URL,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
			TTL:       cfg.CacheTTL(),
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "local", "":
		return cache.NewLocalCache(0), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Cache.Type)
	}
}

// Handler returns the HTTP handler, for in-process use such as tests.
func (a *App) Handler() http.Handler {
	return a.server
}

// Sessions returns the session codec, so in-process clients can mint cookies.
func (a *App) Sessions() *session.Codec {
	return a.sessions
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order.
// Order:
// 1. HTTP server shutdown via server.Shutdown(ctx), honoring the passed context timeout/cancellation.
// 2. History retention loop stop.
// 3. Cache close.
// 4. Feedback, history and user stores close.
// 5. Shared storage close.
//
// Shutdown is idempotent and safe for repeated calls; after the first call, subsequent calls are no-ops.
// It attempts every close step, aggregates failures, and returns a joined error if any step fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}
	if err := a.closeComponents(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// closeComponents closes everything but the server, newest first.
func (a *App) closeComponents() error {
	a.retention.Stop()
	a.retention = nil

	var errs []error
	closeStep := func(name string, closer interface{ Close() error }) {
		if err := closer.Close(); err != nil {
			slog.Error(name+" close error", "error", err)
			errs = append(errs, fmt.Errorf("%s close: %w", name, err))
		}
	}

	if a.cache != nil {
		closeStep("cache", a.cache)
		a.cache = nil
	}
	if a.feedback != nil {
		closeStep("feedback store", a.feedback)
		a.feedback = nil
	}
	if a.history != nil {
		closeStep("history store", a.history)
		a.history = nil
	}
	if a.users != nil {
		closeStep("user store", a.users)
		a.users = nil
	}
	if a.storage != nil {
		closeStep("storage", a.storage)
		a.storage = nil
	}
	return errors.Join(errs...)
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo(cat *catalog.Catalog) {
	cfg := a.config

	if cfg.Testing {
		slog.Warn("testing mode enabled")
	}
	slog.Info("session cookies configured", "secure", cfg.Session.Secure, "ttl", cfg.SessionTTL())

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	slog.Info("storage configured", "type", cfg.Storage.Type)
	slog.Info("recommendation cache configured", "type", cfg.Cache.Type, "ttl", cfg.CacheTTL())
	slog.Info("song catalog loaded", "songs", cat.Len())

	if cfg.History.RetentionDays > 0 {
		slog.Info("history retention enabled", "retention_days", cfg.History.RetentionDays)
	} else {
		slog.Info("history retention disabled")
	}
}
