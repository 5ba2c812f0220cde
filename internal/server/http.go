// Package server provides the HTTP surface of moodtunes.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"path"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moodtunes/config"
	"moodtunes/internal/core"
	"moodtunes/internal/feedback"
	"moodtunes/internal/history"
	"moodtunes/internal/recommend"
	"moodtunes/internal/session"
	"moodtunes/internal/users"
)

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	Testing            bool   // Reported by GET /test
	MetricsEnabled     bool   // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint    string // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit      string // Max request body size in Echo notation (default: 1M)
	CompressionEnabled bool   // Compress responses with brotli or gzip
}

// Deps are the services the handlers call into.
type Deps struct {
	Sessions    *session.Codec
	Users       *users.Service
	Recommender *recommend.Service
	History     history.Store
	Feedback    feedback.Store
}

// New creates a new HTTP server
func New(deps Deps, cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = mustRenderer()
	e.HTTPErrorHandler = errorHandler

	handler := NewHandler(deps, cfg.Testing)

	// Global middleware stack (order matters)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(core.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(requestLogger())
	e.Use(middleware.Recover())

	bodySizeLimit := config.DefaultBodySizeLimit
	if cfg.BodySizeLimit != "" {
		bodySizeLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(bodySizeLimit))

	if cfg.CompressionEnabled {
		e.Use(Compression())
	}
	e.Use(session.Middleware(deps.Sessions))
	e.Use(metricsMiddleware())

	// Public routes
	e.GET("/health", handler.Health)
	e.GET("/ping", handler.Ping)
	e.GET("/test", handler.Test)
	if cfg.MetricsEnabled {
		metricsPath := "/metrics"
		if cfg.MetricsEndpoint != "" {
			// Normalize path to prevent traversal attacks
			metricsPath = path.Clean("/" + cfg.MetricsEndpoint)
		}
		e.GET(metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	// Pages
	e.GET("/", handler.Index)
	e.GET("/login", handler.LoginPage)
	e.POST("/login", handler.Login)
	e.GET("/logout", handler.Logout)
	e.GET("/history", handler.History)
	e.POST("/recommend", handler.Recommend)
	e.POST("/feedback", handler.Feedback)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	slog.Info("http server listening", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
