// Package api exposes the assistant over HTTP.
//
// Endpoints:
//   - POST /api/v1/chat  - submit a user message, receive the assistant reply
//   - POST /api/v1/reset - reset a conversation's state
//   - GET  /health       - liveness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: logging, recovery, rate limiting
//   - chat.go: chat and reset endpoints
//   - health.go: health check endpoint
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/nir-assistant/server/internal/agent"
	logx "github.com/nir-assistant/server/pkg/logger"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to guard against slow clients.
	ReadHeaderTimeout = 10 * time.Second

	ReadTimeout  = 30 * time.Second
	WriteTimeout = 60 * time.Second
	IdleTimeout  = 120 * time.Second
)

// Config holds the HTTP server settings.
type Config struct {
	Addr           string  `envconfig:"SERVER_ADDR" default:"127.0.0.1:8080"`
	RateLimitRPS   float64 `envconfig:"SERVER_RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `envconfig:"SERVER_RATE_LIMIT_BURST" default:"20"`
}

// Server is the HTTP server for the assistant API.
type Server struct {
	mux     *http.ServeMux
	limiter *rate.Limiter

	health *HealthHandler
	chat   *ChatHandler
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(orchestrator *agent.Orchestrator, cfg Config) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		health:  NewHealthHandler(),
		chat:    NewChatHandler(orchestrator),
	}

	s.health.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → rate limit → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware, loggingMiddleware, rateLimitMiddleware(s.limiter))
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", addr).Msg("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logx.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
