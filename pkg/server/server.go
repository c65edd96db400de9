// Package server is the HTTP shell around the telemetry hub. It binds
// the ingestion pipeline, query service, streaming registry and
// exposition renderer to their routes; it owns no hub state of its own.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/exposition"
	"mercator-hq/callisto/pkg/hub"
	"mercator-hq/callisto/pkg/query"
)

// Server serves the hub's HTTP surface.
type Server struct {
	config       config.ServerConfig
	pipeline     *hub.Pipeline
	registry     *hub.Registry
	query        *query.Service
	renderer     exposition.Renderer
	keepaliveNs  atomic.Int64
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates the HTTP shell.
func NewServer(cfg config.ServerConfig, pipeline *hub.Pipeline, registry *hub.Registry, querySvc *query.Service, renderer exposition.Renderer, keepalive time.Duration) *Server {
	s := &Server{
		config:   cfg,
		pipeline: pipeline,
		registry: registry,
		query:    querySvc,
		renderer: renderer,
	}
	s.SetKeepaliveInterval(keepalive)
	return s
}

// SetKeepaliveInterval adjusts the stream keepalive cadence. New
// streaming connections pick it up immediately; established ones keep
// their current ticker.
func (s *Server) SetKeepaliveInterval(d time.Duration) {
	if d <= 0 {
		d = config.DefaultKeepaliveInterval
	}
	s.keepaliveNs.Store(int64(d))
}

func (s *Server) keepaliveInterval() time.Duration {
	return time.Duration(s.keepaliveNs.Load())
}

// Start starts the HTTP server and blocks until ctx is cancelled, a
// shutdown signal arrives or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  s.config.ReadTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		// WriteTimeout stays unset: /stream connections are long-lived
		// by design and must not be severed by a server-wide deadline.
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting telemetry hub server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully drains in-flight requests and closes the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.isRunning = false
		s.mu.Unlock()

		timeout := s.config.ShutdownTimeout
		if timeout == 0 {
			timeout = config.DefaultShutdownTimeout
		}
		slog.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		// Long-lived stream connections never drain on their own, so a
		// timed-out graceful shutdown falls back to a hard close.
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown incomplete, closing remaining connections", "error", err)
			shutdownErr = s.httpServer.Close()
		}
	})

	return shutdownErr
}
