package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Catalogs resolves provider catalogs and their optional capabilities.
//
// [services.Registry] implements it.
type Catalogs interface {
	Default() services.Provider
	Resolve(name string) (services.Catalog, error)
	Authenticator(name string) (services.Authenticator, error)
	Streamer(name string) (services.Streamer, error)
	ClearCaches()
}

// Options tunes a [Server].
type Options struct {
	// Timeout bounds each request, upstream calls included. Zero means 30s.
	Timeout time.Duration
	// Middleware runs after the built-in stack, in the order given.
	Middleware []Middleware
}

// Server exposes a [Catalogs] over HTTP.
type Server struct {
	catalogs Catalogs
	logger   *log.Logger
	router   chi.Router
}

// New creates a [Server] with every route registered.
func New(catalogs Catalogs, logger *log.Logger, opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	s := &Server{
		catalogs: catalogs,
		logger:   shared.WithLogger(logger, "component", "server"),
	}
	s.router = s.routes(opts)
	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
