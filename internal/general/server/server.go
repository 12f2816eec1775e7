// Package server runs a service's HTTP listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"nearest-departures/internal/general/logger"
)

const shutdownTimeout = 10 * time.Second

// Options configures one HTTP listener.
type Options struct {
	Name          string
	Port          int
	Handler       http.Handler
	MaxConcurrent int
}

// Run serves until ctx is cancelled or the listener fails.
func Run(ctx context.Context, logger *logger.Logger, opts Options) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           WithConcurrencyLimit(opts.MaxConcurrent, opts.Handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started", fmt.Sprintf("%s started on port %d", opts.Name, opts.Port),
		map[string]any{"port": opts.Port, "max_concurrent": opts.MaxConcurrent})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Starting graceful shutdown", nil)
		if err := srv.Shutdown(shCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": opts.Port})
		}
		return err
	}
}

// WithConcurrencyLimit caps in-flight requests at n; n <= 0 disables the cap.
// Requests wait for a slot until their context ends.
func WithConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
