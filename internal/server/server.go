// Package server owns the listen/serve/shutdown lifecycle of the HTTP runtime.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/foorest/sleep/pkg/logger"
)

// Server serves Handler on Addr until its context ends.
type Server struct {
	Addr            string
	Handler         http.Handler
	ShutdownTimeout time.Duration
	// OnStarted hooks run once the listener is bound, before serving.
	OnStarted []func(net.Addr)
}

// Run binds the listener, serves, and on ctx cancellation shuts down
// gracefully. Requests still running after ShutdownTimeout have their
// contexts cancelled and the server is closed. A bind failure is returned
// immediately; a clean stop returns nil.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	logger.Info("started", "addr", ln.Addr().String())
	for _, fn := range s.OnStarted {
		fn(ln.Addr())
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", s.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown timed out, closing", "error", err)
		cancelBase()
		_ = srv.Close()
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("stopped")
	return nil
}
