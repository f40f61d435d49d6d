package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/teranos/patql/am"
	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
)

// shutdownTimeout bounds how long in-flight requests may run after ctx ends
const shutdownTimeout = 5 * time.Second

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	s.logger.Infow("Server ready", logger.FieldAddress, ln.Addr().String())

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server failed")
	case <-ctx.Done():
	}

	s.logger.Infow("Initiating server shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	s.logger.Infow("Server stopped")
	return nil
}

// WatchConfig applies parser limits from every successful config reload
func (s *Server) WatchConfig(w *am.ConfigWatcher) {
	w.OnReload(func(cfg *am.Config) error {
		s.SetLimits(cfg.Limits())
		return nil
	})
}
