// Package http hosts the dashboard server: route tree and lifecycle.
package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
)

// Timeouts bounds the http.Server phases.  Zero fields take defaults.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Read <= 0 {
		t.Read = 15 * time.Second
	}
	// The proxy waits on the upstream model, so writes get more headroom.
	if t.Write <= 0 {
		t.Write = 120 * time.Second
	}
	if t.Idle <= 0 {
		t.Idle = 60 * time.Second
	}
	if t.Shutdown <= 0 {
		t.Shutdown = 30 * time.Second
	}
	return t
}

type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          logging.Logger
}

func NewServer(addr string, handler http.Handler, timeouts Timeouts, logger logging.Logger) *Server {
	t := timeouts.withDefaults()
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  t.Read,
			WriteTimeout: t.Write,
			IdleTimeout:  t.Idle,
		},
		shutdownTimeout: t.Shutdown,
		logger:          logger,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens on the configured address and blocks until the server stops.
// A clean shutdown returns nil.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "listen").WithDetail(s.httpServer.Addr)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("HTTP server listening", logging.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, errors.ErrCodeInternal, "http server failed")
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "server shutdown failed")
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "listen").WithDetail(s.httpServer.Addr)
	}
	return s.RunListener(ctx, ln)
}

// RunListener is Run on an existing listener.
func (s *Server) RunListener(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if err := s.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	return <-errCh
}

//Personal.AI order the ending
