// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"

	"golang.org/x/net/netutil"

	"github.com/luxfi/kvcache/internal/platform/timeouts"
)

// Server serves a handler with at most a fixed number of connections in
// flight, the HTTP analogue of a fixed-size worker pool.
type Server struct {
	addr       string
	workers    int
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a server for handler on addr. workers <= 0 means no
// connection limit.
func NewServer(addr string, workers int, handler http.Handler) *Server {
	return &Server{
		addr:    addr,
		workers: workers,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}
}

// Listen binds the listening socket. ListenAndServe calls it when it has not
// been called yet.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	if s.workers > 0 {
		l = netutil.LimitListener(l, s.workers)
	}
	s.listener = l
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if err := s.Listen(); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	log.Printf("kv api listening on %s (workers=%d)", s.listener.Addr(), s.workers)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
