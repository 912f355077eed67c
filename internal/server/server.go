// Package server runs the quiz HTTP server and its public tunnel.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pavelanni/prquiz/internal/tunnel"
)

// LifecycleError reports a failure to start or expose the server.
type LifecycleError struct {
	Op  string
	Err error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("server %s: %v", e.Op, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }

// Server serves one handler on a local listener and, optionally, a tunnel.
type Server struct {
	handler http.Handler
	addr    string
	opener  tunnel.Opener

	mu    sync.Mutex
	srv   *http.Server
	ln    net.Listener
	tun   tunnel.Tunnel
	conns map[net.Conn]struct{}

	shutdownOnce sync.Once
}

// New creates a Server. A nil opener serves on localhost only.
func New(h http.Handler, addr string, opener tunnel.Opener) *Server {
	return &Server{
		handler: h,
		addr:    addr,
		opener:  opener,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start listens, begins serving and opens the tunnel. It returns once the
// server is reachable at URL.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return &LifecycleError{Op: "listen", Err: err}
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ConnState:         s.trackConn,
	}

	s.mu.Lock()
	s.ln = ln
	s.srv = srv
	s.mu.Unlock()

	go s.serve(srv, ln, "local")
	slog.Debug("server listening", "addr", ln.Addr().String())

	if s.opener == nil {
		return nil
	}
	tun, err := s.opener.Open(ctx)
	if err != nil {
		_ = s.Shutdown()
		return &LifecycleError{Op: "tunnel", Err: err}
	}
	s.mu.Lock()
	s.tun = tun
	s.mu.Unlock()

	go s.serve(srv, tun, "tunnel")
	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener, name string) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "listener", name, "error", err)
	}
}

func (s *Server) trackConn(c net.Conn, state http.ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch state {
	case http.StateNew:
		s.conns[c] = struct{}{}
	case http.StateClosed, http.StateHijacked:
		delete(s.conns, c)
	}
}

// URL is the public tunnel URL, or the local address when no tunnel is open.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tun != nil {
		return s.tun.URL()
	}
	if s.ln != nil {
		if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
			return fmt.Sprintf("http://localhost:%d", addr.Port)
		}
	}
	return ""
}

// Shutdown drops every open connection, then closes the listener and the
// tunnel. It is safe to call more than once and after a failed Start.
func (s *Server) Shutdown() error {
	var errs []error
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		conns := make([]net.Conn, 0, len(s.conns))
		for c := range s.conns {
			conns = append(conns, c)
		}
		srv, ln, tun := s.srv, s.ln, s.tun
		s.mu.Unlock()

		slog.Debug("shutting down server", "open_connections", len(conns))
		for _, c := range conns {
			_ = c.Close()
		}
		if srv != nil {
			// Close also closes every listener passed to Serve.
			if err := srv.Close(); err != nil {
				errs = append(errs, err)
			}
		} else if ln != nil {
			if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				errs = append(errs, err)
			}
		}
		if tun != nil {
			if err := tun.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				slog.Debug("tunnel close", "error", err)
			}
		}
	})
	return errors.Join(errs...)
}
