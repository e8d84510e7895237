package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Start serves until ctx is cancelled, then drains in-flight requests.
// main cancels ctx on SIGINT and SIGTERM.
func (s *Server) Start(ctx context.Context) error {
	httpServer, err := s.newHTTPServer()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
	}

	s.displayServerInfo()
	s.Logger.Info("Serving interviews",
		"address", ln.Addr().String(),
		"tls_enabled", httpServer.TLSConfig != nil)

	serveErr := make(chan error, 1)
	go func() {
		if httpServer.TLSConfig != nil {
			// certificates are already in the TLS config
			serveErr <- httpServer.ServeTLS(ln, "", "")
			return
		}
		serveErr <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		s.closeRateLimiter()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Shutdown requested, draining requests", "timeout", shutdownTimeout.String())
		return s.drain(httpServer)
	}
}

// Handler returns the routes wrapped in the telemetry middleware.
func (s *Server) Handler() http.Handler {
	return s.Telemetry.HTTPMiddleware()(s.setupRoutes())
}

func (s *Server) newHTTPServer() (*http.Server, error) {
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
	if !s.TLSConfig.Enabled() {
		return httpServer, nil
	}

	tlsConfig, err := s.TLSConfig.BuildServerTLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig
	return httpServer, nil
}

func (s *Server) drain(httpServer *http.Server) error {
	defer s.closeRateLimiter()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Drain timed out, closing open connections")
		return httpServer.Close()
	}
	s.Logger.Info("Server stopped")
	return nil
}

func (s *Server) closeRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}
