package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"cardvault/internal/auth"
	"cardvault/internal/config"
	"cardvault/internal/library"
	"cardvault/internal/logging"
)

// Server serves the API on the configured bind address.
type Server struct {
	bind         string
	publicPrefix string
	logger       *slog.Logger
	library      *library.Service
	auth         *auth.Service

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds the server and its routes. Nothing listens until Start.
func New(cfg *config.Config, lib *library.Service, authSvc *auth.Service, logger *slog.Logger) *Server {
	s := &Server{
		bind:         strings.TrimSpace(cfg.Paths.APIBind),
		publicPrefix: cfg.Storage.PublicPrefix,
		logger:       logging.NewComponentLogger(logger, "api-server"),
		library:      lib,
		auth:         authSvc,
	}
	s.handler = s.routes()
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens and serves in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr is the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}
