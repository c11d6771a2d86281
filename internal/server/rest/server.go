// Package rest provides the JSON HTTP transport for the secret service.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/onetimesecret/internal/logging"
	"github.com/dmitrijs2005/onetimesecret/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	secrets *services.SecretService
	logger  logging.Logger
}

func NewServer(address string, secrets *services.SecretService, logger logging.Logger) *Server {
	return &Server{
		address: address,
		secrets: secrets,
		logger:  logger.With("module", "rest_server"),
	}
}

// Handler returns the routed handler, also used directly by tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/secrets/{secret_key}", s.handleGetSecret)
	mux.HandleFunc("GET /api/ping", s.handlePing)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{Addr: s.address, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
