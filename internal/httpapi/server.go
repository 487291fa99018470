// Package httpapi exposes the generation pipeline and the auth subsystem
// over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/book-expert/logger"

	"github.com/hawker-audio/tts-backend/internal/artifact"
	"github.com/hawker-audio/tts-backend/internal/auth"
	"github.com/hawker-audio/tts-backend/internal/generate"
)

// Service metadata returned on the root endpoint.
const (
	serviceName    = "street hawker audio generator API"
	serviceVersion = "1.0.0"
	serviceDocs    = "/docs"
)

// Log formats.
const (
	logFmtServerStarting = "HTTP server listening on %s"
	logFmtServerStopped  = "HTTP server stopped: %v"
)

// Timeouts for the HTTP server. ReadHeader is kept short; the write
// timeout must exceed the synthesis timeout or long generations would be
// cut off mid-response, so it is derived from the configured synthesis
// timeout plus headroom for writing the response.
const (
	readHeaderTimeout = 10 * time.Second
	writeHeadroom     = 60 * time.Second
)

// Server wires the HTTP routes to the pipeline and auth collaborators.
type Server struct {
	orchestrator    *generate.Orchestrator
	store           *artifact.Store
	authService     *auth.Service
	log             *logger.Logger
	protectGenerate bool
	httpServer      *http.Server
}

// NewServer creates the HTTP server for the given address. When
// protectGenerate is true, the generation endpoint requires a valid
// bearer token; by default it is open, matching the original deployment.
// synthesisTimeout must match the timeout the pipeline enforces so the
// write timeout stays above it.
func NewServer(
	addr string,
	orchestrator *generate.Orchestrator,
	store *artifact.Store,
	authService *auth.Service,
	protectGenerate bool,
	synthesisTimeout time.Duration,
	log *logger.Logger,
) *Server {
	server := &Server{
		orchestrator:    orchestrator,
		store:           store,
		authService:     authService,
		log:             log,
		protectGenerate: protectGenerate,
		httpServer:      nil,
	}

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      synthesisTimeout + writeHeadroom,
	}

	return server
}

// Handler builds the route table. Exposed separately so tests can drive
// the full surface through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	generateHandler := s.handleGenerate
	if s.protectGenerate {
		generateHandler = s.requireBearer(generateHandler)
	}

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/generate", generateHandler)
	mux.HandleFunc("GET /output/{filename}", s.handleOutputFile)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.requireBearer(s.handleMe))
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	return mux
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.log.System(logFmtServerStarting, s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	s.log.Info(logFmtServerStopped, err)

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	return nil
}
