package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmax-ai/mrpconf/pkg/model"
	"github.com/rmax-ai/mrpconf/pkg/store"
)

// DefaultAddr is used when NewServer is given an empty address.
const DefaultAddr = ":8090"

// Server exposes a store.ConfigStore over the config source REST contract.
type Server struct {
	store    store.ConfigStore
	server   *http.Server
	logger   *log.Logger
	template []model.ConfigItem

	tlsCertFile string
	tlsKeyFile  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithOperationalTemplate sets the operational set given to newly created
// scenarios. Without it new scenarios start with an empty set.
func WithOperationalTemplate(items []model.ConfigItem) Option {
	return func(s *Server) { s.template = items }
}

// NewServer creates a new API server instance
func NewServer(st store.ConfigStore, addr string, opts ...Option) *Server {
	s := &Server{
		store:  st,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/config/scenarios", s.handleScenarios)
	mux.HandleFunc("/config/technical", s.handleTechnical)
	mux.HandleFunc("/config/operational/{scenarioId}", s.handleOperational)

	// Middleware: Logging, Metrics, Panic Recovery, Security Headers
	handler := s.withLogging(withMetrics(s.withRecovery(withSecureHeaders(mux))))

	if addr == "" {
		addr = DefaultAddr
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// SetTLS configures the server to use TLS
func (s *Server) SetTLS(certFile, keyFile string) {
	s.tlsCertFile = certFile
	s.tlsKeyFile = keyFile
}

// Start runs the HTTP server (blocking)
func (s *Server) Start() error {
	if s.tlsCertFile != "" && s.tlsKeyFile != "" {
		s.logger.Info("server_starting_tls", "addr", s.server.Addr)
		if err := s.server.ListenAndServeTLS(s.tlsCertFile, s.tlsKeyFile); err != http.ErrServerClosed {
			return err
		}
		return nil
	}

	s.logger.Info("server_starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("server_stopping")
	return s.server.Shutdown(ctx)
}
