package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"housevalue/train"
)

// ServerConfig holds the HTTP-facing knobs.
type ServerConfig struct {
	Port            int
	Timeout         time.Duration
	AllowedOrigins  []string
	MaxRequestBytes int64
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8080,
		Timeout:         30 * time.Second,
		AllowedOrigins:  []string{"*"},
		MaxRequestBytes: 1 << 20,
	}
}

// Server owns the HTTP listener, the prediction service handle, and
// the activity hub.
type Server struct {
	server   *http.Server
	service  *Service
	hub      *Hub
	log      *zap.SugaredLogger
	trainCfg train.Config
	trainMu  sync.Mutex

	// train is swappable for tests.
	train func(train.Config, *zap.SugaredLogger) (*train.Result, error)
}

func NewServer(config ServerConfig, service *Service, trainCfg train.Config, log *zap.SugaredLogger) *Server {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRequestBytes <= 0 {
		config.MaxRequestBytes = 1 << 20
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		service:  service,
		hub:      NewHub(log),
		log:      log,
		trainCfg: trainCfg,
		train:    train.Run,
	}

	mux := http.NewServeMux()
	s.RegisterHandlers(mux)

	chain := Chain(
		RecoveryMiddleware(log),
		LoggerMiddleware(log),
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		RequestSizeMiddleware(config.MaxRequestBytes),
	)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      chain(mux),
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Service returns the prediction handle, for deploys from outside the
// request path (startup load, artifact watcher).
func (s *Server) Service() *Service { return s.service }

// Hub returns the activity hub.
func (s *Server) Hub() *Hub { return s.hub }

// Start blocks until the listener stops.
func (s *Server) Start() error {
	go s.hub.Run()
	s.log.Infow("http server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.hub.Stop()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
