// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handler "github.com/hika3390/jquants-backtest/internal/api/handler/api"
	"github.com/hika3390/jquants-backtest/internal/api/job"
	"github.com/hika3390/jquants-backtest/internal/api/middleware"
	"github.com/hika3390/jquants-backtest/internal/metrics"
)

const jobCleanupInterval = 10 * time.Minute

// Server is the HTTP server exposing the backtest API.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	jobs       *job.Store
	stop       chan struct{}
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string // empty disables the metrics endpoint
}

// NewServer creates a new HTTP server wired to the given handler.
func NewServer(cfg Config, bt *handler.BacktestHandler, jobs *job.Store, reg *metrics.Registry, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	// Backtest API, behind API key auth
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/backtest/run", bt.Run)
	apiMux.HandleFunc("GET /api/backtest/list", bt.List)
	apiMux.HandleFunc("GET /api/backtest/jobs/{id}", bt.JobStatus)
	apiMux.HandleFunc("GET /api/backtest/{id}", bt.Get)
	apiMux.HandleFunc("DELETE /api/backtest/{id}", bt.Delete)
	mux.Handle("/api/backtest/", middleware.APIKeyAuth(cfg.APIKey)(apiMux))

	mux.HandleFunc("GET /api/health", handleHealth)

	if cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	var root http.Handler = mux
	root = metrics.HTTPMiddleware(reg)(root)
	root = metrics.LoggingMiddleware(logger)(root)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		jobs:   jobs,
		stop:   make(chan struct{}),
	}
}

// Start starts the HTTP server and the job cleanup loop.
func (s *Server) Start() error {
	go s.cleanupLoop()

	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	close(s.stop)
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) cleanupLoop() {
	ticker := time.NewTicker(jobCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.jobs.Cleanup(); n > 0 {
				s.logger.Debug("evicted expired jobs", zap.Int("count", n))
			}
		case <-s.stop:
			return
		}
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
