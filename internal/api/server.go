package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
	"github.com/curation-evidence-sync/internal/ledger"
	"github.com/curation-evidence-sync/internal/metrics"
	"github.com/curation-evidence-sync/internal/middleware"
	"github.com/curation-evidence-sync/internal/service"
)

const version = "1.0.0"

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	submitter     *service.Submitter
	ledger        ledger.Store
	metrics       *metrics.Collector
	checks        map[string]HealthCheck
	router        *gin.Engine
	server        *http.Server
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithLedger exposes submission history under /api/v1/submissions.
func WithLedger(store ledger.Store) Option {
	return func(s *Server) { s.ledger = store }
}

// WithMetrics serves collector on /metrics.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) { s.metrics = collector }
}

// WithHealthCheck adds a named dependency check to /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, submitter *service.Submitter, logger *logrus.Logger, opts ...Option) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodyLimit(cfg.Server.MaxRequestBody))

	server := &Server{
		configManager: configManager,
		logger:        logger,
		submitter:     submitter,
		checks:        map[string]HealthCheck{},
		router:        router,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.setupRoutes()

	return server
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/evidence/preview", s.handleEvidencePreview)
		v1.POST("/evidence/submit", s.handleEvidenceSubmit)
		v1.POST("/evidence/delete", s.handleEvidenceDelete)
		v1.POST("/gene-type/preview", s.handleGeneTypePreview)
		v1.POST("/gene-type/submit", s.handleGeneTypeSubmit)
		v1.POST("/classify", s.handleClassify)

		if s.ledger != nil {
			v1.GET("/submissions", s.handleListSubmissions)
			v1.GET("/submissions/:batchId", s.handleGetBatch)
		}
	}
}

// handleHealth runs every registered check. Any failure turns the
// response into a 503.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	code := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			checks[name] = err.Error()
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
		"version":   version,
	})
}
