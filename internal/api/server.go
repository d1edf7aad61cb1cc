// Package api serves enrichment over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

// ServiceName identifies this service in health responses.
const ServiceName = "enrichment"

// Config holds HTTP server settings.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBatch        int
	Version         string
	Debug           bool
}

// Server runs the enrichment API.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger logger.Logger
	config Config
}

// NewServer builds the router and HTTP server. gatherer backs GET /metrics;
// nil uses the default registry.
func NewServer(cfg Config, enricher Enricher, gatherer prometheus.Gatherer, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDLoggerMiddleware(log))
	router.Use(LoggerMiddleware(log))

	h := NewHandler(enricher, cfg.MaxBatch, log)
	router.GET("/health", healthHandler(cfg.Version, time.Now()))
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	v1.POST("/enrich", h.Enrich)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         cfg.Address,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: log,
		config: cfg,
	}
}

// Router returns the underlying Gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		logger.String("address", s.server.Addr),
		logger.String("version", s.config.Version),
		logger.Duration("write_timeout", s.server.WriteTimeout),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Context cancelled, shutting down")
	}

	//nolint:contextcheck // ctx is already done; shutdown needs its own deadline
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func healthHandler(version string, started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: ServiceName,
			Version: version,
			Uptime:  time.Since(started).Truncate(time.Second).String(),
		})
	}
}
