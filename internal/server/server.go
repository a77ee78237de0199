// Package server exposes the HTTP API: query submission, query lookup,
// health and metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/vietlaw-ai/legalrag/internal/cache"
	"github.com/vietlaw-ai/legalrag/internal/embedding"
	"github.com/vietlaw-ai/legalrag/internal/llm"
	"github.com/vietlaw-ai/legalrag/internal/metrics"
	"github.com/vietlaw-ai/legalrag/internal/rag"
	"github.com/vietlaw-ai/legalrag/internal/store"
	"github.com/vietlaw-ai/legalrag/internal/vectordb/qdrant"
)

// Answerer is the orchestrator surface the API needs.
type Answerer interface {
	Answer(ctx context.Context, queryText string, opts rag.Options) (*rag.Result, error)
}

// Config wires the server's collaborators.
type Config struct {
	Orchestrator Answerer
	Cache        *cache.ResponseCache
	Store        store.QueryStore
	Embedder     embedding.Provider
	VectorDB     *qdrant.Client
	Registry     *llm.Registry
	Metrics      *metrics.Metrics
	Logger       *logrus.Logger
}

// Server is the HTTP API.
type Server struct {
	orchestrator Answerer
	cache        *cache.ResponseCache
	store        store.QueryStore
	embedder     embedding.Provider
	vectordb     *qdrant.Client
	registry     *llm.Registry
	metrics      *metrics.Metrics
	logger       *logrus.Logger
	router       *gin.Engine
}

// New creates the server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	s := &Server{
		orchestrator: cfg.Orchestrator,
		cache:        cfg.Cache,
		store:        cfg.Store,
		embedder:     cfg.Embedder,
		vectordb:     cfg.VectorDB,
		registry:     cfg.Registry,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/submit_query", s.SubmitQuery)
	router.GET("/get_query", s.GetQuery)
	router.GET("/health", s.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router = router
	return s
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
