package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/vietlaw-ai/legalrag/internal/cache"
	"github.com/vietlaw-ai/legalrag/internal/config"
	"github.com/vietlaw-ai/legalrag/internal/embedding"
	"github.com/vietlaw-ai/legalrag/internal/llm/providers"
	"github.com/vietlaw-ai/legalrag/internal/metrics"
	"github.com/vietlaw-ai/legalrag/internal/prompt"
	"github.com/vietlaw-ai/legalrag/internal/rag"
	"github.com/vietlaw-ai/legalrag/internal/server"
	"github.com/vietlaw-ai/legalrag/internal/store"
	"github.com/vietlaw-ai/legalrag/internal/vectordb/qdrant"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "legalrag: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.Mode == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Vector store.
	qdrantCfg := qdrant.DefaultConfig()
	qdrantCfg.Host = cfg.Qdrant.Host
	qdrantCfg.HTTPPort = cfg.Qdrant.HTTPPort
	qdrantCfg.APIKey = cfg.Qdrant.APIKey
	qdrantCfg.Timeout = cfg.Qdrant.Timeout
	qdrantCfg.ScoreThreshold = float32(cfg.Qdrant.ScoreThreshold)

	vectordb, err := qdrant.NewClient(qdrantCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create qdrant client: %w", err)
	}
	if err := vectordb.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	defer func() { _ = vectordb.Close() }()

	if cfg.Qdrant.EnsureOnStart {
		distance := qdrant.Distance(cfg.Qdrant.Distance)
		for _, collection := range []string{cfg.RAG.QACollection, cfg.RAG.DocCollection} {
			if err := vectordb.EnsureCollection(ctx, collection, cfg.Qdrant.VectorSize, distance); err != nil {
				return fmt.Errorf("failed to ensure collection %s: %w", collection, err)
			}
		}
	}

	// Capabilities.
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	registry, err := providers.FromConfig(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to build llm registry: %w", err)
	}
	logger.WithField("providers", registry.Available()).Info("LLM providers registered")

	// Redis-backed cache and query store.
	redisClient := cache.NewRedisClient(cfg.Redis)
	defer func() { _ = redisClient.Close() }()

	responseCache := cache.NewResponseCache(redisClient, cfg.RAG.CacheTTL, logger)
	queryStore := store.NewRedisStore(redisClient, logger)

	prompts := prompt.Load(cfg.RAG.PromptPath, logger)
	m := metrics.New(prometheus.DefaultRegisterer)

	var reranker rag.Reranker
	if hr := rag.NewHTTPReranker(cfg.RAG.RerankURL, cfg.RAG.RerankTimeout); hr != nil {
		reranker = hr
	}

	retriever := rag.NewRetriever(vectordb, cfg.RAG, logger)
	orchestrator := rag.NewOrchestrator(embedder, retriever, registry, reranker, prompts, cfg.RAG, m, logger)

	srv := server.New(server.Config{
		Orchestrator: orchestrator,
		Cache:        responseCache,
		Store:        queryStore,
		Embedder:     embedder,
		VectorDB:     vectordb,
		Registry:     registry,
		Metrics:      m,
		Logger:       logger,
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	return srv.Run(ctx, addr)
}
