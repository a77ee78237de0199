// Package embedding provides text embedding providers.
// Implementations exist for OpenAI, Ollama and a generic self-hosted HTTP
// endpoint; all return vectors sized to the configured store dimension.
package embedding

import (
	"context"
	"fmt"

	"github.com/vietlaw-ai/legalrag/internal/config"
)

// Provider generates fixed-length embedding vectors for text.
//
// A nil or empty vector signals that no embedding was produced; callers
// treat it as a recoverable failure, never a crash.
type Provider interface {
	// Name returns the provider name.
	Name() string
	// Dimension returns the embedding dimension.
	Dimension() int
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch generates embeddings for multiple texts, preserving input
	// order and returning exactly one vector per input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Close releases provider resources.
	Close() error
}

// New builds the provider selected by the embedding config.
func New(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Mode {
	case config.EmbeddingOpenAI:
		return NewOpenAIProvider(cfg), nil
	case config.EmbeddingOllama:
		return NewOllamaProvider(cfg), nil
	case config.EmbeddingHTTP:
		return NewHTTPProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embedding mode %q", cfg.Mode)
	}
}
