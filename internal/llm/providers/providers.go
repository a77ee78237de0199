// Package providers builds the llm.Registry from configuration.
package providers

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vietlaw-ai/legalrag/internal/config"
	"github.com/vietlaw-ai/legalrag/internal/llm"
	"github.com/vietlaw-ai/legalrag/internal/llm/providers/gemini"
	"github.com/vietlaw-ai/legalrag/internal/llm/providers/groq"
	"github.com/vietlaw-ai/legalrag/internal/llm/providers/ollama"
	"github.com/vietlaw-ai/legalrag/internal/llm/providers/openai"
)

// FromConfig constructs every configured provider and registers it. The
// provider set is closed at config time; an unknown type here is a
// configuration error, not a runtime fallback.
func FromConfig(cfg config.LLMConfig, logger *logrus.Logger) (*llm.Registry, error) {
	registry := llm.NewRegistry(cfg.DefaultProvider, logger)

	retry := llm.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}

	for name, pc := range cfg.Providers {
		switch pc.Type {
		case config.ProviderGroq:
			registry.Register(groq.NewProvider(pc, cfg.DefaultTimeout, retry))
		case config.ProviderOpenAI:
			registry.Register(openai.NewProvider(pc, cfg.DefaultTimeout, retry))
		case config.ProviderGemini:
			registry.Register(gemini.NewProvider(pc, cfg.DefaultTimeout, retry))
		case config.ProviderOllama:
			registry.Register(ollama.NewProvider(pc, cfg.DefaultTimeout))
		default:
			return nil, fmt.Errorf("unsupported llm provider type %q for %q", pc.Type, name)
		}
	}

	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}
