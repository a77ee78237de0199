package providers

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietlaw-ai/legalrag/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestFromConfig(t *testing.T) {
	cfg := config.LLMConfig{
		DefaultProvider: "groq",
		DefaultTimeout:  10 * time.Second,
		MaxRetries:      2,
		Providers: map[string]config.ProviderConfig{
			"groq":   {Type: config.ProviderGroq, APIKey: "gsk-test"},
			"ollama": {Type: config.ProviderOllama, BaseURL: "http://localhost:11434"},
		},
	}

	registry, err := FromConfig(cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"groq", "ollama"}, registry.Available())

	p, err := registry.Default()
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name())
}

func TestFromConfigUnknownType(t *testing.T) {
	cfg := config.LLMConfig{
		DefaultProvider: "claude",
		DefaultTimeout:  10 * time.Second,
		Providers: map[string]config.ProviderConfig{
			"claude": {Type: "claude"},
		},
	}

	_, err := FromConfig(cfg, testLogger())
	require.Error(t, err)
}

func TestFromConfigMissingDefault(t *testing.T) {
	cfg := config.LLMConfig{
		DefaultProvider: "openai",
		DefaultTimeout:  10 * time.Second,
		Providers: map[string]config.ProviderConfig{
			"groq": {Type: config.ProviderGroq, APIKey: "gsk-test"},
		},
	}

	_, err := FromConfig(cfg, testLogger())
	require.Error(t, err)
}
