// Package config loads service configuration from the environment.
// A .env file is honored when present (loaded by the caller via godotenv);
// every knob has a default so a bare environment still yields a usable
// development configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Qdrant    QdrantConfig
	Embedding EmbeddingConfig
	LLM       LLMConfig
	RAG       RAGConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	Mode         string // "debug" or "release"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Addr returns the host:port address for the Redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type QdrantConfig struct {
	Host           string
	HTTPPort       int
	APIKey         string
	Timeout        time.Duration
	Distance       string // "Cosine", "Euclid" or "Dot"
	VectorSize     int
	EnsureOnStart  bool
	ScoreThreshold float64
}

// EmbeddingMode selects the embedding backend. The set is closed: an
// unknown mode is a configuration error, not a runtime dispatch failure.
type EmbeddingMode string

const (
	EmbeddingOpenAI EmbeddingMode = "openai"
	EmbeddingOllama EmbeddingMode = "ollama"
	EmbeddingHTTP   EmbeddingMode = "http" // self-hosted endpoint (EC2/docker/local)
)

type EmbeddingConfig struct {
	Mode         EmbeddingMode
	Model        string
	APIKey       string
	BaseURL      string
	Dimension    int
	Timeout      time.Duration
	MaxBatchSize int
}

// ProviderType enumerates the supported LLM vendors.
type ProviderType string

const (
	ProviderGroq   ProviderType = "groq"
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
)

// ParseProviderType validates a provider name against the closed vendor set.
func ParseProviderType(s string) (ProviderType, error) {
	switch ProviderType(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderGroq:
		return ProviderGroq, nil
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderGemini:
		return ProviderGemini, nil
	case ProviderOllama:
		return ProviderOllama, nil
	default:
		return "", fmt.Errorf("unknown llm provider type %q", s)
	}
}

type ProviderConfig struct {
	Type        ProviderType
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

type LLMConfig struct {
	DefaultProvider string
	DefaultTimeout  time.Duration
	MaxRetries      int
	Providers       map[string]ProviderConfig
}

type RAGConfig struct {
	QACollection     string
	DocCollection    string
	QATopK           int
	DocTopK          int
	TopK             int // single-collection fallback depth
	MaxContextLength int
	KeywordTopK      int
	CacheTTL         time.Duration
	PromptPath       string
	CitationPattern  string
	RerankURL        string
	RerankTimeout    time.Duration
	EmbedTimeout     time.Duration
	SearchTimeout    time.Duration
	GenerateTimeout  time.Duration
}

// Load reads configuration from the environment and fills in defaults.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getDurationEnv("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("WRITE_TIMEOUT", 120*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			Timeout:  getDurationEnv("REDIS_TIMEOUT", 5*time.Second),
		},
		Qdrant: QdrantConfig{
			Host:           getEnv("QDRANT_HOST", "localhost"),
			HTTPPort:       getIntEnv("QDRANT_HTTP_PORT", 6333),
			APIKey:         getEnv("QDRANT_API_KEY", ""),
			Timeout:        getDurationEnv("QDRANT_TIMEOUT", 30*time.Second),
			Distance:       getEnv("QDRANT_DISTANCE", "Cosine"),
			VectorSize:     getIntEnv("QDRANT_VECTOR_SIZE", 384),
			EnsureOnStart:  getBoolEnv("QDRANT_ENSURE_COLLECTIONS", true),
			ScoreThreshold: getFloatEnv("QDRANT_SCORE_THRESHOLD", 0.0),
		},
		Embedding: EmbeddingConfig{
			Mode:         EmbeddingMode(strings.ToLower(getEnv("EMBEDDING_MODE", "http"))),
			Model:        getEnv("EMBEDDING_MODEL", "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"),
			APIKey:       getEnv("EMBEDDING_API_KEY", ""),
			BaseURL:      getEnv("EMBEDDING_BASE_URL", "http://localhost:8001"),
			Dimension:    getIntEnv("EMBEDDING_DIMENSION", 384),
			Timeout:      getDurationEnv("EMBEDDING_TIMEOUT", 30*time.Second),
			MaxBatchSize: getIntEnv("EMBEDDING_MAX_BATCH", 64),
		},
		LLM: LLMConfig{
			DefaultProvider: getEnv("LLM_PROVIDER", "groq"),
			DefaultTimeout:  getDurationEnv("LLM_TIMEOUT", 60*time.Second),
			MaxRetries:      getIntEnv("LLM_MAX_RETRIES", 3),
			Providers:       loadProviders(),
		},
		RAG: RAGConfig{
			QACollection:     getEnv("QA_COLLECTION_NAME", "legal_qa"),
			DocCollection:    getEnv("DOC_COLLECTION_NAME", "legal_doc"),
			QATopK:           getIntEnv("RAG_QA_TOP_K", 3),
			DocTopK:          getIntEnv("RAG_DOC_TOP_K", 6),
			TopK:             getIntEnv("RAG_TOP_K", 6),
			MaxContextLength: getIntEnv("RAG_MAX_CONTEXT_LENGTH", 8000),
			KeywordTopK:      getIntEnv("RAG_KEYWORD_TOP_K", 10),
			CacheTTL:         getDurationEnv("RAG_CACHE_TTL", 1800*time.Second),
			PromptPath:       getEnv("PROMPT_CONFIG_PATH", "config/prompts.yaml"),
			CitationPattern:  getEnv("RAG_CITATION_PATTERN", `\[Mã tài liệu:\s*[\w-]+\]`),
			RerankURL:        getEnv("RERANK_URL", ""),
			RerankTimeout:    getDurationEnv("RERANK_TIMEOUT", 15*time.Second),
			EmbedTimeout:     getDurationEnv("RAG_EMBED_TIMEOUT", 30*time.Second),
			SearchTimeout:    getDurationEnv("RAG_SEARCH_TIMEOUT", 15*time.Second),
			GenerateTimeout:  getDurationEnv("RAG_GENERATE_TIMEOUT", 60*time.Second),
		},
	}

	return cfg
}

// loadProviders builds the per-vendor LLM settings from the environment.
// Only vendors with an API key (or, for ollama, a base URL) are registered.
func loadProviders() map[string]ProviderConfig {
	providers := make(map[string]ProviderConfig)

	if key := getEnv("GROQ_API_KEY", ""); key != "" {
		providers["groq"] = ProviderConfig{
			Type:        ProviderGroq,
			APIKey:      key,
			Model:       getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Temperature: getFloatEnv("GROQ_TEMPERATURE", 0.2),
			MaxTokens:   getIntEnv("GROQ_MAX_TOKENS", 2048),
		}
	}
	if key := getEnv("OPENAI_API_KEY", ""); key != "" {
		providers["openai"] = ProviderConfig{
			Type:        ProviderOpenAI,
			APIKey:      key,
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getFloatEnv("OPENAI_TEMPERATURE", 0.2),
			MaxTokens:   getIntEnv("OPENAI_MAX_TOKENS", 2048),
		}
	}
	if key := getEnv("GEMINI_API_KEY", ""); key != "" {
		providers["gemini"] = ProviderConfig{
			Type:        ProviderGemini,
			APIKey:      key,
			Model:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Temperature: getFloatEnv("GEMINI_TEMPERATURE", 0.2),
			MaxTokens:   getIntEnv("GEMINI_MAX_TOKENS", 2048),
		}
	}
	if url := getEnv("OLLAMA_BASE_URL", ""); url != "" {
		providers["ollama"] = ProviderConfig{
			Type:        ProviderOllama,
			Model:       getEnv("OLLAMA_MODEL", "llama3"),
			BaseURL:     url,
			Temperature: getFloatEnv("OLLAMA_TEMPERATURE", 0.2),
			MaxTokens:   getIntEnv("OLLAMA_MAX_TOKENS", 2048),
		}
	}

	return providers
}

// Validate reports configuration states the service cannot start from.
func (c *Config) Validate() error {
	if len(c.LLM.Providers) == 0 {
		return fmt.Errorf("no llm provider configured: set at least one of GROQ_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY or OLLAMA_BASE_URL")
	}
	if _, ok := c.LLM.Providers[c.LLM.DefaultProvider]; !ok {
		return fmt.Errorf("default llm provider %q has no configuration", c.LLM.DefaultProvider)
	}
	for name, p := range c.LLM.Providers {
		if _, err := ParseProviderType(string(p.Type)); err != nil {
			return fmt.Errorf("provider %q: %w", name, err)
		}
	}
	switch c.Embedding.Mode {
	case EmbeddingOpenAI, EmbeddingOllama, EmbeddingHTTP:
	default:
		return fmt.Errorf("unsupported embedding mode %q", c.Embedding.Mode)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}
	if c.Qdrant.Host == "" {
		return fmt.Errorf("qdrant host is required")
	}
	if c.RAG.QACollection == "" || c.RAG.DocCollection == "" {
		return fmt.Errorf("qa and doc collection names are required")
	}
	if c.RAG.MaxContextLength <= 0 {
		return fmt.Errorf("max context length must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
