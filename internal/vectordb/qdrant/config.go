package qdrant

import (
	"fmt"
	"time"
)

// Distance is the similarity metric of a collection.
type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceEuclid Distance = "Euclid"
	DistanceDot    Distance = "Dot"
)

// Config holds connection settings for the Qdrant REST API.
type Config struct {
	Host           string        `json:"host"`
	HTTPPort       int           `json:"http_port"`
	APIKey         string        `json:"api_key,omitempty"`
	UseTLS         bool          `json:"use_tls"`
	Timeout        time.Duration `json:"timeout"`
	MaxRetries     int           `json:"max_retries"`
	RetryDelay     time.Duration `json:"retry_delay"`
	DefaultLimit   int           `json:"default_limit"`
	ScoreThreshold float32       `json:"score_threshold"`
	WithPayload    bool          `json:"with_payload"`
	WithVectors    bool          `json:"with_vectors"`
}

// DefaultConfig returns a config suitable for a local Qdrant instance.
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		HTTPPort:       6333,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		DefaultLimit:   10,
		ScoreThreshold: 0.0,
		WithPayload:    true,
		WithVectors:    false,
	}
}

// Validate checks the config for usable values.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be at least 1")
	}
	return nil
}

// GetHTTPURL builds the base URL of the REST API.
func (c *Config) GetHTTPURL() string {
	scheme := "http"
	if c.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.HTTPPort)
}

// CollectionConfig describes a collection to create.
type CollectionConfig struct {
	Name       string   `json:"name"`
	VectorSize int      `json:"vector_size"`
	Distance   Distance `json:"distance"`
}

// Validate checks the collection config.
func (cc *CollectionConfig) Validate() error {
	if cc.Name == "" {
		return fmt.Errorf("collection name is required")
	}
	if cc.VectorSize < 1 {
		return fmt.Errorf("vector_size must be at least 1")
	}
	switch cc.Distance {
	case DistanceCosine, DistanceEuclid, DistanceDot:
		return nil
	default:
		return fmt.Errorf("unsupported distance metric %q", cc.Distance)
	}
}

// SearchOptions tunes a similarity search.
type SearchOptions struct {
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	ScoreThreshold float32                `json:"score_threshold"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
	WithPayload    bool                   `json:"with_payload"`
	WithVectors    bool                   `json:"with_vectors"`
}

// DefaultSearchOptions returns payload-carrying defaults.
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		Limit:       10,
		WithPayload: true,
		WithVectors: false,
	}
}
