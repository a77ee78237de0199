package qdrant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "localhost", config.Host)
	assert.Equal(t, 6333, config.HTTPPort)
	assert.Empty(t, config.APIKey)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 1*time.Second, config.RetryDelay)
	assert.Equal(t, 10, config.DefaultLimit)
	assert.True(t, config.WithPayload)
	assert.False(t, config.WithVectors)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:        "empty host",
			modify:      func(c *Config) { c.Host = "" },
			expectError: true,
			errorMsg:    "host is required",
		},
		{
			name:        "invalid http port",
			modify:      func(c *Config) { c.HTTPPort = 0 },
			expectError: true,
			errorMsg:    "http_port must be between 1 and 65535",
		},
		{
			name:        "invalid timeout",
			modify:      func(c *Config) { c.Timeout = 0 },
			expectError: true,
			errorMsg:    "timeout must be positive",
		},
		{
			name:        "negative max retries",
			modify:      func(c *Config) { c.MaxRetries = -1 },
			expectError: true,
			errorMsg:    "max_retries cannot be negative",
		},
		{
			name:        "invalid default limit",
			modify:      func(c *Config) { c.DefaultLimit = 0 },
			expectError: true,
			errorMsg:    "default_limit must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := config.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigGetHTTPURL(t *testing.T) {
	config := DefaultConfig()
	config.Host = "qdrant-server"
	config.HTTPPort = 6333

	assert.Equal(t, "http://qdrant-server:6333", config.GetHTTPURL())

	config.UseTLS = true
	assert.Equal(t, "https://qdrant-server:6333", config.GetHTTPURL())
}

func TestCollectionConfigValidate(t *testing.T) {
	valid := &CollectionConfig{Name: "legal_qa", VectorSize: 384, Distance: DistanceCosine}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&CollectionConfig{VectorSize: 384, Distance: DistanceCosine}).Validate())
	assert.Error(t, (&CollectionConfig{Name: "x", Distance: DistanceCosine}).Validate())
	assert.Error(t, (&CollectionConfig{Name: "x", VectorSize: 384, Distance: "Manhattan"}).Validate())
}
