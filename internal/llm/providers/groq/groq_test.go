package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietlaw-ai/legalrag/internal/config"
	"github.com/vietlaw-ai/legalrag/internal/llm"
)

func fastRetry() llm.RetryConfig {
	return llm.RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.3-70b-versatile", req.Model)
		require.Len(t, req.Messages, 2)

		_ = json.NewEncoder(w).Encode(Response{
			Choices: []Choice{{Message: llm.Message{Role: llm.RoleAssistant, Content: "Điều 12 quy định..."}}},
		})
	}))
	defer server.Close()

	p := NewProvider(config.ProviderConfig{
		Type:    config.ProviderGroq,
		APIKey:  "gsk-test",
		BaseURL: server.URL,
	}, 5*time.Second, fastRetry())

	answer, err := p.Chat(context.Background(), &llm.Request{
		Messages: llm.SystemUser("hệ thống", "câu hỏi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Điều 12 quy định...", answer)
}

func TestChatRetriesOnServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(Response{
			Choices: []Choice{{Message: llm.Message{Content: "ok"}}},
		})
	}))
	defer server.Close()

	p := NewProvider(config.ProviderConfig{BaseURL: server.URL}, 5*time.Second, fastRetry())

	answer, err := p.Chat(context.Background(), &llm.Request{Messages: llm.SystemUser("s", "u")})
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, 2, calls)
}

func TestChatNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Response{})
	}))
	defer server.Close()

	p := NewProvider(config.ProviderConfig{BaseURL: server.URL}, 5*time.Second, fastRetry())

	_, err := p.Chat(context.Background(), &llm.Request{Messages: llm.SystemUser("s", "u")})
	require.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewProvider(config.ProviderConfig{BaseURL: server.URL}, 5*time.Second, fastRetry())
	require.NoError(t, p.HealthCheck(context.Background()))
}
