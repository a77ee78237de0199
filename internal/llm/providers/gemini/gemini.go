// Package gemini implements the llm.Provider interface for the Google
// Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietlaw-ai/legalrag/internal/config"
	"github.com/vietlaw-ai/legalrag/internal/llm"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
)

// Provider implements llm.Provider for Gemini.
type Provider struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	retryConfig llm.RetryConfig
}

// Request structures (Gemini native format)
type Request struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type Response struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// NewProvider creates a Gemini provider from its config entry.
func NewProvider(cfg config.ProviderConfig, timeout time.Duration, retry llm.RetryConfig) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Provider{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: timeout},
		retryConfig: retry,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return "gemini" }

// convertMessages maps chat messages onto Gemini's contents, pulling system
// turns into the systemInstruction field. Gemini uses "model" where the
// chat API uses "assistant".
func convertMessages(messages []llm.Message) ([]Content, *Content) {
	var contents []Content
	var system *Content

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			if system == nil {
				system = &Content{Parts: []Part{{Text: m.Content}}}
			} else {
				system.Parts = append(system.Parts, Part{Text: m.Content})
			}
		case llm.RoleAssistant:
			contents = append(contents, Content{Role: "model", Parts: []Part{{Text: m.Content}}})
		default:
			contents = append(contents, Content{Role: "user", Parts: []Part{{Text: m.Content}}})
		}
	}
	return contents, system
}

// Chat sends a generateContent request.
func (p *Provider) Chat(ctx context.Context, req *llm.Request) (string, error) {
	contents, system := convertMessages(req.Messages)

	apiReq := Request{
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig: &GenerationConfig{
			Temperature:     p.temperature,
			MaxOutputTokens: p.maxTokens,
		},
	}
	if req.Temperature > 0 {
		apiReq.GenerationConfig.Temperature = req.Temperature
	}
	if req.MaxTokens > 0 {
		apiReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}

	jsonBody, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	resp, err := llm.ExecuteWithRetry(ctx, p.retryConfig, func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", p.apiKey)
		return p.httpClient.Do(httpReq)
	})
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error: %d - %s", resp.StatusCode, string(body))
	}

	var apiResp Response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini returned no candidates")
	}
	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}

// HealthCheck verifies the API is reachable.
func (p *Provider) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/models/%s", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Gemini health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Gemini health check returned status %d", resp.StatusCode)
	}
	return nil
}
