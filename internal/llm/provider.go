// Package llm defines the LLM provider interface and the registry that
// resolves per-request provider overrides against a configured default.
package llm

import (
	"context"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries what a provider needs to generate a completion.
// Temperature and MaxTokens of zero mean "use the provider's configured
// defaults".
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Provider is a chat completion backend.
type Provider interface {
	// Name returns the provider name used for lookup and logging.
	Name() string
	// Chat generates a completion for the given messages.
	Chat(ctx context.Context, req *Request) (string, error)
	// HealthCheck verifies the provider is reachable.
	HealthCheck(ctx context.Context) error
}

// SystemUser builds the common two-message request shape.
func SystemUser(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}
