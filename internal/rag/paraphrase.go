package rag

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vietlaw-ai/legalrag/internal/llm"
	"github.com/vietlaw-ai/legalrag/internal/prompt"
)

// Paraphrase rewrites the query in formal legal terminology for the
// zero-hit retry. An empty result means the retry should be skipped.
func Paraphrase(ctx context.Context, provider llm.Provider, prompts *prompt.Prompts, query string, logger *logrus.Logger) string {
	if provider == nil {
		return ""
	}

	reply, err := provider.Chat(ctx, &llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompts.ParaphraseFor(query)}},
	})
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("Query paraphrase failed, skipping retrieval retry")
		}
		return ""
	}

	rewritten := strings.TrimSpace(reply)
	if rewritten == "" || rewritten == strings.TrimSpace(query) {
		return ""
	}
	return rewritten
}
