package rag

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vietlaw-ai/legalrag/internal/llm"
	"github.com/vietlaw-ai/legalrag/internal/prompt"
)

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// ExtractKeywords asks the LLM for the query's key legal terms, capped at
// limit. Every failure (provider error, unparseable reply) returns an empty
// slice so the caller falls back to plain vector search.
func ExtractKeywords(ctx context.Context, provider llm.Provider, prompts *prompt.Prompts, query string, limit int, logger *logrus.Logger) []string {
	if provider == nil || limit <= 0 {
		return nil
	}
	if prompts == nil {
		prompts = prompt.Defaults()
	}

	reply, err := provider.Chat(ctx, &llm.Request{
		Messages: llm.SystemUser(prompts.Keyword, query),
	})
	if err != nil {
		if logger != nil {
			logger.WithError(err).Warn("Keyword extraction failed, falling back to plain search")
		}
		return nil
	}

	keywords := parseKeywords(reply)
	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords
}

// parseKeywords reads a JSON string array out of the reply, tolerating
// surrounding prose. Replies without a parseable array are split on commas
// and newlines instead.
func parseKeywords(reply string) []string {
	if m := jsonArrayRe.FindString(reply); m != "" {
		var parsed []string
		if err := json.Unmarshal([]byte(m), &parsed); err == nil {
			return cleanKeywords(parsed)
		}
	}

	return cleanKeywords(strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n'
	}))
}

func cleanKeywords(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.Trim(strings.TrimSpace(kw), `"'`)
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
