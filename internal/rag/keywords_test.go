package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietlaw-ai/legalrag/internal/llm"
)

type scriptedProvider struct {
	name    string
	replies []string
	errs    []error
	calls   int
	// requests records every Chat invocation for assertions.
	requests []*llm.Request
}

func (s *scriptedProvider) Name() string {
	if s.name == "" {
		return "scripted"
	}
	return s.name
}

func (s *scriptedProvider) Chat(ctx context.Context, req *llm.Request) (string, error) {
	s.requests = append(s.requests, req)
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", fmt.Errorf("no scripted reply for call %d", i)
}

func (s *scriptedProvider) HealthCheck(ctx context.Context) error { return nil }

func TestExtractKeywordsJSONArray(t *testing.T) {
	p := &scriptedProvider{replies: []string{`["thành lập doanh nghiệp", "vốn điều lệ"]`}}

	keywords := ExtractKeywords(context.Background(), p, testPrompts(), "câu hỏi", 10, quietLogger())
	assert.Equal(t, []string{"thành lập doanh nghiệp", "vốn điều lệ"}, keywords)
}

func TestExtractKeywordsJSONWithProse(t *testing.T) {
	p := &scriptedProvider{replies: []string{"Các từ khóa là:\n[\"giấy phép\", \"đăng ký\"]\nHết."}}

	keywords := ExtractKeywords(context.Background(), p, testPrompts(), "câu hỏi", 10, quietLogger())
	assert.Equal(t, []string{"giấy phép", "đăng ký"}, keywords)
}

func TestExtractKeywordsCommaFallback(t *testing.T) {
	p := &scriptedProvider{replies: []string{"giấy phép, đăng ký kinh doanh\nthuế"}}

	keywords := ExtractKeywords(context.Background(), p, testPrompts(), "câu hỏi", 10, quietLogger())
	assert.Equal(t, []string{"giấy phép", "đăng ký kinh doanh", "thuế"}, keywords)
}

func TestExtractKeywordsLimit(t *testing.T) {
	p := &scriptedProvider{replies: []string{`["a", "b", "c", "d"]`}}

	keywords := ExtractKeywords(context.Background(), p, testPrompts(), "câu hỏi", 2, quietLogger())
	assert.Equal(t, []string{"a", "b"}, keywords)
}

func TestExtractKeywordsProviderFailure(t *testing.T) {
	p := &scriptedProvider{errs: []error{fmt.Errorf("rate limited")}}

	keywords := ExtractKeywords(context.Background(), p, testPrompts(), "câu hỏi", 10, quietLogger())
	assert.Empty(t, keywords)
}

func TestExtractKeywordsNilProvider(t *testing.T) {
	assert.Empty(t, ExtractKeywords(context.Background(), nil, testPrompts(), "câu hỏi", 10, quietLogger()))
}

func TestParaphraseRewrites(t *testing.T) {
	p := &scriptedProvider{replies: []string{"Điều kiện pháp lý để thành lập doanh nghiệp là gì?"}}

	out := Paraphrase(context.Background(), p, testPrompts(), "mở công ty cần gì", quietLogger())
	assert.Equal(t, "Điều kiện pháp lý để thành lập doanh nghiệp là gì?", out)

	require.Len(t, p.requests, 1)
	assert.Contains(t, p.requests[0].Messages[0].Content, "mở công ty cần gì")
}

func TestParaphraseIdenticalResultSkipsRetry(t *testing.T) {
	p := &scriptedProvider{replies: []string{"  mở công ty cần gì  "}}

	out := Paraphrase(context.Background(), p, testPrompts(), "mở công ty cần gì", quietLogger())
	assert.Empty(t, out)
}

func TestParaphraseProviderFailure(t *testing.T) {
	p := &scriptedProvider{errs: []error{fmt.Errorf("timeout")}}

	out := Paraphrase(context.Background(), p, testPrompts(), "câu hỏi", quietLogger())
	assert.Empty(t, out)
}
