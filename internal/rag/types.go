// Package rag implements the query-time retrieval and generation pipeline:
// embed, search the QA and document collections, reconstruct legal citation
// sources, assemble a bounded context and generate a cited answer.
package rag

import (
	"errors"
	"fmt"

	"github.com/vietlaw-ai/legalrag/internal/llm"
)

// User-visible fallback messages. Recoverable failures always surface as a
// well-formed answer carrying one of these, never as a transport error.
const (
	MsgNoRelevantData  = "Không tìm thấy dữ liệu liên quan."
	MsgGenerationError = "Đã xảy ra lỗi khi tạo câu trả lời."
	MsgEmbeddingError  = "Không thể xử lý câu hỏi vào lúc này, vui lòng thử lại sau."
)

// UnknownSource is returned when a chunk identifier cannot be parsed.
const UnknownSource = "Unknown Source"

// ErrConfiguration marks failures that cannot be absorbed into a degraded
// answer, such as no resolvable LLM provider. It is the only error kind
// Answer returns to its caller.
var ErrConfiguration = errors.New("configuration error")

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConfiguration}, args...)...)
}

// RetrievedDocument is one vector-store hit.
type RetrievedDocument struct {
	RecordID        string  `json:"record_id"`
	DocumentID      string  `json:"document_id"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	ChunkID         string  `json:"chunk_id"`
	Source          string  `json:"source,omitempty"`
	SimilarityScore float32 `json:"similarity_score"`
}

// QueryResponse is the serializable answer for one query.
type QueryResponse struct {
	QueryText    string   `json:"query_text"`
	ResponseText string   `json:"response_text"`
	Sources      []string `json:"sources"`
	Timestamp    int64    `json:"timestamp"`
}

// Options are the per-request pipeline switches.
type Options struct {
	// ProviderName overrides the default LLM provider. Unknown names fall
	// back to the default with a warning.
	ProviderName string
	// History holds prior conversation turns, oldest first. It is passed
	// to generation between the system prompt and the current question.
	History []llm.Message
	// RerankEnabled applies the reranker to retrieved documents.
	RerankEnabled bool
	// KeywordGen asks the LLM for keywords and boosts retrieval with a
	// full-text filter.
	KeywordGen bool
}

// Result is the full pipeline outcome: the response plus metadata the API
// layer and tests inspect.
type Result struct {
	Response      *QueryResponse
	RetrievedDocs []RetrievedDocument
	Keywords      []string
	RerankApplied bool
}
