package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Passage is the reranker's view of a retrieved document.
type Passage struct {
	ID    string            `json:"id"`
	Text  string            `json:"text"`
	Meta  map[string]string `json:"meta,omitempty"`
	Score float32           `json:"score,omitempty"`
}

// Reranker reorders passages by relevance to the query, best first.
type Reranker interface {
	Rerank(ctx context.Context, query string, passages []Passage) ([]Passage, error)
}

// HTTPReranker calls a cross-encoder rerank service.
type HTTPReranker struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPReranker creates a reranker client. An empty URL yields nil,
// meaning reranking is unavailable.
func NewHTTPReranker(baseURL string, timeout time.Duration) *HTTPReranker {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPReranker{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type rerankRequest struct {
	Query    string    `json:"query"`
	Passages []Passage `json:"passages"`
}

type rerankResponse struct {
	Results []Passage `json:"results"`
}

// Rerank posts the query and passages to the rerank service and returns
// them reordered by descending score.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, passages []Passage) ([]Passage, error) {
	jsonBody, err := json.Marshal(rerankRequest{Query: query, Passages: passages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}
	return result.Results, nil
}

// mapDocsToPassages converts documents into the reranker's shape, keyed by
// record ID.
func mapDocsToPassages(docs []RetrievedDocument) []Passage {
	passages := make([]Passage, 0, len(docs))
	for _, doc := range docs {
		passages = append(passages, Passage{
			ID:   doc.RecordID,
			Text: doc.Content,
			Meta: map[string]string{
				"document_id": doc.DocumentID,
				"title":       doc.Title,
				"chunk_id":    doc.ChunkID,
				"source":      doc.Source,
			},
		})
	}
	return passages
}

// mapPassagesToDocs restores documents in the reranked order. A reranked ID
// absent from the original set is dropped with a warning: the reranker can
// reorder, never fabricate.
func mapPassagesToDocs(passages []Passage, original []RetrievedDocument, logger *logrus.Logger) []RetrievedDocument {
	byID := make(map[string]RetrievedDocument, len(original))
	for _, doc := range original {
		byID[doc.RecordID] = doc
	}

	out := make([]RetrievedDocument, 0, len(passages))
	for _, p := range passages {
		doc, ok := byID[p.ID]
		if !ok {
			if logger != nil {
				logger.WithField("record_id", p.ID).Warn("Reranker returned unknown record, dropping")
			}
			continue
		}
		out = append(out, doc)
	}
	return out
}
