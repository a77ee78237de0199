package rag

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietlaw-ai/legalrag/internal/config"
	"github.com/vietlaw-ai/legalrag/internal/vectordb/qdrant"
)

// fakeSearcher returns canned hits per collection and records the options
// it was called with. The retriever searches collections from concurrent
// goroutines, so access is locked.
type fakeSearcher struct {
	mu      sync.Mutex
	hits    map[string][]qdrant.ScoredPoint
	errors  map[string]error
	lastOpt map[string]*qdrant.SearchOptions
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		hits:    make(map[string][]qdrant.ScoredPoint),
		errors:  make(map[string]error),
		lastOpt: make(map[string]*qdrant.SearchOptions),
	}
}

func (f *fakeSearcher) Search(ctx context.Context, collection string, vector []float32, opts *qdrant.SearchOptions) ([]qdrant.ScoredPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpt[collection] = opts
	if err := f.errors[collection]; err != nil {
		return nil, err
	}
	return f.hits[collection], nil
}

func (f *fakeSearcher) options(collection string) *qdrant.SearchOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOpt[collection]
}

func point(recordID, content string, score float32) qdrant.ScoredPoint {
	return qdrant.ScoredPoint{
		ID:    recordID,
		Score: score,
		Payload: map[string]interface{}{
			"record_id": recordID,
			"content":   content,
		},
	}
}

func testRAGConfig() config.RAGConfig {
	return config.RAGConfig{
		QACollection:  "legal_qa",
		DocCollection: "legal_doc",
		QATopK:        3,
		DocTopK:       6,
		TopK:          6,
	}
}

func TestRetrieveJoinsQABeforeDoc(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.hits["legal_qa"] = []qdrant.ScoredPoint{point("QA_1", "a", 0.9)}
	searcher.hits["legal_doc"] = []qdrant.ScoredPoint{point("DOC_1", "b", 0.95), point("DOC_2", "c", 0.8)}

	r := NewRetriever(searcher, testRAGConfig(), quietLogger())
	docs := r.Retrieve(context.Background(), []float32{0.1})

	require.Len(t, docs, 3)
	assert.Equal(t, "QA_1", docs[0].RecordID)
	assert.Equal(t, "DOC_1", docs[1].RecordID)
	assert.Equal(t, "DOC_2", docs[2].RecordID)
}

func TestRetrieveUsesConfiguredTopK(t *testing.T) {
	searcher := newFakeSearcher()
	r := NewRetriever(searcher, testRAGConfig(), quietLogger())
	r.Retrieve(context.Background(), []float32{0.1})

	require.NotNil(t, searcher.options("legal_qa"))
	assert.Equal(t, 3, searcher.options("legal_qa").Limit)
	assert.Equal(t, 6, searcher.options("legal_doc").Limit)
}

func TestRetrieveCollectionFailureIsZeroHits(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.errors["legal_qa"] = fmt.Errorf("connection refused")
	searcher.hits["legal_doc"] = []qdrant.ScoredPoint{point("DOC_1", "b", 0.9)}

	r := NewRetriever(searcher, testRAGConfig(), quietLogger())
	docs := r.Retrieve(context.Background(), []float32{0.1})

	require.Len(t, docs, 1)
	assert.Equal(t, "DOC_1", docs[0].RecordID)
}

func TestRetrieveWithKeywordsBuildsFilter(t *testing.T) {
	searcher := newFakeSearcher()
	r := NewRetriever(searcher, testRAGConfig(), quietLogger())

	r.RetrieveWithKeywords(context.Background(), []float32{0.1}, []string{"doanh nghiệp", "vốn"})

	opts := searcher.options("legal_doc")
	require.NotNil(t, opts)
	require.NotNil(t, opts.Filter)

	should, ok := opts.Filter["should"].([]map[string]interface{})
	require.True(t, ok)
	assert.Len(t, should, 2)
	assert.Equal(t, "content", should[0]["key"])
}

func TestRetrieveWithNoKeywordsFallsBackToPlain(t *testing.T) {
	searcher := newFakeSearcher()
	r := NewRetriever(searcher, testRAGConfig(), quietLogger())

	r.RetrieveWithKeywords(context.Background(), []float32{0.1}, nil)
	assert.Nil(t, searcher.options("legal_qa").Filter)
}

func TestDedupFirstWins(t *testing.T) {
	docs := []RetrievedDocument{
		{RecordID: "QA_1", Content: "qa"},
		{RecordID: "DOC_1", Content: "doc"},
		{RecordID: "QA_1", Content: "duplicate"},
	}

	out := Dedup(docs)
	require.Len(t, out, 2)
	assert.Equal(t, "qa", out[0].Content)
	assert.Equal(t, "DOC_1", out[1].RecordID)

	seen := map[string]bool{}
	for _, d := range out {
		assert.False(t, seen[d.RecordID])
		seen[d.RecordID] = true
	}
}

func TestDocFromPointFallsBackToPointID(t *testing.T) {
	p := qdrant.ScoredPoint{ID: "raw-uuid", Score: 0.5, Payload: map[string]interface{}{"content": "x"}}
	doc := docFromPoint(p)
	assert.Equal(t, "raw-uuid", doc.RecordID)
	assert.Equal(t, "x", doc.Content)
}
