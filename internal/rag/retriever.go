package rag

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vietlaw-ai/legalrag/internal/config"
	"github.com/vietlaw-ai/legalrag/internal/vectordb/qdrant"
)

// VectorSearcher is the slice of the vector store client the retriever
// needs.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, vector []float32, opts *qdrant.SearchOptions) ([]qdrant.ScoredPoint, error)
}

// Retriever searches the QA and document-chunk collections and joins the
// hits, QA first. Store failures are absorbed: a failed collection
// contributes zero hits, it never fails the query.
type Retriever struct {
	store  VectorSearcher
	cfg    config.RAGConfig
	logger *logrus.Logger
}

// NewRetriever creates a retriever over the configured collections.
func NewRetriever(store VectorSearcher, cfg config.RAGConfig, logger *logrus.Logger) *Retriever {
	if logger == nil {
		logger = logrus.New()
	}
	return &Retriever{store: store, cfg: cfg, logger: logger}
}

// Retrieve runs the plain dual-collection search. Both collections are
// queried concurrently; results are joined QA before document chunks.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32) []RetrievedDocument {
	return r.retrieve(ctx, vector, nil)
}

// RetrieveWithKeywords runs the same dual search boosted by a full-text
// should-match filter over document content.
func (r *Retriever) RetrieveWithKeywords(ctx context.Context, vector []float32, keywords []string) []RetrievedDocument {
	if len(keywords) == 0 {
		return r.retrieve(ctx, vector, nil)
	}
	return r.retrieve(ctx, vector, keywordFilter(keywords))
}

func (r *Retriever) retrieve(ctx context.Context, vector []float32, filter map[string]interface{}) []RetrievedDocument {
	var (
		wg      sync.WaitGroup
		qaHits  []RetrievedDocument
		docHits []RetrievedDocument
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		qaHits = r.searchCollection(ctx, r.cfg.QACollection, vector, r.cfg.QATopK, filter)
	}()
	go func() {
		defer wg.Done()
		docHits = r.searchCollection(ctx, r.cfg.DocCollection, vector, r.cfg.DocTopK, filter)
	}()
	wg.Wait()

	return append(qaHits, docHits...)
}

func (r *Retriever) searchCollection(ctx context.Context, collection string, vector []float32, topK int, filter map[string]interface{}) []RetrievedDocument {
	if collection == "" {
		return nil
	}
	if topK <= 0 {
		topK = r.cfg.TopK
	}

	opts := qdrant.DefaultSearchOptions()
	opts.Limit = topK
	opts.Filter = filter

	points, err := r.store.Search(ctx, collection, vector, opts)
	if err != nil {
		r.logger.WithError(err).WithField("collection", collection).Warn("Vector search failed, treating as zero hits")
		return nil
	}

	docs := make([]RetrievedDocument, 0, len(points))
	for _, p := range points {
		docs = append(docs, docFromPoint(p))
	}
	return docs
}

// keywordFilter builds a qdrant should-clause matching any keyword in the
// content text index.
func keywordFilter(keywords []string) map[string]interface{} {
	should := make([]map[string]interface{}, 0, len(keywords))
	for _, kw := range keywords {
		should = append(should, map[string]interface{}{
			"key":   "content",
			"match": map[string]interface{}{"text": kw},
		})
	}
	return map[string]interface{}{"should": should}
}

func docFromPoint(p qdrant.ScoredPoint) RetrievedDocument {
	doc := RetrievedDocument{
		RecordID:        payloadString(p.Payload, "record_id"),
		DocumentID:      payloadString(p.Payload, "document_id"),
		Title:           payloadString(p.Payload, "title"),
		Content:         payloadString(p.Payload, "content"),
		ChunkID:         payloadString(p.Payload, "chunk_id"),
		Source:          payloadString(p.Payload, "source"),
		SimilarityScore: p.Score,
	}
	if doc.RecordID == "" {
		doc.RecordID = p.ID
	}
	return doc
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// Dedup removes documents sharing a record ID, first occurrence wins. With
// QA hits joined before document hits, a QA answer shadows its underlying
// chunk.
func Dedup(docs []RetrievedDocument) []RetrievedDocument {
	seen := make(map[string]struct{}, len(docs))
	out := make([]RetrievedDocument, 0, len(docs))
	for _, doc := range docs {
		if _, ok := seen[doc.RecordID]; ok {
			continue
		}
		seen[doc.RecordID] = struct{}{}
		out = append(out, doc)
	}
	return out
}
