package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vietlaw-ai/legalrag/internal/config"
	"github.com/vietlaw-ai/legalrag/internal/embedding"
	"github.com/vietlaw-ai/legalrag/internal/llm"
	"github.com/vietlaw-ai/legalrag/internal/metrics"
	"github.com/vietlaw-ai/legalrag/internal/prompt"
)

// Orchestrator drives the pipeline for one query: embed, retrieve,
// optionally keyword-boost and rerank, reconstruct sources, assemble
// context, generate and validate. Every provider failure is absorbed into a
// degraded but well-formed answer; only an unresolvable provider
// configuration escapes as an error.
type Orchestrator struct {
	embedder  embedding.Provider
	retriever *Retriever
	registry  *llm.Registry
	reranker  Reranker
	prompts   *prompt.Prompts
	cfg       config.RAGConfig
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// NewOrchestrator wires the pipeline. reranker and m may be nil.
func NewOrchestrator(
	embedder embedding.Provider,
	retriever *Retriever,
	registry *llm.Registry,
	reranker Reranker,
	prompts *prompt.Prompts,
	cfg config.RAGConfig,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
	}
	if prompts == nil {
		prompts = prompt.Defaults()
	}
	return &Orchestrator{
		embedder:  embedder,
		retriever: retriever,
		registry:  registry,
		reranker:  reranker,
		prompts:   prompts,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

// Answer runs the full pipeline for a query. The returned error is always a
// configuration error; every recoverable failure yields a Result whose
// response carries a fixed fallback message instead.
func (o *Orchestrator) Answer(ctx context.Context, queryText string, opts Options) (*Result, error) {
	log := o.logger.WithField("query_text", truncateForLog(queryText))

	provider, err := o.registry.Resolve(opts.ProviderName)
	if err != nil {
		o.metrics.QueryCompleted("config_error")
		return nil, configErrorf("cannot resolve llm provider: %v", err)
	}

	// Embed. A failed or empty embedding terminates early with a soft
	// response, not an error.
	vector := o.embed(ctx, queryText, log)
	if len(vector) == 0 {
		o.metrics.QueryCompleted("embedding_error")
		return o.softResult(queryText, MsgEmbeddingError), nil
	}

	// Retrieve, with the optional keyword boost.
	result := &Result{}
	docs := o.retrieveDocs(ctx, provider, queryText, vector, opts, result)

	// Zero hits: paraphrase once, re-embed and retry.
	if len(docs) == 0 {
		docs = o.retryWithParaphrase(ctx, provider, queryText, log)
		if len(docs) == 0 {
			o.metrics.QueryCompleted("no_data")
			return o.softResult(queryText, MsgNoRelevantData), nil
		}
	}

	docs = Dedup(docs)
	o.metrics.DocumentsRetrieved(len(docs))

	for i := range docs {
		if docs[i].Source == "" {
			docs[i].Source = ReconstructSource(docs[i].ChunkID, o.logger)
		}
	}

	if opts.RerankEnabled {
		docs, result.RerankApplied = o.rerank(ctx, queryText, docs, log)
	}
	result.RetrievedDocs = docs

	assembleStart := time.Now()
	contextText, eligible := AssembleContext(docs, o.cfg.MaxContextLength, o.logger)
	o.metrics.ObserveStage("assemble", assembleStart)

	sources := make([]string, 0, len(eligible))
	for _, doc := range eligible {
		sources = append(sources, doc.RecordID)
	}

	// Generate. On failure the caller still gets the retrieved sources.
	responseText, genErr := o.generate(ctx, provider, queryText, contextText, opts.History)
	if genErr != nil {
		log.WithError(genErr).WithField("provider", provider.Name()).Error("Answer generation failed")
		o.metrics.QueryCompleted("generation_error")
		result.Response = &QueryResponse{
			QueryText:    queryText,
			ResponseText: MsgGenerationError,
			Sources:      sources,
			Timestamp:    time.Now().Unix(),
		}
		return result, nil
	}

	if !ValidateCitation(responseText, o.cfg.CitationPattern) {
		log.WithField("provider", provider.Name()).Warn("Generated answer contains no citation marker")
	}
	responseText = AppendReferences(responseText, eligible)

	o.metrics.QueryCompleted("ok")
	result.Response = &QueryResponse{
		QueryText:    queryText,
		ResponseText: responseText,
		Sources:      sources,
		Timestamp:    time.Now().Unix(),
	}
	return result, nil
}

func (o *Orchestrator) embed(ctx context.Context, text string, log *logrus.Entry) []float32 {
	start := time.Now()
	defer o.metrics.ObserveStage("embed", start)

	embedCtx, cancel := o.withTimeout(ctx, o.cfg.EmbedTimeout)
	defer cancel()

	vector, err := o.embedder.Embed(embedCtx, text)
	if err != nil {
		log.WithError(err).Error("Embedding failed")
		return nil
	}
	return vector
}

// retrieveDocs runs the keyword-boosted search when requested, with up to
// two extraction attempts, then falls back to the plain dual-collection
// search. Keyword failures never fail the request.
func (o *Orchestrator) retrieveDocs(ctx context.Context, provider llm.Provider, queryText string, vector []float32, opts Options, result *Result) []RetrievedDocument {
	start := time.Now()
	defer o.metrics.ObserveStage("retrieve", start)

	searchCtx, cancel := o.withTimeout(ctx, o.cfg.SearchTimeout)
	defer cancel()

	if opts.KeywordGen {
		for attempt := 0; attempt < 2; attempt++ {
			keywords := ExtractKeywords(ctx, provider, o.prompts, queryText, o.cfg.KeywordTopK, o.logger)
			if len(keywords) == 0 {
				continue
			}
			result.Keywords = keywords
			if docs := o.retriever.RetrieveWithKeywords(searchCtx, vector, keywords); len(docs) > 0 {
				return docs
			}
		}
		o.logger.Debug("Keyword-boosted search produced nothing, using plain vector search")
	}

	return o.retriever.Retrieve(searchCtx, vector)
}

// retryWithParaphrase is the single allowed retry on zero hits: rewrite the
// query in legal terminology, re-embed it and search again.
func (o *Orchestrator) retryWithParaphrase(ctx context.Context, provider llm.Provider, queryText string, log *logrus.Entry) []RetrievedDocument {
	rewritten := Paraphrase(ctx, provider, o.prompts, queryText, o.logger)
	if rewritten == "" {
		return nil
	}
	log.WithField("paraphrase", truncateForLog(rewritten)).Info("Zero hits, retrying retrieval with paraphrased query")

	vector := o.embed(ctx, rewritten, log)
	if len(vector) == 0 {
		return nil
	}

	searchCtx, cancel := o.withTimeout(ctx, o.cfg.SearchTimeout)
	defer cancel()
	return o.retriever.Retrieve(searchCtx, vector)
}

// rerank applies the reranker, falling back to the pre-rerank order on any
// failure. The bool reports whether reranking was actually applied.
func (o *Orchestrator) rerank(ctx context.Context, queryText string, docs []RetrievedDocument, log *logrus.Entry) ([]RetrievedDocument, bool) {
	if o.reranker == nil {
		log.Warn("Rerank requested but no reranker configured, keeping retrieval order")
		o.metrics.RerankOutcome("degraded")
		return docs, false
	}

	start := time.Now()
	defer o.metrics.ObserveStage("rerank", start)

	reranked, err := o.reranker.Rerank(ctx, queryText, mapDocsToPassages(docs))
	if err != nil {
		log.WithError(err).Warn("Rerank failed, keeping retrieval order")
		o.metrics.RerankOutcome("degraded")
		return docs, false
	}

	mapped := mapPassagesToDocs(reranked, docs, o.logger)
	if len(mapped) == 0 {
		log.Warn("Rerank returned no known records, keeping retrieval order")
		o.metrics.RerankOutcome("degraded")
		return docs, false
	}
	o.metrics.RerankOutcome("applied")
	return mapped, true
}

func (o *Orchestrator) generate(ctx context.Context, provider llm.Provider, queryText, contextText string, history []llm.Message) (string, error) {
	start := time.Now()
	defer o.metrics.ObserveStage("generate", start)

	genCtx, cancel := o.withTimeout(ctx, o.cfg.GenerateTimeout)
	defer cancel()

	userMessage := fmt.Sprintf("Câu hỏi: %s\n\nThông tin tham khảo:\n%s", queryText, contextText)
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: o.prompts.RAGSystem})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
	reply, err := provider.Chat(genCtx, &llm.Request{
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("provider %s returned an empty answer", provider.Name())
	}
	return reply, nil
}

// softResult is the terminal degraded state: a valid response with no
// sources and a fixed message.
func (o *Orchestrator) softResult(queryText, message string) *Result {
	return &Result{
		Response: &QueryResponse{
			QueryText:    queryText,
			ResponseText: message,
			Sources:      []string{},
			Timestamp:    time.Now().Unix(),
		},
	}
}

func (o *Orchestrator) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func truncateForLog(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
