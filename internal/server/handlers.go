package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vietlaw-ai/legalrag/internal/llm"
	"github.com/vietlaw-ai/legalrag/internal/rag"
	"github.com/vietlaw-ai/legalrag/internal/store"
)

// SubmitQueryRequest is the query submission body.
type SubmitQueryRequest struct {
	QueryText string `json:"query_text" binding:"required"`
	// ConversationHistory holds prior (role, content) turns, oldest first.
	ConversationHistory []llm.Message `json:"conversation_history"`
	LLMProvider         string        `json:"llm_provider"`
	Rerank              bool          `json:"rerank"`
	KeywordGen          bool          `json:"keyword_gen"`
}

// SubmitQueryResponse is the answer payload plus the record ID for later
// lookup.
type SubmitQueryResponse struct {
	QueryID string `json:"query_id"`
	rag.QueryResponse
	FromCache bool `json:"from_cache"`
}

// SubmitQuery answers a query.
// POST /submit_query
//
// Recoverable pipeline failures still return 200 with a well-formed answer
// carrying a fallback message; only configuration errors surface as 500.
func (s *Server) SubmitQuery(c *gin.Context) {
	var req SubmitQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query_text is required"})
		return
	}

	queryID := uuid.New().String()
	createTime := time.Now().Unix()
	log := s.logger.WithField("query_id", queryID)

	// A complete cached answer short-circuits the whole pipeline. Answers
	// that depend on conversation history are never served from or written
	// to the cache, since the fingerprint covers the query text only.
	cacheable := len(req.ConversationHistory) == 0
	if cacheable {
		var cached rag.QueryResponse
		if s.cache.Get(c.Request.Context(), req.QueryText, &cached) {
			s.metrics.CacheLookup("hit")
			log.Debug("Cache hit")
			s.persist(queryID, &req, &cached, createTime, log)
			c.JSON(http.StatusOK, SubmitQueryResponse{QueryID: queryID, QueryResponse: cached, FromCache: true})
			return
		}
		s.metrics.CacheLookup("miss")
	}

	result, err := s.orchestrator.Answer(c.Request.Context(), req.QueryText, rag.Options{
		ProviderName:  req.LLMProvider,
		History:       req.ConversationHistory,
		RerankEnabled: req.Rerank,
		KeywordGen:    req.KeywordGen,
	})
	if err != nil {
		if errors.Is(err, rag.ErrConfiguration) {
			log.WithError(err).Error("Query failed on configuration")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "service is not configured correctly"})
			return
		}
		log.WithError(err).Error("Query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	response := result.Response
	if cacheable {
		s.cache.Set(c.Request.Context(), req.QueryText, response)
	}
	s.persist(queryID, &req, response, createTime, log)

	c.JSON(http.StatusOK, SubmitQueryResponse{QueryID: queryID, QueryResponse: *response})
}

// persist writes the completed record once, detached from the request
// context so a client disconnect cannot leave half-written state.
func (s *Server) persist(queryID string, req *SubmitQueryRequest, response *rag.QueryResponse, createTime int64, log *logrus.Entry) {
	if s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(context.Background()), 5*time.Second)
	defer cancel()

	record := &store.Query{
		QueryID:             queryID,
		QueryText:           req.QueryText,
		ConversationHistory: req.ConversationHistory,
		LLMProvider:         req.LLMProvider,
		AnswerText:          response.ResponseText,
		Sources:             response.Sources,
		IsComplete:          true,
		Timestamp:           response.Timestamp,
		CreateTime:          createTime,
	}
	if err := s.store.Put(ctx, record); err != nil {
		log.WithError(err).Warn("Failed to persist query record")
	}
}

// GetQuery fetches a previously answered query.
// GET /get_query?query_id=...
func (s *Server) GetQuery(c *gin.Context) {
	queryID := c.Query("query_id")
	if queryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query_id is required"})
		return
	}
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "query storage is not available"})
		return
	}

	record, err := s.store.Get(c.Request.Context(), queryID)
	if err != nil {
		s.logger.WithError(err).WithField("query_id", queryID).Error("Query lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "query not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// Health reports capability readiness.
// GET /health
func (s *Server) Health(c *gin.Context) {
	vectordbUp := s.vectordb != nil && s.vectordb.IsConnected()

	providers := []string{}
	if s.registry != nil {
		providers = s.registry.Available()
	}

	status := "healthy"
	code := http.StatusOK
	if !vectordbUp || len(providers) == 0 {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":        status,
		"embedding":     s.embedder != nil,
		"vectordb":      vectordbUp,
		"cache_enabled": s.cache != nil && s.cache.Enabled(),
		"providers":     providers,
	})
}
