// Package store persists query records so answers can be fetched later by
// query ID.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vietlaw-ai/legalrag/internal/cache"
	"github.com/vietlaw-ai/legalrag/internal/llm"
)

// Query is a persisted question/answer record.
type Query struct {
	QueryID             string        `json:"query_id"`
	QueryText           string        `json:"query_text"`
	ConversationHistory []llm.Message `json:"conversation_history,omitempty"`
	LLMProvider         string        `json:"llm_provider_name,omitempty"`
	AnswerText          string        `json:"answer_text"`
	Sources             []string      `json:"sources"`
	IsComplete          bool          `json:"is_complete"`
	// Timestamp is when the answer was produced, unix seconds.
	Timestamp int64 `json:"timestamp"`
	// CreateTime is when the query was received, unix seconds.
	CreateTime int64 `json:"create_time"`
}

// QueryStore persists query records.
type QueryStore interface {
	// Get returns the record for an ID, or (nil, nil) when it does not
	// exist.
	Get(ctx context.Context, queryID string) (*Query, error)
	// Put stores a record.
	Put(ctx context.Context, q *Query) error
	// Update rewrites the record stored under queryID.
	Update(ctx context.Context, queryID string, q *Query) error
}

const queryKeyPrefix = "query:"

// RedisStore is the Redis-backed QueryStore.
type RedisStore struct {
	redis  *cache.RedisClient
	logger *logrus.Logger
}

// NewRedisStore creates a query store on an existing Redis client.
func NewRedisStore(client *cache.RedisClient, logger *logrus.Logger) *RedisStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisStore{redis: client, logger: logger}
}

// Get returns the record for an ID, or (nil, nil) when missing.
func (s *RedisStore) Get(ctx context.Context, queryID string) (*Query, error) {
	var q Query
	err := s.redis.Get(ctx, queryKeyPrefix+queryID, &q)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load query %s: %w", queryID, err)
	}
	return &q, nil
}

// Put stores a record. Records are kept without expiration.
func (s *RedisStore) Put(ctx context.Context, q *Query) error {
	if q.QueryID == "" {
		return fmt.Errorf("query record has no ID")
	}
	if err := s.redis.Set(ctx, queryKeyPrefix+q.QueryID, q, 0); err != nil {
		return fmt.Errorf("failed to store query %s: %w", q.QueryID, err)
	}
	return nil
}

// Update rewrites the record stored under queryID. The record's own ID is
// forced to match the key.
func (s *RedisStore) Update(ctx context.Context, queryID string, q *Query) error {
	if queryID == "" {
		return fmt.Errorf("query record has no ID")
	}
	q.QueryID = queryID
	return s.Put(ctx, q)
}
