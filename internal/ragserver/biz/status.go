// Package biz implements the business logic of the AI service: document
// ingestion, retrieval and answer generation.
package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
)

// statusKeyPrefix namespaces document status keys in Redis.
const statusKeyPrefix = "rag:doc:status:"

// statusTTL bounds how long terminal status records are kept.
const statusTTL = 24 * time.Hour

// StatusStore tracks documents through the ingestion pipeline. Records are
// keyed by document id.
type StatusStore interface {
	// Set stores or replaces the record for rec.DocumentID.
	Set(ctx context.Context, rec *model.StatusRecord) error

	// Get returns the record for documentID, or ErrDocumentNotFound.
	Get(ctx context.Context, documentID string) (*model.StatusRecord, error)

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, documentID string) error
}

// MemoryStatusStore is the in-process fallback used when Redis is disabled.
// Records do not survive a restart.
type MemoryStatusStore struct {
	mu      sync.RWMutex
	records map[string]model.StatusRecord
}

var _ StatusStore = (*MemoryStatusStore)(nil)

// NewMemoryStatusStore creates an empty in-memory status store.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{records: make(map[string]model.StatusRecord)}
}

func (s *MemoryStatusStore) Set(_ context.Context, rec *model.StatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.DocumentID] = *rec
	return nil
}

func (s *MemoryStatusStore) Get(_ context.Context, documentID string) (*model.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[documentID]
	if !ok {
		return nil, errors.ErrDocumentNotFound.WithMessage("document %q not found", documentID)
	}
	return &rec, nil
}

func (s *MemoryStatusStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, documentID)
	return nil
}

// RedisStatusStore keeps status records in Redis so they survive restarts
// and are visible to every replica.
type RedisStatusStore struct {
	client *redis.Client
}

var _ StatusStore = (*RedisStatusStore)(nil)

// NewRedisStatusStore creates a status store over an established Redis client.
func NewRedisStatusStore(client *redis.Client) *RedisStatusStore {
	return &RedisStatusStore{client: client}
}

func (s *RedisStatusStore) Set(ctx context.Context, rec *model.StatusRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal status record: %w", err)
	}
	if err := s.client.Set(ctx, statusKeyPrefix+rec.DocumentID, data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to store status record: %w", err)
	}
	return nil
}

func (s *RedisStatusStore) Get(ctx context.Context, documentID string) (*model.StatusRecord, error) {
	data, err := s.client.Get(ctx, statusKeyPrefix+documentID).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrDocumentNotFound.WithMessage("document %q not found", documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load status record: %w", err)
	}

	var rec model.StatusRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStatusStore) Delete(ctx context.Context, documentID string) error {
	if err := s.client.Del(ctx, statusKeyPrefix+documentID).Err(); err != nil {
		return fmt.Errorf("failed to delete status record: %w", err)
	}
	return nil
}
