// Package store manages namespace-scoped vector collections on top of a
// pluggable vector backend.
package store

import "context"

// Chunk is one embedded text fragment stored in a namespace.
type Chunk struct {
	ID         string
	DocumentID string
	Filename   string
	Page       int64
	Content    string
	Embedding  []float32
}

// ScoredChunk is a chunk returned from similarity search, with its score.
// Scores are cosine similarities; higher means more relevant.
type ScoredChunk struct {
	Chunk
	Score float32
}

// VectorBackend abstracts the vector index operations the namespace store
// needs. The production implementation is backed by Milvus.
type VectorBackend interface {
	// Connected reports whether the backend answers a cheap probe call.
	Connected(ctx context.Context) bool

	HasCollection(ctx context.Context, name string) (bool, error)
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string) error
	DropCollection(ctx context.Context, name string) error
	Count(ctx context.Context, name string) (int64, error)

	Insert(ctx context.Context, name string, chunks []Chunk) error
	Search(ctx context.Context, name string, vector []float32, topK int) ([]ScoredChunk, error)
	DeleteByIDs(ctx context.Context, name string, ids []string) error
	DeleteByExpr(ctx context.Context, name string, expr string) error
}
