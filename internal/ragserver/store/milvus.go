package store

import (
	"context"

	"github.com/ss0jung/rag-ai-chatbot/pkg/component/milvus"
)

// MilvusBackend adapts the Milvus component client to the VectorBackend
// interface.
type MilvusBackend struct {
	client *milvus.Client
}

var _ VectorBackend = (*MilvusBackend)(nil)

// NewMilvusBackend creates a VectorBackend over an established Milvus client.
func NewMilvusBackend(client *milvus.Client) *MilvusBackend {
	return &MilvusBackend{client: client}
}

func (b *MilvusBackend) Connected(ctx context.Context) bool {
	return b.client.Connected(ctx)
}

func (b *MilvusBackend) HasCollection(ctx context.Context, name string) (bool, error) {
	return b.client.HasCollection(ctx, name)
}

func (b *MilvusBackend) ListCollections(ctx context.Context) ([]string, error) {
	return b.client.ListCollections(ctx)
}

func (b *MilvusBackend) CreateCollection(ctx context.Context, name string) error {
	return b.client.CreateCollection(ctx, name)
}

func (b *MilvusBackend) DropCollection(ctx context.Context, name string) error {
	return b.client.DropCollection(ctx, name)
}

func (b *MilvusBackend) Count(ctx context.Context, name string) (int64, error) {
	return b.client.Count(ctx, name)
}

func (b *MilvusBackend) Insert(ctx context.Context, name string, chunks []Chunk) error {
	rows := make([]milvus.InsertRow, len(chunks))
	for i, c := range chunks {
		rows[i] = milvus.InsertRow{
			ChunkID:    c.ID,
			Embedding:  c.Embedding,
			DocumentID: c.DocumentID,
			Filename:   c.Filename,
			Page:       c.Page,
			Content:    c.Content,
		}
	}
	return b.client.Insert(ctx, name, rows)
}

func (b *MilvusBackend) Search(ctx context.Context, name string, vector []float32, topK int) ([]ScoredChunk, error) {
	results, err := b.client.Search(ctx, name, vector, topK)
	if err != nil {
		return nil, err
	}
	chunks := make([]ScoredChunk, len(results))
	for i, r := range results {
		chunks[i] = ScoredChunk{
			Chunk: Chunk{
				ID:         r.ChunkID,
				DocumentID: r.DocumentID,
				Filename:   r.Filename,
				Page:       r.Page,
				Content:    r.Content,
			},
			Score: r.Score,
		}
	}
	return chunks, nil
}

func (b *MilvusBackend) DeleteByIDs(ctx context.Context, name string, ids []string) error {
	return b.client.DeleteByIDs(ctx, name, ids)
}

func (b *MilvusBackend) DeleteByExpr(ctx context.Context, name string, expr string) error {
	return b.client.DeleteByExpr(ctx, name, expr)
}
