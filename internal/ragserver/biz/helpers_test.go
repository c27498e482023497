package biz_test

import (
	"context"
	"fmt"
	"sort"

	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/llm"
)

// memBackend is an in-memory VectorBackend preserving insertion order.
type memBackend struct {
	collections map[string][]store.Chunk
}

func newMemBackend() *memBackend {
	return &memBackend{collections: make(map[string][]store.Chunk)}
}

func (m *memBackend) Connected(context.Context) bool { return true }

func (m *memBackend) HasCollection(_ context.Context, name string) (bool, error) {
	_, ok := m.collections[name]
	return ok, nil
}

func (m *memBackend) ListCollections(context.Context) ([]string, error) {
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memBackend) CreateCollection(_ context.Context, name string) error {
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = []store.Chunk{}
	}
	return nil
}

func (m *memBackend) DropCollection(_ context.Context, name string) error {
	delete(m.collections, name)
	return nil
}

func (m *memBackend) Count(_ context.Context, name string) (int64, error) {
	return int64(len(m.collections[name])), nil
}

func (m *memBackend) Insert(_ context.Context, name string, chunks []store.Chunk) error {
	if _, ok := m.collections[name]; !ok {
		return fmt.Errorf("collection %s not found", name)
	}
	m.collections[name] = append(m.collections[name], chunks...)
	return nil
}

func (m *memBackend) Search(_ context.Context, name string, _ []float32, topK int) ([]store.ScoredChunk, error) {
	stored := m.collections[name]
	if len(stored) > topK {
		stored = stored[:topK]
	}
	out := make([]store.ScoredChunk, len(stored))
	for i, c := range stored {
		out[i] = store.ScoredChunk{Chunk: c, Score: 1 - float32(i)*0.05}
	}
	return out, nil
}

func (m *memBackend) DeleteByIDs(_ context.Context, name string, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept []store.Chunk
	for _, c := range m.collections[name] {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	m.collections[name] = kept
	return nil
}

func (m *memBackend) DeleteByExpr(_ context.Context, name string, expr string) error {
	docID := ""
	fmt.Sscanf(expr, "document_id == %q", &docID)
	var kept []store.Chunk
	for _, c := range m.collections[name] {
		if c.DocumentID != docID {
			kept = append(kept, c)
		}
	}
	m.collections[name] = kept
	return nil
}

// fakeEmbedder returns fixed-size deterministic vectors.
type fakeEmbedder struct {
	dim int
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		for j := range v {
			v[j] = 0.1
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

// fakeChat replays scripted replies and records every invocation.
type fakeChat struct {
	replies  []string
	err      error
	calls    int
	messages [][]llm.Message
	options  []*llm.CallOptions
}

func (f *fakeChat) Chat(_ context.Context, messages []llm.Message, opts ...llm.CallOption) (string, error) {
	f.messages = append(f.messages, messages)
	f.options = append(f.options, llm.ApplyCallOptions(opts))
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	f.calls++
	return f.replies[idx], nil
}

func (f *fakeChat) Name() string { return "fake" }
