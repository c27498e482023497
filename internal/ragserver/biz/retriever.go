package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
	"github.com/ss0jung/rag-ai-chatbot/pkg/llm"
	"github.com/ss0jung/rag-ai-chatbot/pkg/options/rag"
)

// Retriever embeds a query and returns the most similar chunks from a
// namespace.
type Retriever struct {
	namespaces *store.NamespaceStore
	embedder   llm.EmbeddingProvider
	opts       *rag.Options
}

// NewRetriever creates a Retriever.
func NewRetriever(namespaces *store.NamespaceStore, embedder llm.EmbeddingProvider, opts *rag.Options) *Retriever {
	return &Retriever{namespaces: namespaces, embedder: embedder, opts: opts}
}

// Retrieve returns up to topK chunks from the namespace ordered by
// descending similarity. topK <= 0 falls back to the configured default and
// values above the configured maximum are clamped.
func (r *Retriever) Retrieve(ctx context.Context, namespace, query string, topK int) ([]store.ScoredChunk, error) {
	if topK <= 0 {
		topK = r.opts.DefaultTopK
	}
	if topK > r.opts.MaxTopK {
		topK = r.opts.MaxTopK
	}

	ns, err := r.namespaces.Get(ctx, namespace)
	if err != nil {
		return nil, err
	}

	vector, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, errors.ErrBackend.WithMessage("failed to embed query").WithCause(err)
	}

	chunks, err := ns.Search(ctx, vector, topK)
	if err != nil {
		return nil, errors.ErrBackend.WithMessage("vector search failed").WithCause(err)
	}

	logger.Debugw("retrieved chunks", "namespace", namespace, "top_k", topK, "hits", len(chunks))
	return chunks, nil
}
