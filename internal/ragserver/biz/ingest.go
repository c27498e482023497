package biz

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/kart-io/logger"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
	"github.com/ss0jung/rag-ai-chatbot/internal/pkg/loader"
	"github.com/ss0jung/rag-ai-chatbot/internal/pkg/textutil"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
	"github.com/ss0jung/rag-ai-chatbot/pkg/llm"
	"github.com/ss0jung/rag-ai-chatbot/pkg/options/rag"
	"github.com/ss0jung/rag-ai-chatbot/pkg/pool"
)

// embedBatchSize bounds one embedding API call.
const embedBatchSize = 64

// Ingestor runs the background document ingestion pipeline:
// load -> chunk -> tag -> embed -> index, tracked through the status store.
type Ingestor struct {
	status   StatusStore
	embedder llm.EmbeddingProvider
	pool     *pool.Pool
	opts     *rag.Options
}

// NewIngestor creates an Ingestor.
func NewIngestor(status StatusStore, embedder llm.EmbeddingProvider, workers *pool.Pool, opts *rag.Options) *Ingestor {
	return &Ingestor{status: status, embedder: embedder, pool: workers, opts: opts}
}

// Enqueue records the document as pending and schedules its ingestion on the
// worker pool. The returned error only covers scheduling; processing errors
// land in the status record.
func (ing *Ingestor) Enqueue(ctx context.Context, ns *store.Namespace, req *model.DocumentUploadRequest) error {
	rec := &model.StatusRecord{
		DocumentID:  req.DocumentID,
		Status:      model.StatusPending,
		ChunksCount: 0,
	}
	if err := ing.status.Set(ctx, rec); err != nil {
		return errors.ErrInternal.WithMessage("failed to record document status").WithCause(err)
	}

	task := *req
	if err := ing.pool.Submit(func() { ing.process(ns, &task) }); err != nil {
		ing.fail(req.DocumentID, fmt.Sprintf("failed to schedule ingestion: %v", err))
		return errors.ErrInternal.WithMessage("failed to schedule ingestion").WithCause(err)
	}

	logger.Infow("document ingestion scheduled", "namespace", ns.Name(), "document_id", req.DocumentID, "filename", req.Filename)
	return nil
}

// process runs detached from the originating request. Every failure is
// absorbed into the status record; nothing propagates.
func (ing *Ingestor) process(ns *store.Namespace, req *model.DocumentUploadRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), ing.opts.IngestTimeout)
	defer cancel()

	start := time.Now()
	added, err := ing.run(ctx, ns, req)
	if err != nil {
		logger.Errorw("document ingestion failed",
			"namespace", ns.Name(), "document_id", req.DocumentID, "filename", req.Filename, "error", err)
		ing.fail(req.DocumentID, err.Error())
		return
	}

	now := time.Now().UTC()
	ing.setStatus(&model.StatusRecord{
		DocumentID:  req.DocumentID,
		Status:      model.StatusProcessed,
		ChunksCount: added,
		ProcessedAt: &now,
	})
	logger.Infow("document ingested",
		"namespace", ns.Name(), "document_id", req.DocumentID, "chunks", added, "elapsed", time.Since(start))
}

func (ing *Ingestor) run(ctx context.Context, ns *store.Namespace, req *model.DocumentUploadRequest) (int, error) {
	if _, err := os.Stat(req.FilePath); err != nil {
		return 0, fmt.Errorf("file not found: %s", req.FilePath)
	}

	pages, err := loader.Load(req.FilePath)
	if err != nil {
		return 0, fmt.Errorf("failed to load document: %w", err)
	}
	if len(pages) == 0 {
		return 0, fmt.Errorf("document contains no extractable text")
	}

	var chunks []store.Chunk
	for _, page := range pages {
		for _, content := range textutil.SplitText(page.Content, ing.opts.ChunkSize, ing.opts.ChunkOverlap) {
			chunks = append(chunks, store.Chunk{
				ID:         uuid.NewString(),
				DocumentID: req.DocumentID,
				Filename:   req.Filename,
				Page:       int64(page.Number),
				Content:    content,
			})
		}
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document produced no chunks")
	}

	if err := ing.embedChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	added, err := ns.AddChunks(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to index chunks: %w", err)
	}
	return int(added), nil
}

func (ing *Ingestor) embedChunks(ctx context.Context, chunks []store.Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = chunks[i].Content
		}

		vectors, err := ing.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedding count mismatch: want %d, got %d", len(texts), len(vectors))
		}
		for i := start; i < end; i++ {
			chunks[i].Embedding = vectors[i-start]
		}
	}
	return nil
}

func (ing *Ingestor) fail(documentID, message string) {
	ing.setStatus(&model.StatusRecord{
		DocumentID:   documentID,
		Status:       model.StatusFailed,
		ErrorMessage: message,
	})
}

// setStatus uses its own context so terminal states are recorded even when
// the ingestion context already expired.
func (ing *Ingestor) setStatus(rec *model.StatusRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ing.status.Set(ctx, rec); err != nil {
		logger.Errorw("failed to update document status", "document_id", rec.DocumentID, "status", rec.Status, "error", err)
	}
}
