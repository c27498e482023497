package biz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kart-io/logger"
	"github.com/redis/go-redis/v9"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
	"github.com/ss0jung/rag-ai-chatbot/internal/pkg/textutil"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
	"github.com/ss0jung/rag-ai-chatbot/pkg/options/rag"
)

// answerKeyPrefix namespaces cached chat answers in Redis.
const answerKeyPrefix = "rag:answer:"

// Service is the facade the HTTP handlers talk to.
type Service struct {
	namespaces *store.NamespaceStore
	status     StatusStore
	ingestor   *Ingestor
	retriever  *Retriever
	generator  *Generator
	agent      *Agent
	cache      *redis.Client
	opts       *rag.Options
}

// NewService assembles the service from its collaborators. cache may be nil
// when Redis is disabled.
func NewService(
	namespaces *store.NamespaceStore,
	status StatusStore,
	ingestor *Ingestor,
	retriever *Retriever,
	generator *Generator,
	agent *Agent,
	cache *redis.Client,
	opts *rag.Options,
) *Service {
	return &Service{
		namespaces: namespaces,
		status:     status,
		ingestor:   ingestor,
		retriever:  retriever,
		generator:  generator,
		agent:      agent,
		cache:      cache,
		opts:       opts,
	}
}

// Healthy reports whether the vector backend is reachable.
func (s *Service) Healthy(ctx context.Context) bool {
	return s.namespaces.Connected(ctx)
}

// CreateNamespace creates a new empty namespace.
func (s *Service) CreateNamespace(ctx context.Context, name string) (*model.NamespaceInfo, error) {
	ns, err := s.namespaces.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &model.NamespaceInfo{Name: ns.Name(), DocumentCount: 0}, nil
}

// ListNamespaces lists every namespace with best-effort counts.
func (s *Service) ListNamespaces(ctx context.Context) (*model.NamespaceListResponse, error) {
	infos, err := s.namespaces.List(ctx)
	if err != nil {
		return nil, err
	}
	return &model.NamespaceListResponse{Namespaces: infos, Total: len(infos)}, nil
}

// NamespaceExists reports whether the namespace exists.
func (s *Service) NamespaceExists(ctx context.Context, name string) (bool, error) {
	return s.namespaces.Exists(ctx, name)
}

// DeleteNamespace drops the namespace and everything in it.
func (s *Service) DeleteNamespace(ctx context.Context, name string) error {
	return s.namespaces.Delete(ctx, name)
}

// UploadDocument accepts a document for asynchronous ingestion into the
// namespace. The response acknowledges acceptance only; poll the status
// endpoint for the outcome.
func (s *Service) UploadDocument(ctx context.Context, namespace string, req *model.DocumentUploadRequest) (*model.DocumentUploadResponse, error) {
	ns, err := s.namespaces.Get(ctx, namespace)
	if err != nil {
		return nil, err
	}

	if err := s.ingestor.Enqueue(ctx, ns, req); err != nil {
		return nil, err
	}

	return &model.DocumentUploadResponse{
		DocumentID: req.DocumentID,
		Status:     model.StatusPending,
		Message:    "document accepted for processing",
	}, nil
}

// DocumentStatus returns the ingestion status record for documentID.
func (s *Service) DocumentStatus(ctx context.Context, documentID string) (*model.StatusRecord, error) {
	return s.status.Get(ctx, documentID)
}

// DeleteDocument removes every chunk of the document from the namespace and
// returns the removed-chunk count. The namespace itself is preserved.
func (s *Service) DeleteDocument(ctx context.Context, namespace, documentID string) (*model.DocumentDeleteResponse, error) {
	ns, err := s.namespaces.Get(ctx, namespace)
	if err != nil {
		return nil, err
	}

	deleted, err := ns.DeleteDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		if _, err := s.status.Get(ctx, documentID); err != nil {
			return nil, errors.ErrDocumentNotFound.WithMessage("document %q not found in namespace %q", documentID, namespace)
		}
	}

	if err := s.status.Delete(ctx, documentID); err != nil {
		logger.Warnw("failed to delete document status record", "document_id", documentID, "error", err)
	}

	logger.Infow("document deleted", "namespace", namespace, "document_id", documentID, "deleted_chunks", deleted)
	return &model.DocumentDeleteResponse{DocumentID: documentID, DeletedCount: deleted}, nil
}

// Chat answers a query against a namespace in simple or agent mode.
func (s *Service) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	mode := req.Mode
	if mode == "" {
		mode = model.ModeSimple
	}

	if _, err := s.namespaces.Get(ctx, req.CollectionName); err != nil {
		return nil, err
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.opts.DefaultTopK
	}
	if topK > s.opts.MaxTopK {
		topK = s.opts.MaxTopK
	}

	cacheKey, cacheable := s.answerCacheKey(req, mode, topK)
	if cacheable {
		if resp := s.cachedAnswer(ctx, cacheKey); resp != nil {
			return resp, nil
		}
	}

	var resp *model.ChatResponse
	switch mode {
	case model.ModeSimple:
		chunks, err := s.retriever.Retrieve(ctx, req.CollectionName, req.Query, topK)
		if err != nil {
			return nil, err
		}
		answer, err := s.generator.Answer(ctx, req.Query, chunks, req.History, req.Temperature)
		if err != nil {
			return nil, err
		}
		resp = &model.ChatResponse{
			Query:   req.Query,
			Answer:  answer,
			Sources: chunkSources(chunks),
		}

	case model.ModeAgent:
		answer, sources, err := s.agent.Answer(ctx, req.CollectionName, req.Query, topK, req.History, req.Temperature)
		if err != nil {
			return nil, err
		}
		resp = &model.ChatResponse{Query: req.Query, Answer: answer, Sources: sources}

	default:
		return nil, errors.ErrInvalidArgument.WithMessage("unknown chat mode %q", mode)
	}

	if cacheable {
		s.storeAnswer(ctx, cacheKey, resp)
	}
	return resp, nil
}

// chunkSources mirrors the retrieved chunks as source documents with their
// similarity scores.
func chunkSources(chunks []store.ScoredChunk) []model.SourceDocument {
	sources := make([]model.SourceDocument, len(chunks))
	for i, c := range chunks {
		sources[i] = model.SourceDocument{
			Content: c.Content,
			Score:   c.Score,
			Metadata: map[string]any{
				"document_id": c.DocumentID,
				"filename":    c.Filename,
				"page":        c.Page,
			},
		}
	}
	return sources
}

// answerCacheKey builds the cache key for a request. Only deterministic
// simple-mode requests are cacheable: no history and no explicit temperature.
func (s *Service) answerCacheKey(req *model.ChatRequest, mode model.ChatMode, topK int) (string, bool) {
	if s.cache == nil || !s.opts.CacheEnabled {
		return "", false
	}
	if mode != model.ModeSimple || len(req.History) > 0 || req.Temperature != nil {
		return "", false
	}
	key := textutil.HashString(fmt.Sprintf("%s|%s|%d", req.CollectionName, req.Query, topK))
	return answerKeyPrefix + key, true
}

func (s *Service) cachedAnswer(ctx context.Context, key string) *model.ChatResponse {
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warnw("answer cache lookup failed", "error", err)
		}
		return nil
	}

	var resp model.ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warnw("answer cache entry corrupt", "error", err)
		return nil
	}
	logger.Debugw("answer cache hit", "key", key)
	return &resp
}

func (s *Service) storeAnswer(ctx context.Context, key string, resp *model.ChatResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.opts.CacheTTL).Err(); err != nil {
		logger.Warnw("failed to store answer cache entry", "error", err)
	}
}
