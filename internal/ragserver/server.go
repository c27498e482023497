// Package ragserver assembles and runs the AI service: HTTP surface,
// vector store, ingestion workers and LLM providers.
package ragserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/redis/go-redis/v9"

	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/biz"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/handler"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/router"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/component/milvus"
	"github.com/ss0jung/rag-ai-chatbot/pkg/llm"
	httpopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/http"
	llmopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/llm"
	milvusopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/milvus"
	ragopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/rag"
	redisopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/redis"
	"github.com/ss0jung/rag-ai-chatbot/pkg/pool"

	// Register the built-in LLM providers.
	_ "github.com/ss0jung/rag-ai-chatbot/pkg/llm/ollama"
	_ "github.com/ss0jung/rag-ai-chatbot/pkg/llm/openai"
)

// Config carries the validated options the server is built from.
type Config struct {
	HTTP      *httpopts.Options
	Milvus    *milvusopts.Options
	Redis     *redisopts.Options
	Embedding *llmopts.ProviderOptions
	Chat      *llmopts.ProviderOptions
	RAG       *ragopts.Options
}

// Server is the assembled AI service.
type Server struct {
	cfg *Config

	httpServer  *http.Server
	milvus      *milvus.Client
	redisClient *redis.Client
	workers     *pool.Pool
}

// New builds the server: connects the backends, assembles the business
// service and mounts the HTTP routes.
func New(cfg *Config) (*Server, error) {
	milvusClient, err := milvus.New(cfg.Milvus)
	if err != nil {
		return nil, err
	}
	logger.Infow("connected to milvus", "address", cfg.Milvus.Address, "database", cfg.Milvus.Database)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:       cfg.Redis.Addr(),
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.Database,
			MaxRetries: cfg.Redis.MaxRetries,
			PoolSize:   cfg.Redis.PoolSize,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Infow("connected to redis", "addr", cfg.Redis.Addr(), "database", cfg.Redis.Database)
	}

	embedder, err := llm.NewEmbeddingProvider(cfg.Embedding.Provider, cfg.Embedding.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	chat, err := llm.NewChatProvider(cfg.Chat.Provider, cfg.Chat.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to create chat provider: %w", err)
	}
	logger.Infow("llm providers ready",
		"embedding", fmt.Sprintf("%s/%s", embedder.Name(), cfg.Embedding.Model),
		"chat", fmt.Sprintf("%s/%s", chat.Name(), cfg.Chat.Model))

	workers, err := pool.New("ingest", pool.IngestPoolConfig(cfg.RAG.IngestWorkers))
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest pool: %w", err)
	}

	namespaces := store.NewNamespaceStore(store.NewMilvusBackend(milvusClient))

	var status biz.StatusStore
	if redisClient != nil {
		status = biz.NewRedisStatusStore(redisClient)
	} else {
		status = biz.NewMemoryStatusStore()
	}

	retriever := biz.NewRetriever(namespaces, embedder, cfg.RAG)
	service := biz.NewService(
		namespaces,
		status,
		biz.NewIngestor(status, embedder, workers, cfg.RAG),
		retriever,
		biz.NewGenerator(chat, cfg.Chat),
		biz.NewAgent(chat, retriever, cfg.Chat, cfg.RAG.AgentMaxTurns),
		redisClient,
		cfg.RAG,
	)

	gin.SetMode(cfg.HTTP.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	router.Register(engine, handler.New(service))

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
		milvus:      milvusClient,
		redisClient: redisClient,
		workers:     workers,
	}, nil
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("http server listening", "addr", s.cfg.HTTP.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infow("shutting down", "timeout", s.cfg.HTTP.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("http shutdown failed", "error", err)
	}

	if err := s.workers.ReleaseTimeout(s.cfg.HTTP.ShutdownTimeout); err != nil {
		logger.Warnw("ingest pool release timed out", "error", err)
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			logger.Warnw("redis close failed", "error", err)
		}
	}
	if err := s.milvus.Close(shutdownCtx); err != nil {
		logger.Warnw("milvus close failed", "error", err)
	}

	logger.Infow("shutdown complete")
	return nil
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
