// Package options contains the flags and options for initializing the
// AI service server.
package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver"
	httpopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/http"
	llmopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/llm"
	logopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/logger"
	milvusopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/milvus"
	ragopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/rag"
	redisopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/redis"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// MilvusOptions contains vector database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// RedisOptions contains Redis configuration for document status and the
	// answer cache.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// EmbeddingOptions contains the embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains the chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// RAGOptions contains the retrieval pipeline configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		RedisOptions:     redisopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		RAGOptions:       ragopts.NewOptions(),
	}
}

// AddFlags registers every option flag on fs.
func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	o.HTTPOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.MilvusOptions.AddFlags(fs)
	o.RedisOptions.AddFlags(fs)
	o.EmbeddingOptions.AddFlags(fs, "embedding.")
	o.ChatOptions.AddFlags(fs, "chat.")
	o.RAGOptions.AddFlags(fs)
}

// Validate checks whether the options are valid.
func (o *ServerOptions) Validate() error {
	var errs []error

	errs = append(errs, o.HTTPOptions.Validate()...)
	if err := o.LogOptions.Validate(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.RedisOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)

	return errors.Join(errs...)
}

// Config builds the server config from the options.
func (o *ServerOptions) Config() *ragserver.Config {
	return &ragserver.Config{
		HTTP:      o.HTTPOptions,
		Milvus:    o.MilvusOptions,
		Redis:     o.RedisOptions,
		Embedding: o.EmbeddingOptions,
		Chat:      o.ChatOptions,
		RAG:       o.RAGOptions,
	}
}
