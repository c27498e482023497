// Package rag provides RAG pipeline configuration options.
package rag

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/ss0jung/rag-ai-chatbot/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains RAG pipeline configuration.
type Options struct {
	// ChunkSize is the target size of text chunks in characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the overlap between consecutive chunks.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// DefaultTopK is the number of chunks retrieved when the request does
	// not specify top_k.
	DefaultTopK int `json:"default-top-k" mapstructure:"default-top-k"`

	// MaxTopK bounds the per-request top_k value.
	MaxTopK int `json:"max-top-k" mapstructure:"max-top-k"`

	// IngestTimeout bounds a single background ingestion task.
	IngestTimeout time.Duration `json:"ingest-timeout" mapstructure:"ingest-timeout"`

	// IngestWorkers is the capacity of the background ingestion pool.
	IngestWorkers int `json:"ingest-workers" mapstructure:"ingest-workers"`

	// AgentMaxTurns bounds the tool-calling loop in agent mode.
	AgentMaxTurns int `json:"agent-max-turns" mapstructure:"agent-max-turns"`

	// CacheEnabled enables the Redis answer cache for simple-mode chat.
	CacheEnabled bool `json:"cache-enabled" mapstructure:"cache-enabled"`

	// CacheTTL is the answer cache expiry.
	CacheTTL time.Duration `json:"cache-ttl" mapstructure:"cache-ttl"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		ChunkSize:     1000,
		ChunkOverlap:  50,
		DefaultTopK:   4,
		MaxTopK:       20,
		IngestTimeout: 10 * time.Minute,
		IngestWorkers: 8,
		AgentMaxTurns: 3,
		CacheEnabled:  false,
		CacheTTL:      time.Hour,
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.ChunkSize, options.Join(prefixes...)+"rag.chunk-size", o.ChunkSize, "Target size of text chunks.")
	fs.IntVar(&o.ChunkOverlap, options.Join(prefixes...)+"rag.chunk-overlap", o.ChunkOverlap, "Overlap between chunks.")
	fs.IntVar(&o.DefaultTopK, options.Join(prefixes...)+"rag.default-top-k", o.DefaultTopK, "Default number of retrieved chunks.")
	fs.IntVar(&o.MaxTopK, options.Join(prefixes...)+"rag.max-top-k", o.MaxTopK, "Upper bound for per-request top_k.")
	fs.DurationVar(&o.IngestTimeout, options.Join(prefixes...)+"rag.ingest-timeout", o.IngestTimeout, "Timeout for one background ingestion task.")
	fs.IntVar(&o.IngestWorkers, options.Join(prefixes...)+"rag.ingest-workers", o.IngestWorkers, "Background ingestion pool capacity.")
	fs.IntVar(&o.AgentMaxTurns, options.Join(prefixes...)+"rag.agent-max-turns", o.AgentMaxTurns, "Maximum tool-calling turns in agent mode.")
	fs.BoolVar(&o.CacheEnabled, options.Join(prefixes...)+"rag.cache-enabled", o.CacheEnabled, "Enable the Redis answer cache.")
	fs.DurationVar(&o.CacheTTL, options.Join(prefixes...)+"rag.cache-ttl", o.CacheTTL, "Answer cache expiry.")
}

// Validate validates the RAG options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk-overlap must be in [0, chunk-size)"))
	}
	if o.DefaultTopK <= 0 || o.DefaultTopK > o.MaxTopK {
		errs = append(errs, fmt.Errorf("default-top-k must be in [1, max-top-k]"))
	}
	if o.IngestWorkers <= 0 {
		errs = append(errs, fmt.Errorf("ingest-workers must be positive"))
	}
	if o.AgentMaxTurns <= 0 {
		errs = append(errs, fmt.Errorf("agent-max-turns must be positive"))
	}
	return errs
}
