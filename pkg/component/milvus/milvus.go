// Package milvus wraps the Milvus SDK client with the collection schema
// and operations used by the AI service.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/ss0jung/rag-ai-chatbot/pkg/options/milvus"
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client.
func New(opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{client: c, opts: opts}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// Connected reports whether the backend answers a cheap call. Used by the
// health endpoint.
func (c *Client) Connected(ctx context.Context) bool {
	_, err := c.client.ListCollections(ctx, milvusclient.NewListCollectionOption())
	return err == nil
}

// Chunk column names. Every collection created by this service shares the
// same schema: a varchar primary key, the embedding vector, and the chunk
// metadata used for citation and bulk deletion.
const (
	FieldChunkID    = "chunk_id"
	FieldEmbedding  = "embedding"
	FieldDocumentID = "document_id"
	FieldFilename   = "filename"
	FieldPage       = "page"
	FieldContent    = "content"
)

// HasCollection reports whether the named collection exists.
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// ListCollections returns the names of all collections.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	names, err := c.client.ListCollections(ctx, milvusclient.NewListCollectionOption())
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// CreateCollection creates a collection with the chunk schema, builds the
// vector index and loads the collection into memory. It is a no-op when the
// collection already exists.
func (c *Client) CreateCollection(ctx context.Context, name string) error {
	exists, err := c.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	schema := entity.NewSchema().
		WithName(name).
		WithDescription("rag-ai-chatbot namespace collection").
		WithField(
			entity.NewField().
				WithName(FieldChunkID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(64).
				WithIsPrimaryKey(true),
		).
		WithField(
			entity.NewField().
				WithName(FieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(c.opts.EmbeddingDim)),
		).
		WithField(entity.NewField().WithName(FieldDocumentID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
		WithField(entity.NewField().WithName(FieldFilename).WithDataType(entity.FieldTypeVarChar).WithMaxLength(255)).
		WithField(entity.NewField().WithName(FieldPage).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldContent).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535))

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewIvfFlatIndex(entity.COSINE, 128)
	createIdxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldEmbedding, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := createIdxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}

	return c.load(ctx, name)
}

// DropCollection drops a collection.
func (c *Client) DropCollection(ctx context.Context, name string) error {
	if err := c.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(name)); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Count returns the number of entities in a collection.
func (c *Client) Count(ctx context.Context, name string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(name))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}
	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}

// InsertRow is one chunk row to insert.
type InsertRow struct {
	ChunkID    string
	Embedding  []float32
	DocumentID string
	Filename   string
	Page       int64
	Content    string
}

// Insert inserts chunk rows and flushes so subsequent counts see them.
func (c *Client) Insert(ctx context.Context, name string, rows []InsertRow) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]string, len(rows))
	embeddings := make([][]float32, len(rows))
	docIDs := make([]string, len(rows))
	filenames := make([]string, len(rows))
	pages := make([]int64, len(rows))
	contents := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ChunkID
		embeddings[i] = r.Embedding
		docIDs[i] = r.DocumentID
		filenames[i] = r.Filename
		pages[i] = r.Page
		contents[i] = r.Content
	}

	columns := []column.Column{
		column.NewColumnVarChar(FieldChunkID, ids),
		column.NewColumnFloatVector(FieldEmbedding, len(embeddings[0]), embeddings),
		column.NewColumnVarChar(FieldDocumentID, docIDs),
		column.NewColumnVarChar(FieldFilename, filenames),
		column.NewColumnInt64(FieldPage, pages),
		column.NewColumnVarChar(FieldContent, contents),
	}

	if _, err := c.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(name, columns...)); err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}

	return c.flush(ctx, name)
}

// SearchResult represents a single search result.
type SearchResult struct {
	ChunkID    string
	Score      float32
	DocumentID string
	Filename   string
	Page       int64
	Content    string
}

// Search performs a vector similarity search and returns results ordered by
// descending similarity.
func (c *Client) Search(ctx context.Context, name string, vector []float32, topK int) ([]SearchResult, error) {
	if err := c.load(ctx, name); err != nil {
		return nil, err
	}

	outputFields := []string{FieldDocumentID, FieldFilename, FieldPage, FieldContent}
	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		name,
		topK,
		[]entity.Vector{entity.FloatVector(vector)},
	).WithANNSField(FieldEmbedding).
		WithSearchParam("nprobe", "16").
		WithOutputFields(outputFields...))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	rs := results[0]
	searchResults := make([]SearchResult, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		result := SearchResult{Score: rs.Scores[i]}

		if idCol, ok := rs.IDs.(*column.ColumnVarChar); ok {
			result.ChunkID = idCol.Data()[i]
		}
		for _, field := range rs.Fields {
			switch col := field.(type) {
			case *column.ColumnVarChar:
				switch col.Name() {
				case FieldDocumentID:
					result.DocumentID = col.Data()[i]
				case FieldFilename:
					result.Filename = col.Data()[i]
				case FieldContent:
					result.Content = col.Data()[i]
				}
			case *column.ColumnInt64:
				if col.Name() == FieldPage {
					result.Page = col.Data()[i]
				}
			}
		}
		searchResults = append(searchResults, result)
	}

	return searchResults, nil
}

// DeleteByIDs deletes chunks by primary key and flushes.
func (c *Client) DeleteByIDs(ctx context.Context, name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := c.client.Delete(ctx, milvusclient.NewDeleteOption(name).WithStringIDs(FieldChunkID, ids)); err != nil {
		return fmt.Errorf("failed to delete by ids: %w", err)
	}
	return c.flush(ctx, name)
}

// DeleteByExpr deletes chunks matching a filter expression, for example
// `document_id == "xyz"`, and flushes.
func (c *Client) DeleteByExpr(ctx context.Context, name string, expr string) error {
	if _, err := c.client.Delete(ctx, milvusclient.NewDeleteOption(name).WithExpr(expr)); err != nil {
		return fmt.Errorf("failed to delete by expr: %w", err)
	}
	return c.flush(ctx, name)
}

func (c *Client) load(ctx context.Context, name string) error {
	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// flush makes recent mutations visible to stats and queries. Frequent
// flushing costs throughput but ingestion correctness here depends on
// post-operation counts.
func (c *Client) flush(ctx context.Context, name string) error {
	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(name))
	if err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush: %w", err)
	}
	return nil
}
