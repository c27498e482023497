package biz_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/biz"
	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/options/rag"
	"github.com/ss0jung/rag-ai-chatbot/pkg/pool"
)

type ingestFixture struct {
	ingestor *biz.Ingestor
	status   biz.StatusStore
	ns       *store.Namespace
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	namespaces := store.NewNamespaceStore(newMemBackend())
	ns, err := namespaces.Create(context.Background(), "docs")
	require.NoError(t, err)

	workers, err := pool.New("ingest-test", pool.IngestPoolConfig(2))
	require.NoError(t, err)
	t.Cleanup(func() { _ = workers.ReleaseTimeout(time.Second) })

	status := biz.NewMemoryStatusStore()
	return &ingestFixture{
		ingestor: biz.NewIngestor(status, &fakeEmbedder{dim: 4}, workers, rag.NewOptions()),
		status:   status,
		ns:       ns,
	}
}

func (f *ingestFixture) waitTerminal(t *testing.T, documentID string) *model.StatusRecord {
	t.Helper()
	var rec *model.StatusRecord
	require.Eventually(t, func() bool {
		got, err := f.status.Get(context.Background(), documentID)
		if err != nil || !got.Status.Terminal() {
			return false
		}
		rec = got
		return true
	}, 5*time.Second, 10*time.Millisecond)
	return rec
}

func TestIngestSmallDocument(t *testing.T) {
	f := newIngestFixture(t)

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("짧은 문서 내용입니다."), 0o644))

	req := &model.DocumentUploadRequest{DocumentID: "d1", FilePath: path, Filename: "doc.txt"}
	require.NoError(t, f.ingestor.Enqueue(context.Background(), f.ns, req))

	rec := f.waitTerminal(t, "d1")
	assert.Equal(t, model.StatusProcessed, rec.Status)
	assert.Equal(t, 1, rec.ChunksCount)
	require.NotNil(t, rec.ProcessedAt)
	assert.Equal(t, time.UTC, rec.ProcessedAt.Location())
	assert.Empty(t, rec.ErrorMessage)

	count, err := f.ns.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestIngestChunkCountDeterministic(t *testing.T) {
	paragraph := strings.Repeat("단어 ", 150)
	content := strings.Join([]string{paragraph, paragraph, paragraph, paragraph}, "\n\n")

	var counts []int
	for i := 0; i < 2; i++ {
		f := newIngestFixture(t)
		path := filepath.Join(t.TempDir(), "doc.txt")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		req := &model.DocumentUploadRequest{DocumentID: "d1", FilePath: path, Filename: "doc.txt"}
		require.NoError(t, f.ingestor.Enqueue(context.Background(), f.ns, req))

		rec := f.waitTerminal(t, "d1")
		require.Equal(t, model.StatusProcessed, rec.Status)
		assert.Greater(t, rec.ChunksCount, 1)
		counts = append(counts, rec.ChunksCount)
	}
	assert.Equal(t, counts[0], counts[1])
}

func TestIngestMissingFile(t *testing.T) {
	f := newIngestFixture(t)

	req := &model.DocumentUploadRequest{
		DocumentID: "d1",
		FilePath:   filepath.Join(t.TempDir(), "absent.txt"),
		Filename:   "absent.txt",
	}
	require.NoError(t, f.ingestor.Enqueue(context.Background(), f.ns, req))

	rec := f.waitTerminal(t, "d1")
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "file not found")
	assert.Zero(t, rec.ChunksCount)
}

func TestIngestUnsupportedFileType(t *testing.T) {
	f := newIngestFixture(t)

	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))

	req := &model.DocumentUploadRequest{DocumentID: "d1", FilePath: path, Filename: "image.png"}
	require.NoError(t, f.ingestor.Enqueue(context.Background(), f.ns, req))

	rec := f.waitTerminal(t, "d1")
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.NotEmpty(t, rec.ErrorMessage)
}

func TestIngestRecordsPendingImmediately(t *testing.T) {
	f := newIngestFixture(t)

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("내용"), 0o644))

	req := &model.DocumentUploadRequest{DocumentID: "d1", FilePath: path, Filename: "doc.txt"}
	require.NoError(t, f.ingestor.Enqueue(context.Background(), f.ns, req))

	// The record exists as soon as Enqueue returns, whatever state the
	// background worker has reached.
	rec, err := f.status.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Contains(t, []model.DocumentStatus{
		model.StatusPending, model.StatusProcessed, model.StatusFailed,
	}, rec.Status)

	f.waitTerminal(t, "d1")
}
