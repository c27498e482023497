package store_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/store"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
)

// fakeBackend is an in-memory VectorBackend keyed by chunk id, so repeated
// inserts of the same id overwrite instead of duplicating.
type fakeBackend struct {
	collections map[string]map[string]store.Chunk
	countErrFor string
	connected   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		collections: make(map[string]map[string]store.Chunk),
		connected:   true,
	}
}

func (f *fakeBackend) Connected(context.Context) bool { return f.connected }

func (f *fakeBackend) HasCollection(_ context.Context, name string) (bool, error) {
	_, ok := f.collections[name]
	return ok, nil
}

func (f *fakeBackend) ListCollections(context.Context) ([]string, error) {
	names := make([]string, 0, len(f.collections))
	for name := range f.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeBackend) CreateCollection(_ context.Context, name string) error {
	if _, ok := f.collections[name]; !ok {
		f.collections[name] = make(map[string]store.Chunk)
	}
	return nil
}

func (f *fakeBackend) DropCollection(_ context.Context, name string) error {
	delete(f.collections, name)
	return nil
}

func (f *fakeBackend) Count(_ context.Context, name string) (int64, error) {
	if name == f.countErrFor {
		return 0, fmt.Errorf("stats unavailable")
	}
	return int64(len(f.collections[name])), nil
}

func (f *fakeBackend) Insert(_ context.Context, name string, chunks []store.Chunk) error {
	coll, ok := f.collections[name]
	if !ok {
		return fmt.Errorf("collection %s not found", name)
	}
	for _, c := range chunks {
		coll[c.ID] = c
	}
	return nil
}

func (f *fakeBackend) Search(_ context.Context, name string, _ []float32, topK int) ([]store.ScoredChunk, error) {
	var out []store.ScoredChunk
	for _, c := range f.collections[name] {
		out = append(out, store.ScoredChunk{Chunk: c, Score: 1})
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (f *fakeBackend) DeleteByIDs(_ context.Context, name string, ids []string) error {
	coll := f.collections[name]
	for _, id := range ids {
		delete(coll, id)
	}
	return nil
}

func (f *fakeBackend) DeleteByExpr(_ context.Context, name string, expr string) error {
	// Supports the single expression shape the store emits.
	docID := strings.TrimSuffix(strings.TrimPrefix(expr, `document_id == "`), `"`)
	coll := f.collections[name]
	for id, c := range coll {
		if c.DocumentID == docID {
			delete(coll, id)
		}
	}
	return nil
}

func TestNamespaceStoreCreate(t *testing.T) {
	s := store.NewNamespaceStore(newFakeBackend())

	ns, err := s.Create(context.Background(), "project_a")
	require.NoError(t, err)
	assert.Equal(t, "project_a", ns.Name())

	_, err = s.Create(context.Background(), "project_a")
	assert.ErrorIs(t, err, errors.ErrNamespaceExists)
}

func TestNamespaceStoreCreateInvalidName(t *testing.T) {
	s := store.NewNamespaceStore(newFakeBackend())

	for _, name := range []string{"", "9starts_with_digit", "has space", "has-dash", strings.Repeat("a", 101)} {
		_, err := s.Create(context.Background(), name)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument, "name %q", name)
	}
}

func TestNamespaceStoreGet(t *testing.T) {
	s := store.NewNamespaceStore(newFakeBackend())

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.ErrNamespaceNotFound)

	created, err := s.Create(context.Background(), "docs")
	require.NoError(t, err)

	got, err := s.Get(context.Background(), "docs")
	require.NoError(t, err)
	assert.Same(t, created, got)
}

func TestNamespaceStoreList(t *testing.T) {
	backend := newFakeBackend()
	s := store.NewNamespaceStore(backend)

	nsA, err := s.Create(context.Background(), "alpha")
	require.NoError(t, err)
	_, err = s.Create(context.Background(), "beta")
	require.NoError(t, err)

	_, err = nsA.AddChunks(context.Background(), []store.Chunk{
		{ID: "c1", DocumentID: "d1"},
		{ID: "c2", DocumentID: "d1"},
	})
	require.NoError(t, err)

	infos, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.EqualValues(t, 2, infos[0].DocumentCount)
	assert.Equal(t, "beta", infos[1].Name)
	assert.EqualValues(t, 0, infos[1].DocumentCount)
}

func TestNamespaceStoreListCountFailureDegrades(t *testing.T) {
	backend := newFakeBackend()
	s := store.NewNamespaceStore(backend)

	ns, err := s.Create(context.Background(), "alpha")
	require.NoError(t, err)
	_, err = ns.AddChunks(context.Background(), []store.Chunk{{ID: "c1"}})
	require.NoError(t, err)

	backend.countErrFor = "alpha"

	infos, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.EqualValues(t, 0, infos[0].DocumentCount)
}

func TestNamespaceStoreDelete(t *testing.T) {
	s := store.NewNamespaceStore(newFakeBackend())

	err := s.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.ErrNamespaceNotFound)

	_, err = s.Create(context.Background(), "gone")
	require.NoError(t, err)
	require.NoError(t, s.Delete(context.Background(), "gone"))

	_, err = s.Get(context.Background(), "gone")
	assert.ErrorIs(t, err, errors.ErrNamespaceNotFound)
}

func TestNamespaceAddChunksReturnsDelta(t *testing.T) {
	s := store.NewNamespaceStore(newFakeBackend())
	ns, err := s.Create(context.Background(), "docs")
	require.NoError(t, err)

	added, err := ns.AddChunks(context.Background(), []store.Chunk{
		{ID: "c1", DocumentID: "d1"},
		{ID: "c2", DocumentID: "d1"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, added)

	// Re-inserting an existing id overwrites, so the delta only reflects
	// genuinely new entities.
	added, err = ns.AddChunks(context.Background(), []store.Chunk{
		{ID: "c2", DocumentID: "d1"},
		{ID: "c3", DocumentID: "d1"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, added)

	added, err = ns.AddChunks(context.Background(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, added)
}

func TestNamespaceDeleteDocumentReturnsDelta(t *testing.T) {
	s := store.NewNamespaceStore(newFakeBackend())
	ns, err := s.Create(context.Background(), "docs")
	require.NoError(t, err)

	_, err = ns.AddChunks(context.Background(), []store.Chunk{
		{ID: "c1", DocumentID: "d1"},
		{ID: "c2", DocumentID: "d1"},
		{ID: "c3", DocumentID: "d2"},
	})
	require.NoError(t, err)

	deleted, err := ns.DeleteDocument(context.Background(), "d1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	// Deleting an absent document removes nothing.
	deleted, err = ns.DeleteDocument(context.Background(), "d1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, deleted)

	count, err := ns.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestNamespaceDeleteByIDs(t *testing.T) {
	s := store.NewNamespaceStore(newFakeBackend())
	ns, err := s.Create(context.Background(), "docs")
	require.NoError(t, err)

	_, err = ns.DeleteByIDs(context.Background(), nil)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = ns.AddChunks(context.Background(), []store.Chunk{
		{ID: "c1"}, {ID: "c2"},
	})
	require.NoError(t, err)

	deleted, err := ns.DeleteByIDs(context.Background(), []string{"c1", "absent"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
