package store

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/kart-io/logger"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
)

// namePattern matches collection names the vector backend accepts.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateName checks a namespace name against length and charset rules.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > 100 {
		return errors.ErrInvalidArgument.WithMessage("namespace name must be 1-100 characters, got %d", n)
	}
	if !namePattern.MatchString(name) {
		return errors.ErrInvalidArgument.WithMessage("namespace name must start with a letter or underscore and contain only letters, digits and underscores")
	}
	return nil
}

// Namespace is a live handle to one vector collection. Handles are cheap and
// cached; all operations go straight to the backend.
type Namespace struct {
	name    string
	backend VectorBackend
}

// Name returns the namespace name.
func (ns *Namespace) Name() string { return ns.name }

// Count returns the current number of chunks in the namespace.
func (ns *Namespace) Count(ctx context.Context) (int64, error) {
	return ns.backend.Count(ctx, ns.name)
}

// Search returns the topK most similar chunks for the query vector, ordered
// by descending score.
func (ns *Namespace) Search(ctx context.Context, vector []float32, topK int) ([]ScoredChunk, error) {
	return ns.backend.Search(ctx, ns.name, vector, topK)
}

// AddChunks inserts chunks and returns how many entities the insert actually
// added, measured as the count delta around the operation.
func (ns *Namespace) AddChunks(ctx context.Context, chunks []Chunk) (int64, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	before, err := ns.backend.Count(ctx, ns.name)
	if err != nil {
		return 0, err
	}
	if err := ns.backend.Insert(ctx, ns.name, chunks); err != nil {
		return 0, err
	}
	after, err := ns.backend.Count(ctx, ns.name)
	if err != nil {
		return 0, err
	}
	return after - before, nil
}

// DeleteByIDs removes chunks by id and returns the count delta.
func (ns *Namespace) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, errors.ErrInvalidArgument.WithMessage("chunk ids must not be empty")
	}
	return ns.deleteCounted(ctx, func(ctx context.Context) error {
		return ns.backend.DeleteByIDs(ctx, ns.name, ids)
	})
}

// DeleteDocument removes every chunk belonging to documentID and returns the
// count delta.
func (ns *Namespace) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	if documentID == "" {
		return 0, errors.ErrInvalidArgument.WithMessage("document id must not be empty")
	}
	expr := fmt.Sprintf(`document_id == %q`, documentID)
	return ns.deleteCounted(ctx, func(ctx context.Context) error {
		return ns.backend.DeleteByExpr(ctx, ns.name, expr)
	})
}

func (ns *Namespace) deleteCounted(ctx context.Context, del func(context.Context) error) (int64, error) {
	before, err := ns.backend.Count(ctx, ns.name)
	if err != nil {
		return 0, err
	}
	if err := del(ctx); err != nil {
		return 0, err
	}
	after, err := ns.backend.Count(ctx, ns.name)
	if err != nil {
		return 0, err
	}
	return before - after, nil
}

// NamespaceStore manages the lifecycle of namespaces and caches their
// handles.
type NamespaceStore struct {
	backend VectorBackend

	mu      sync.RWMutex
	handles map[string]*Namespace
}

// NewNamespaceStore creates a namespace store over the given backend.
func NewNamespaceStore(backend VectorBackend) *NamespaceStore {
	return &NamespaceStore{
		backend: backend,
		handles: make(map[string]*Namespace),
	}
}

// Connected reports whether the underlying backend is reachable.
func (s *NamespaceStore) Connected(ctx context.Context) bool {
	return s.backend.Connected(ctx)
}

// Exists reports whether the namespace exists in the backend.
func (s *NamespaceStore) Exists(ctx context.Context, name string) (bool, error) {
	return s.backend.HasCollection(ctx, name)
}

// Create creates a new namespace. Creating a name that already exists is an
// error; callers that want idempotency must check Exists first.
func (s *NamespaceStore) Create(ctx context.Context, name string) (*Namespace, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	exists, err := s.backend.HasCollection(ctx, name)
	if err != nil {
		return nil, errors.ErrBackend.WithCause(err)
	}
	if exists {
		return nil, errors.ErrNamespaceExists.WithMessage("namespace %q already exists", name)
	}

	if err := s.backend.CreateCollection(ctx, name); err != nil {
		return nil, errors.ErrBackend.WithCause(err)
	}
	logger.Infow("namespace created", "namespace", name)

	return s.cacheHandle(name), nil
}

// Get returns a handle to an existing namespace, creating and caching the
// handle on first use.
func (s *NamespaceStore) Get(ctx context.Context, name string) (*Namespace, error) {
	s.mu.RLock()
	ns, ok := s.handles[name]
	s.mu.RUnlock()
	if ok {
		return ns, nil
	}

	exists, err := s.backend.HasCollection(ctx, name)
	if err != nil {
		return nil, errors.ErrBackend.WithCause(err)
	}
	if !exists {
		return nil, errors.ErrNamespaceNotFound.WithMessage("namespace %q not found", name)
	}

	return s.cacheHandle(name), nil
}

// List returns every namespace with a best-effort document count. A failing
// count degrades to zero instead of failing the listing.
func (s *NamespaceStore) List(ctx context.Context) ([]model.NamespaceInfo, error) {
	names, err := s.backend.ListCollections(ctx)
	if err != nil {
		return nil, errors.ErrBackend.WithCause(err)
	}

	infos := make([]model.NamespaceInfo, 0, len(names))
	for _, name := range names {
		count, err := s.backend.Count(ctx, name)
		if err != nil {
			logger.Warnw("failed to count namespace entities", "namespace", name, "error", err)
			count = 0
		}
		infos = append(infos, model.NamespaceInfo{Name: name, DocumentCount: count})
	}
	return infos, nil
}

// Delete drops the namespace and evicts its cached handle.
func (s *NamespaceStore) Delete(ctx context.Context, name string) error {
	exists, err := s.backend.HasCollection(ctx, name)
	if err != nil {
		return errors.ErrBackend.WithCause(err)
	}
	if !exists {
		return errors.ErrNamespaceNotFound.WithMessage("namespace %q not found", name)
	}

	if err := s.backend.DropCollection(ctx, name); err != nil {
		return errors.ErrBackend.WithCause(err)
	}

	s.mu.Lock()
	delete(s.handles, name)
	s.mu.Unlock()

	logger.Infow("namespace deleted", "namespace", name)
	return nil
}

func (s *NamespaceStore) cacheHandle(name string) *Namespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns, ok := s.handles[name]; ok {
		return ns
	}
	ns := &Namespace{name: name, backend: s.backend}
	s.handles[name] = ns
	return ns
}
