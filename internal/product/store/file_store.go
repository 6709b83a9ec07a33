package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	perrors "github.com/abgdnv/gocatalog/internal/product/errors"
	"github.com/abgdnv/gocatalog/internal/product/persistence"
	"golang.org/x/sync/singleflight"
)

// Persister loads and saves the whole product collection.
type Persister interface {
	Load(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, products []Product) error
}

var _ ProductStore = (*FileStore)(nil)
var _ Persister = (*persistence.JSONFile[Product])(nil)

// FileStore implements ProductStore over an in-memory slice backed by a JSON file.
// Memory is the source of truth for reads; every mutation is written through before it becomes visible.
type FileStore struct {
	mu        sync.RWMutex
	products  []Product
	seq       Sequence
	persister Persister
	reloads   singleflight.Group
	logger    *slog.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithPersister replaces the default JSON file persister.
func WithPersister(p Persister) Option {
	return func(s *FileStore) {
		s.persister = p
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// Open creates a FileStore backed by the file at path and loads its current contents.
// A missing file yields an empty store; an unreadable or malformed file returns ErrStorageRead.
func Open(ctx context.Context, path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("catalog path is empty")
	}
	s := &FileStore{
		products: []Product{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.persister == nil {
		s.persister = persistence.NewJSONFile[Product](path)
	}
	s.logger = s.logger.With("component", "store", "path", path)

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// FindByID retrieves a product by its ID.
func (s *FileStore) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, perrors.ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}

// FindByCode retrieves a product by its code.
func (s *FileStore) FindByCode(_ context.Context, code string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.products, func(p Product) bool { return p.Code == code })
	if i < 0 {
		return nil, perrors.ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}

// FindAll retrieves all products.
func (s *FileStore) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.products), nil
}

// Create creates a new product and returns it.
func (s *FileStore) Create(ctx context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.products, func(p Product) bool { return p.Code == product.Code }) {
		return nil, &perrors.DuplicateCodeError{Code: product.Code}
	}

	product.ID = s.seq.Next()
	next := append(slices.Clone(s.products), product)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.seq.Observe(product.ID)

	return &product, nil
}

// Update applies the patch to the product with the given ID.
func (s *FileStore) Update(ctx context.Context, id int64, patch Patch) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, perrors.ErrProductNotFound
	}

	next := slices.Clone(s.products)
	next[i] = patch.apply(next[i])
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	updated := next[i]
	return &updated, nil
}

// DeleteByID deletes a product by its ID.
func (s *FileStore) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return perrors.ErrProductNotFound
	}

	next := slices.Delete(slices.Clone(s.products), i, i+1)
	return s.commit(ctx, next)
}

// Reload replaces the in-memory collection with the persisted one.
// Concurrent calls share a single read that is not bound to any one caller's context,
// so a canceled caller stops waiting without failing the others. On failure the in-memory collection is kept.
func (s *FileStore) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := s.reloads.DoChan("reload", func() (any, error) {
		return nil, s.load(loadCtx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// load reads the persisted collection and swaps it into memory.
func (s *FileStore) load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load catalog", "error", err)
		return err
	}
	if products == nil {
		products = []Product{}
	}
	for _, p := range products {
		s.seq.Observe(p.ID)
	}
	s.products = products
	s.logger.DebugContext(ctx, "Catalog loaded", "count", len(products), "last_id", s.seq.Last())
	return nil
}

// commit persists next and, only if that succeeds, makes it the in-memory collection.
// Callers must hold the write lock.
func (s *FileStore) commit(ctx context.Context, next []Product) error {
	if err := s.persister.Save(ctx, next); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save catalog", "error", err)
		return err
	}
	s.products = next
	s.logger.DebugContext(ctx, "Catalog saved", "count", len(next))
	return nil
}

// indexOf returns the position of the product with the given ID, or -1.
func (s *FileStore) indexOf(id int64) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}
