package catalog

import (
	"context"
	"io"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Fetcher is what the store needs from the catalog client.
type Fetcher interface {
	ListProducts(ctx context.Context, q Query) ([]Product, PaginationMeta, error)
	GetProduct(ctx context.Context, id string) (Product, error)
}

// Store holds the catalog state a page renders from: the current
// listing, pagination metadata, the product being viewed, and the
// loading/error flags. A failed fetch leaves the previous listing
// untouched.
type Store struct {
	mu      sync.Mutex
	client  Fetcher
	logger  *log.Logger
	sf      singleflight.Group
	items   []Product
	meta    PaginationMeta
	hasMeta bool
	current *Product
	loading bool
	err     string
}

func NewStore(client Fetcher, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{client: client, logger: logger}
}

func (s *Store) FetchProducts(ctx context.Context, q Query) error {
	s.setLoading()

	items, meta, err := s.client.ListProducts(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
		s.logger.Printf("fetch products: %v", err)
		return err
	}
	s.items = items
	s.meta = meta
	s.hasMeta = true
	s.err = ""
	return nil
}

// FetchProduct loads a product detail. Concurrent fetches of the same
// id collapse into one request.
func (s *Store) FetchProduct(ctx context.Context, id string) (Product, error) {
	s.setLoading()

	// The singleflight body outlives the caller that started it; run it
	// on a detached context so joiners don't inherit that caller's
	// cancellation.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(id, func() (any, error) {
		p, err := s.client.GetProduct(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		return p, nil
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
		s.logger.Printf("fetch product %s: %v", id, err)
		return Product{}, err
	}
	p := v.(Product)
	s.current = &p
	s.err = ""
	return p, nil
}

func (s *Store) ClearCurrentProduct() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *Store) setLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = ""
}

func (s *Store) Products() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Meta() (PaginationMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta, s.hasMeta
}

func (s *Store) Current() *Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
