package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu        sync.Mutex
	items     []Product
	meta      PaginationMeta
	err       error
	detail    Product
	detailErr error
	calls     atomic.Int32
	release   chan struct{}
	started   chan struct{}
}

func (f *fakeFetcher) ListProducts(ctx context.Context, q Query) ([]Product, PaginationMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, PaginationMeta{}, f.err
	}
	return f.items, f.meta, nil
}

func (f *fakeFetcher) GetProduct(ctx context.Context, id string) (Product, error) {
	if f.calls.Add(1) == 1 && f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return Product{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detailErr != nil {
		return Product{}, f.detailErr
	}
	return f.detail, nil
}

func TestFetchProductsUpdatesState(t *testing.T) {
	fetcher := &fakeFetcher{
		items: []Product{{ID: "p1"}},
		meta:  PaginationMeta{Page: 1, Total: 1, TotalPages: 1},
	}
	store := NewStore(fetcher, nil)

	require.NoError(t, store.FetchProducts(context.Background(), Query{}))

	assert.Len(t, store.Products(), 1)
	meta, ok := store.Meta()
	assert.True(t, ok)
	assert.Equal(t, 1, meta.Total)
	assert.False(t, store.Loading())
	assert.Empty(t, store.Err())
}

func TestFetchProductsFailureKeepsPriorListing(t *testing.T) {
	fetcher := &fakeFetcher{items: []Product{{ID: "p1"}, {ID: "p2"}}}
	store := NewStore(fetcher, nil)
	require.NoError(t, store.FetchProducts(context.Background(), Query{}))

	fetcher.mu.Lock()
	fetcher.err = errors.New("backend down")
	fetcher.mu.Unlock()

	err := store.FetchProducts(context.Background(), Query{})
	require.Error(t, err)

	assert.Len(t, store.Products(), 2)
	assert.Contains(t, store.Err(), "backend down")
	assert.False(t, store.Loading())
}

func TestFetchProductSetsCurrent(t *testing.T) {
	fetcher := &fakeFetcher{detail: Product{ID: "p1", Name: "Milk"}}
	store := NewStore(fetcher, nil)

	p, err := store.FetchProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Milk", p.Name)

	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, "p1", current.ID)

	store.ClearCurrentProduct()
	assert.Nil(t, store.Current())
}

func TestFetchProductDedupesConcurrentRequests(t *testing.T) {
	fetcher := &fakeFetcher{
		detail:  Product{ID: "p1"},
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	store := NewStore(fetcher, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = store.FetchProduct(context.Background(), "p1")
	}()
	<-fetcher.started

	// These join the in-flight fetch instead of starting their own.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.FetchProduct(context.Background(), "p1")
		}()
	}
	time.Sleep(50 * time.Millisecond)

	close(fetcher.release)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestFetchProductJoinerSurvivesFirstCallerCancel(t *testing.T) {
	fetcher := &fakeFetcher{
		detail:  Product{ID: "p1"},
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	store := NewStore(fetcher, nil)

	firstCtx, cancel := context.WithCancel(context.Background())
	go func() {
		_, _ = store.FetchProduct(firstCtx, "p1")
	}()
	<-fetcher.started

	type result struct {
		p   Product
		err error
	}
	joined := make(chan result, 1)
	go func() {
		p, err := store.FetchProduct(context.Background(), "p1")
		joined <- result{p, err}
	}()
	time.Sleep(50 * time.Millisecond)

	// Cancelling the caller that started the flight must not fail the
	// joiner.
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(fetcher.release)

	res := <-joined
	require.NoError(t, res.err)
	assert.Equal(t, "p1", res.p.ID)
}
