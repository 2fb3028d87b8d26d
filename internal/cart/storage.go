package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage persists the cart item list between sessions.
type Storage interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// ErrNotFound means no snapshot has been saved yet.
var ErrNotFound = errors.New("cart snapshot not found")

// FileStorage keeps the cart as a single JSON file, the durable
// client-storage analog for a headless storefront.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load(ctx context.Context) ([]Item, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read cart snapshot: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return items, nil
}

func (f *FileStorage) Save(ctx context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cart directory: %w", err)
		}
	}
	if err := os.WriteFile(f.path, b, 0o644); err != nil {
		return fmt.Errorf("write cart snapshot: %w", err)
	}
	return nil
}

// MemoryStorage is the in-memory fallback used when no durable storage
// is available, and in tests.
type MemoryStorage struct {
	mu    sync.Mutex
	items []Item
	saved bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(ctx context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return nil, ErrNotFound
	}
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *MemoryStorage) Save(ctx context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make([]Item, len(items))
	copy(m.items, items)
	m.saved = true
	return nil
}
