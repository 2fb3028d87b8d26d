package cart

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Litwebs/Levants-client/internal/catalog"
)

// Delivery is free from £25; below that a flat fee applies.
var (
	freeDeliveryThreshold = decimal.NewFromInt(25)
	standardDeliveryFee   = decimal.NewFromFloat(3.99)
)

const saveTimeout = time.Second

// Store is the single source of truth for the cart: an ordered item
// list plus the drawer-open flag. Every item mutation is flushed to
// storage before it is visible to subscribers; a nil or failing storage
// degrades to in-memory state for the session.
type Store struct {
	mu      sync.Mutex
	storage Storage
	logger  *log.Logger
	items   []Item
	isOpen  bool
	subs    []func()
}

func NewStore(storage Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Store{storage: storage, logger: logger}
	s.hydrate()
	return s
}

// hydrate restores a previous snapshot. Corrupt or missing snapshots
// never fail startup.
func (s *Store) hydrate() {
	if s.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	items, err := s.storage.Load(ctx)
	if err != nil {
		if err != ErrNotFound {
			s.logger.Printf("failed to load cart from storage: %v", err)
		}
		return
	}
	s.items = items
}

// Subscribe registers a callback invoked after every committed state
// change. Callbacks run outside the store lock.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// AddItem merges into an existing line with the same product/variant
// identity or appends a new one, clamping to known stock, and opens the
// drawer. Adding a known out-of-stock variant is a no-op.
func (s *Store) AddItem(p catalog.Product, v *catalog.Variant, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	key := itemKey(p.ID, variantID(v))
	stock, stockKnown := maxStock(p, v)

	merged := false
	for i := range s.items {
		if s.items[i].Key() != key {
			continue
		}
		next := s.items[i].Quantity + quantity
		if stockKnown && next > stock {
			next = stock
		}
		s.items[i].Quantity = next
		merged = true
		break
	}

	if !merged {
		if stockKnown && stock <= 0 {
			s.mu.Unlock()
			return
		}
		if stockKnown && quantity > stock {
			quantity = stock
		}
		s.items = append(s.items, Item{Product: p, Variant: v, Quantity: quantity})
	}

	s.isOpen = true
	s.saveLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) RemoveItem(productID, variantID string) {
	key := itemKey(productID, variantID)

	s.mu.Lock()
	kept := s.items[:0]
	for _, it := range s.items {
		if it.Key() != key {
			kept = append(kept, it)
		}
	}
	changed := len(kept) != len(s.items)
	s.items = kept
	if changed {
		s.saveLocked()
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// UpdateQuantity sets a line's quantity, clamped to known stock.
// Zero or negative removes the line.
func (s *Store) UpdateQuantity(productID, variantID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID, variantID)
		return
	}
	key := itemKey(productID, variantID)

	s.mu.Lock()
	changed := false
	for i := range s.items {
		if s.items[i].Key() != key {
			continue
		}
		if stock, known := maxStock(s.items[i].Product, s.items[i].Variant); known && quantity > stock {
			quantity = stock
		}
		s.items[i].Quantity = quantity
		changed = true
		break
	}
	if changed {
		s.saveLocked()
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Clear empties the cart and closes the drawer. The empty snapshot is
// flushed synchronously: callers navigate away right after ordering.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.isOpen = false
	s.saveLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Store) Open() {
	s.setOpen(true)
}

func (s *Store) Close() {
	s.setOpen(false)
}

func (s *Store) Toggle() {
	s.mu.Lock()
	s.isOpen = !s.isOpen
	s.mu.Unlock()
	s.notify()
}

func (s *Store) setOpen(open bool) {
	s.mu.Lock()
	s.isOpen = open
	s.mu.Unlock()
	s.notify()
}

func (s *Store) saveLocked() {
	if s.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.storage.Save(ctx, s.items); err != nil {
		s.logger.Printf("failed to persist cart: %v", err)
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Subtotal is Σ unit price × quantity over all lines.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// DeliveryFee is £3.99, waived for empty carts and from the
// free-delivery threshold.
func (s *Store) DeliveryFee() decimal.Decimal {
	sub := s.Subtotal()
	if sub.IsZero() || sub.GreaterThanOrEqual(freeDeliveryThreshold) {
		return decimal.Zero
	}
	return standardDeliveryFee
}

func (s *Store) Total() decimal.Decimal {
	return s.Subtotal().Add(s.DeliveryFee())
}

// FreeDeliveryGap is how much more spend earns free delivery; zero when
// delivery is already free.
func (s *Store) FreeDeliveryGap() decimal.Decimal {
	sub := s.Subtotal()
	if sub.IsZero() || sub.GreaterThanOrEqual(freeDeliveryThreshold) {
		return decimal.Zero
	}
	return freeDeliveryThreshold.Sub(sub)
}

func variantID(v *catalog.Variant) string {
	if v == nil {
		return ""
	}
	return v.ID
}
