package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Litwebs/Levants-client/internal/catalog"
)

func intPtr(n int) *int { return &n }

func milkProduct() (catalog.Product, *catalog.Variant) {
	v := catalog.Variant{
		ID:            "milk-1l",
		Name:          "1 Litre",
		Price:         2.49,
		Currency:      "gbp",
		StockQuantity: intPtr(10),
	}
	p := catalog.Product{
		ID:       "farm-fresh-milk",
		Name:     "Farm Fresh Milk",
		Category: "milk",
		Variants: []catalog.Variant{v},
		Pricing:  catalog.Pricing{Min: 2.49, Max: 2.49, Currency: "gbp"},
	}
	return p, &v
}

func cheddarProduct() (catalog.Product, *catalog.Variant) {
	v := catalog.Variant{
		ID:            "cheddar-250g",
		Name:          "250g",
		Price:         6.99,
		Currency:      "gbp",
		StockQuantity: intPtr(4),
	}
	p := catalog.Product{
		ID:       "mature-cheddar",
		Name:     "Mature Cheddar",
		Category: "cheese",
		Variants: []catalog.Variant{v},
		Pricing:  catalog.Pricing{Min: 6.99, Max: 6.99, Currency: "gbp"},
	}
	return p, &v
}

func TestAddItemAppendsAndOpensDrawer(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	milk, v := milkProduct()

	store.AddItem(milk, v, 2)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, store.IsOpen())
	assert.Equal(t, 2, store.ItemCount())
}

func TestAddItemMergesSameVariantWithStockClamp(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	cheddar, v := cheddarProduct() // stock 4

	store.AddItem(cheddar, v, 3)
	store.AddItem(cheddar, v, 3)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestAddItemDistinctVariantsAreSeparateLines(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	milk, _ := milkProduct()
	small := &catalog.Variant{ID: "milk-500ml", Price: 1.49, StockQuantity: intPtr(5)}
	large := &catalog.Variant{ID: "milk-2l", Price: 3.99, StockQuantity: intPtr(5)}

	store.AddItem(milk, small, 1)
	store.AddItem(milk, large, 1)

	assert.Len(t, store.Items(), 2)
}

func TestAddItemKnownOutOfStockIsNoop(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	milk, _ := milkProduct()
	sold := &catalog.Variant{ID: "milk-1l", Price: 2.49, StockQuantity: intPtr(0)}

	notified := 0
	store.Subscribe(func() { notified++ })

	store.AddItem(milk, sold, 1)

	assert.Empty(t, store.Items())
	assert.False(t, store.IsOpen())
	assert.Zero(t, notified)
}

func TestUpdateQuantityZeroOrNegativeRemoves(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	milk, v := milkProduct()
	cheddar, cv := cheddarProduct()

	store.AddItem(milk, v, 2)
	store.AddItem(cheddar, cv, 1)

	store.UpdateQuantity(milk.ID, v.ID, 0)
	assert.Len(t, store.Items(), 1)

	store.UpdateQuantity(cheddar.ID, cv.ID, -5)
	assert.Empty(t, store.Items())
}

func TestUpdateQuantityClampsToStock(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	cheddar, v := cheddarProduct() // stock 4

	store.AddItem(cheddar, v, 1)
	store.UpdateQuantity(cheddar.ID, v.ID, 99)

	assert.Equal(t, 4, store.Items()[0].Quantity)
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	milk, v := milkProduct()
	store.AddItem(milk, v, 1)

	store.RemoveItem("no-such-product", "")

	assert.Len(t, store.Items(), 1)
}

func TestSubtotalArithmetic(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	milk, mv := milkProduct()
	cheddar, cv := cheddarProduct()

	store.AddItem(milk, mv, 2)    // 2 × £2.49
	store.AddItem(cheddar, cv, 1) // 1 × £6.99

	assert.Equal(t, "11.97", store.Subtotal().StringFixed(2))
	assert.Equal(t, "3.99", store.DeliveryFee().StringFixed(2))
	assert.Equal(t, "15.96", store.Total().StringFixed(2))
	assert.Equal(t, "13.03", store.FreeDeliveryGap().StringFixed(2))
}

func TestDeliveryFreeAboveThreshold(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	cheddar, cv := cheddarProduct()

	store.AddItem(cheddar, cv, 4) // 4 × £6.99 = £27.96

	assert.True(t, store.DeliveryFee().IsZero())
	assert.True(t, store.FreeDeliveryGap().IsZero())
	assert.Equal(t, "27.96", store.Total().StringFixed(2))
}

func TestDeliveryFeeZeroOnEmptyCart(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	assert.True(t, store.DeliveryFee().IsZero())
	assert.True(t, store.Total().IsZero())
}

func TestEveryMutationPersistsSnapshot(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, nil)
	milk, mv := milkProduct()
	cheddar, cv := cheddarProduct()

	steps := []func(){
		func() { store.AddItem(milk, mv, 2) },
		func() { store.AddItem(cheddar, cv, 1) },
		func() { store.UpdateQuantity(milk.ID, mv.ID, 5) },
		func() { store.RemoveItem(cheddar.ID, cv.ID) },
	}
	for _, step := range steps {
		step()
		persisted, err := storage.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, store.Items(), persisted)
	}
}

func TestHydrateFromStorage(t *testing.T) {
	storage := NewMemoryStorage()
	milk, mv := milkProduct()
	first := NewStore(storage, nil)
	first.AddItem(milk, mv, 3)

	second := NewStore(storage, nil)

	items := second.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "farm-fresh-milk", items[0].Product.ID)
	assert.False(t, second.IsOpen())
}

func TestClearFlushesEmptySnapshotAndClosesDrawer(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage, nil)
	milk, mv := milkProduct()
	store.AddItem(milk, mv, 2)

	store.Clear()

	assert.Empty(t, store.Items())
	assert.False(t, store.IsOpen())

	persisted, err := storage.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestNilStorageWorksInMemory(t *testing.T) {
	store := NewStore(nil, nil)
	milk, mv := milkProduct()

	store.AddItem(milk, mv, 1)

	assert.Len(t, store.Items(), 1)
	assert.Equal(t, "2.49", store.Subtotal().StringFixed(2))
}

type failingStorage struct{}

func (failingStorage) Load(ctx context.Context) ([]Item, error) {
	return nil, errors.New("storage unavailable")
}

func (failingStorage) Save(ctx context.Context, items []Item) error {
	return errors.New("storage unavailable")
}

func TestFailingStorageDegradesGracefully(t *testing.T) {
	store := NewStore(failingStorage{}, nil)
	milk, mv := milkProduct()

	store.AddItem(milk, mv, 1)

	assert.Len(t, store.Items(), 1)
}

func TestSubscribersNotifiedOnMutation(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)
	milk, mv := milkProduct()

	notified := 0
	store.Subscribe(func() { notified++ })

	store.AddItem(milk, mv, 1)
	store.Toggle()
	store.Clear()

	assert.Equal(t, 3, notified)
}

func TestDrawerVisibility(t *testing.T) {
	store := NewStore(NewMemoryStorage(), nil)

	store.Open()
	assert.True(t, store.IsOpen())
	store.Close()
	assert.False(t, store.IsOpen())
	store.Toggle()
	assert.True(t, store.IsOpen())
}
