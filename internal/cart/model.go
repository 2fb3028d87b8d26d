package cart

import (
	"github.com/shopspring/decimal"

	"github.com/Litwebs/Levants-client/internal/catalog"
)

// Item is one cart line: a snapshot of the product as it was when
// added, the selected variant if any, and a quantity.
type Item struct {
	Product  catalog.Product  `json:"product"`
	Variant  *catalog.Variant `json:"variant,omitempty"`
	Quantity int              `json:"quantity"`
}

// Key is the line identity: productID, or productID:variantID so that
// two variants of the same product stay separate lines.
func (it Item) Key() string {
	if it.Variant != nil {
		return itemKey(it.Product.ID, it.Variant.ID)
	}
	return itemKey(it.Product.ID, "")
}

func itemKey(productID, variantID string) string {
	if variantID != "" {
		return productID + ":" + variantID
	}
	return productID
}

// UnitPrice is the variant price when a variant is selected, else the
// product's minimum price.
func (it Item) UnitPrice() decimal.Decimal {
	if it.Variant != nil {
		return decimal.NewFromFloat(it.Variant.Price)
	}
	return decimal.NewFromFloat(it.Product.Pricing.Min)
}

func (it Item) LineTotal() decimal.Decimal {
	return it.UnitPrice().Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Thumbnail is the image shown for the line: the variant's own image
// when it has one, else the gallery image at the variant's position on
// the product, else the product thumbnail.
func (it Item) Thumbnail() catalog.ImageRef {
	if it.Variant != nil {
		if !it.Variant.ThumbnailImage.IsZero() {
			return it.Variant.ThumbnailImage
		}
		for i, pv := range it.Product.Variants {
			if pv.ID != it.Variant.ID {
				continue
			}
			if i < len(it.Product.GalleryImages) && !it.Product.GalleryImages[i].IsZero() {
				return it.Product.GalleryImages[i]
			}
			break
		}
	}
	return it.Product.ThumbnailImage
}

// maxStock returns the known stock ceiling for a product/variant pair.
// The variant's own stockQuantity wins; otherwise the matching variant
// on the product snapshot is consulted. ok is false when stock is
// unknown, in which case quantities are not clamped.
func maxStock(p catalog.Product, v *catalog.Variant) (int, bool) {
	if v == nil {
		return 0, false
	}
	if v.StockQuantity != nil {
		return clampNonNegative(*v.StockQuantity), true
	}
	for _, pv := range p.Variants {
		if pv.ID == v.ID && pv.StockQuantity != nil {
			return clampNonNegative(*pv.StockQuantity), true
		}
	}
	return 0, false
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
