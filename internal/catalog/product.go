package catalog

// Product is the canonical client-side product shape. Products are
// fetched read-only from the backend and never mutated locally.
type Product struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	ThumbnailImage ImageRef   `json:"thumbnailImage"`
	GalleryImages  []ImageRef `json:"galleryImages"`
	Variants       []Variant  `json:"variants"`
	Pricing        Pricing    `json:"pricing"`
}

// Variant is a purchasable size/flavour option with its own price and
// stock. StockQuantity is a pointer because older backend records omit
// it; a nil value means stock is unknown and quantities are not clamped.
type Variant struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	Currency       string   `json:"currency"`
	StockQuantity  *int     `json:"stockQuantity,omitempty"`
	LowStock       bool     `json:"lowStock"`
	ThumbnailImage ImageRef `json:"thumbnailImage,omitempty"`
}

// InStock reports whether the variant is purchasable. Unknown stock is
// treated as in stock; the backend rejects unfulfillable orders anyway.
func (v Variant) InStock() bool {
	return v.StockQuantity == nil || *v.StockQuantity > 0
}

type Pricing struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}
