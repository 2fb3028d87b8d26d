package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Litwebs/Levants-client/internal/api"
)

type Sort string

const (
	SortNameAsc   Sort = "name_asc"
	SortNameDesc  Sort = "name_desc"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// Query filters a product listing. Zero-value fields are not forwarded.
type Query struct {
	Page     int
	PageSize int
	Category string
	MinPrice *float64
	MaxPrice *float64
	InStock  bool
	Search   string
	Sort     Sort
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", strconv.FormatFloat(*q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	if q.InStock {
		v.Set("inStock", "true")
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	return v
}

type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

// ListProducts fetches a filtered, paginated product listing.
func (c *Client) ListProducts(ctx context.Context, q Query) ([]Product, PaginationMeta, error) {
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Items []Product `json:"items"`
		} `json:"data"`
		Meta PaginationMeta `json:"meta"`
	}
	if err := c.api.Get(ctx, "/products", q.values(), &env); err != nil {
		return nil, PaginationMeta{}, fmt.Errorf("list products: %w", err)
	}

	items := env.Data.Items
	for i := range items {
		Normalize(&items[i])
	}
	if items == nil {
		items = []Product{}
	}
	return items, env.Meta, nil
}

// GetProduct fetches a single product, probing the envelope shapes the
// backend has been known to use.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	var raw json.RawMessage
	if err := c.api.Get(ctx, "/products/"+id, nil, &raw); err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	p, err := UnwrapProduct(raw)
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}
