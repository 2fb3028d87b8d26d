package catalog

import "encoding/json"

const defaultCurrency = "gbp"

// The detail endpoint has shipped several envelope shapes over time:
// the product at the top level, under data, data.data, data.item,
// data.product, item or product. Each candidate path is tried in order
// and the first object that looks like a product wins.
var candidatePaths = [][]string{
	nil,
	{"data"},
	{"data", "data"},
	{"data", "item"},
	{"data", "product"},
	{"item"},
	{"product"},
}

func dig(m map[string]any, path []string) (map[string]any, bool) {
	cur := m
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func looksLikeProduct(m map[string]any) bool {
	if _, ok := m["id"].(string); !ok {
		return false
	}
	for _, key := range []string{"name", "variants", "category", "thumbnailImage"} {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// UnwrapProduct extracts a product from a detail-endpoint payload of
// unknown nesting. When no candidate matches it falls back to the first
// object found rather than failing, so shape regressions surface as a
// half-empty product instead of a dead page.
func UnwrapProduct(payload []byte) (Product, error) {
	var root map[string]any
	if err := json.Unmarshal(payload, &root); err != nil {
		return Product{}, err
	}

	var fallback map[string]any
	for _, path := range candidatePaths {
		c, ok := dig(root, path)
		if !ok {
			continue
		}
		if fallback == nil {
			fallback = c
		}
		if looksLikeProduct(c) {
			return productFromMap(c)
		}
	}

	if fallback == nil {
		fallback = root
	}
	return productFromMap(fallback)
}

func productFromMap(m map[string]any) (Product, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return Product{}, err
	}
	var p Product
	if err := json.Unmarshal(b, &p); err != nil {
		return Product{}, err
	}
	Normalize(&p)
	return p, nil
}

// Normalize fills the guarantees callers rely on: gallery and variant
// slices are never nil, pricing is synthesized from variant prices when
// the backend omits it, and currency falls back to a fixed default.
func Normalize(p *Product) {
	if p.GalleryImages == nil {
		p.GalleryImages = []ImageRef{}
	}
	if p.Variants == nil {
		p.Variants = []Variant{}
	}

	if p.Pricing == (Pricing{}) {
		min, max := 0.0, 0.0
		for i, v := range p.Variants {
			if i == 0 {
				min, max = v.Price, v.Price
				continue
			}
			if v.Price < min {
				min = v.Price
			}
			if v.Price > max {
				max = v.Price
			}
		}
		currency := ""
		for _, v := range p.Variants {
			if v.Currency != "" {
				currency = v.Currency
				break
			}
		}
		p.Pricing = Pricing{Min: min, Max: max, Currency: currency}
	}

	if p.Pricing.Currency == "" {
		p.Pricing.Currency = defaultCurrency
	}
}
