package product

// Sort orders accepted by List.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

var validSorts = map[string]struct{}{
	SortNewest:    {},
	SortPriceAsc:  {},
	SortPriceDesc: {},
	SortRating:    {},
}

// ListFilter describes the catalog browse knobs.
type ListFilter struct {
	CategoryID    *int64
	CategorySlug  string
	Query         string
	MinPriceCents *int64
	MaxPriceCents *int64
	Featured      bool
	OffersOnly    bool
	Sort          string
	Limit         int
	Offset        int
}

// ListResult is one page of products.
type ListResult struct {
	Products []ProductDTO `json:"products"`
	Total    int64        `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
}
