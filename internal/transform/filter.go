package transform

import "github.com/JakeFAU/catalog-crawler/internal/catalog"

// Default selection thresholds.
const (
	DefaultMinRating       = 4
	DefaultMaxPriceExclTax = 20.0
)

// Filter keeps rows rated at least MinRating and priced (excl. tax) strictly
// below MaxPriceExclTax.
type Filter struct {
	MinRating       int
	MaxPriceExclTax float64
}

// DefaultFilter returns the filter used when nothing is configured.
func DefaultFilter() Filter {
	return Filter{MinRating: DefaultMinRating, MaxPriceExclTax: DefaultMaxPriceExclTax}
}

// Keep reports whether row belongs in the export.
func (f Filter) Keep(row catalog.NormalizedRow) bool {
	return row.RatingNum >= f.MinRating && row.PriceExcl < f.MaxPriceExclTax
}
