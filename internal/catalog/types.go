// Package catalog defines the record shapes and collaborator contracts shared by
// the crawl and transform phases.
package catalog

import "time"

// Canonical record keys as they appear on detail pages and in the raw store.
const (
	KeyUPC          = "UPC"
	KeyProductType  = "Product Type"
	KeyPriceExclTax = "Price (excl. tax)"
	KeyPriceInclTax = "Price (incl. tax)"
	KeyTax          = "Tax"
	KeyAvailability = "Availability"
	KeyReviews      = "Number of reviews"
	KeyTitle        = "Title"
	KeyRating       = "Rating"
	KeyDescription  = "Description"
	KeyCurrency     = "Currency"
)

// CurrencyPound is the constant currency tag added during normalization.
const CurrencyPound = "Pound"

// Record is one catalog item as extracted from its detail page. Monetary
// fields hold the raw currency-formatted text.
type Record struct {
	UPC          string `json:"UPC"`
	ProductType  string `json:"Product Type"`
	PriceExclTax string `json:"Price (excl. tax)"`
	PriceInclTax string `json:"Price (incl. tax)"`
	Tax          string `json:"Tax"`
	Availability string `json:"Availability"`
	Reviews      string `json:"Number of reviews"`
	Title        string `json:"Title"`
	Rating       string `json:"Rating"`
	Description  string `json:"Description"`
}

// SetAttribute assigns an attribute-table value by its header text. It reports
// false when the header is not a known record key.
func (r *Record) SetAttribute(key, value string) bool {
	switch key {
	case KeyUPC:
		r.UPC = value
	case KeyProductType:
		r.ProductType = value
	case KeyPriceExclTax:
		r.PriceExclTax = value
	case KeyPriceInclTax:
		r.PriceInclTax = value
	case KeyTax:
		r.Tax = value
	case KeyAvailability:
		r.Availability = value
	case KeyReviews:
		r.Reviews = value
	default:
		return false
	}
	return true
}

// Status is the outcome written to the audit log for one detail link.
type Status string

// Audit statuses. The failed literal is lower-case on the wire.
const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "failed"
)

// FetchOutcome is one audit log entry.
type FetchOutcome struct {
	RunDatetime time.Time `json:"run_datetime"`
	Status      Status    `json:"status"`
	URL         string    `json:"url"`
}

// Result is the per-link product of the crawl: a record on success, the
// error that stopped it otherwise.
type Result struct {
	URL    string
	Record Record
	Err    error
}

// OK reports whether the link produced a record.
func (r Result) OK() bool {
	return r.Err == nil
}

// Status maps the result onto its audit status.
func (r Result) Status() Status {
	if r.OK() {
		return StatusSuccess
	}
	return StatusFailed
}

// NormalizedRow is a Record with cleaned monetary values and derived columns.
type NormalizedRow struct {
	Record
	PriceExcl float64
	PriceIncl float64
	TaxAmount float64
	Currency  string
	// RatingNum is 1-5 for known ratings and 0 otherwise. It never reaches the export.
	RatingNum int
}

// ExportColumns is the header of the final export, in order.
var ExportColumns = []string{
	KeyUPC,
	KeyProductType,
	KeyPriceExclTax,
	KeyPriceInclTax,
	KeyTax,
	KeyAvailability,
	KeyReviews,
	KeyTitle,
	KeyRating,
	KeyDescription,
	KeyCurrency,
}
