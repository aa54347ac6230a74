// Package transform turns raw catalog records into the filtered CSV export.
package transform

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
)

// PricePolicy selects how monetary text that does not parse is handled.
type PricePolicy string

const (
	// PolicyStrict rejects a record whose monetary text is not a number.
	PolicyStrict PricePolicy = "strict"
	// PolicyLenient keeps only digits and dots and reads anything unparseable as 0.
	PolicyLenient PricePolicy = "lenient"
)

var (
	errEmptyPrice    = errors.New("empty value")
	errInvalidAmount = errors.New("amount must be a finite non-negative number")
)

var ratings = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// RatingNumber maps a rating word onto 1-5, or 0 when it is not recognized.
func RatingNumber(word string) int {
	return ratings[word]
}

// Normalizer converts records into typed rows.
type Normalizer struct {
	policy PricePolicy
}

// NewNormalizer returns a Normalizer. Unknown policies behave as PolicyStrict.
func NewNormalizer(policy PricePolicy) *Normalizer {
	if policy != PolicyLenient {
		policy = PolicyStrict
	}
	return &Normalizer{policy: policy}
}

// Policy reports the price policy in effect.
func (n *Normalizer) Policy() PricePolicy {
	return n.policy
}

// Normalize parses the monetary fields of rec and derives the rating number
// and currency. Under PolicyStrict it returns a *catalog.ParseError for the
// first monetary field that does not parse.
func (n *Normalizer) Normalize(rec catalog.Record) (catalog.NormalizedRow, error) {
	row := catalog.NormalizedRow{
		Record:    rec,
		Currency:  catalog.CurrencyPound,
		RatingNum: RatingNumber(rec.Rating),
	}

	fields := []struct {
		key string
		raw string
		dst *float64
	}{
		{catalog.KeyPriceExclTax, rec.PriceExclTax, &row.PriceExcl},
		{catalog.KeyPriceInclTax, rec.PriceInclTax, &row.PriceIncl},
		{catalog.KeyTax, rec.Tax, &row.TaxAmount},
	}
	for _, f := range fields {
		if n.policy == PolicyLenient {
			*f.dst = ParsePriceLenient(f.raw)
			continue
		}
		v, err := ParsePrice(f.raw)
		if err != nil {
			return catalog.NormalizedRow{}, &catalog.ParseError{Field: f.key, Value: f.raw, Err: err}
		}
		*f.dst = v
	}
	return row, nil
}

// ParsePrice reads currency text such as "£51.77" (or its mis-decoded form
// "Â£51.77") as a number.
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(catalog.FixMojibake(raw), catalog.PoundSign, ""))
	if s == "" {
		return 0, errEmptyPrice
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount: %w", err)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errInvalidAmount
	}
	return v, nil
}

// ParsePriceLenient drops every character other than digits and dots before
// parsing. Empty or unparseable text reads as 0.
func ParsePriceLenient(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}
