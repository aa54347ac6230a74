// Package extract turns catalog listing and detail pages into links and records.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/logging"
)

const (
	catalogueSegment = "catalogue/"
	listingPattern   = "catalogue/page-%d.html"

	linkSelector        = "article.product_pod h3 a"
	tableSelector       = "table.table-striped"
	titleSelector       = "div.product_main h1"
	ratingSelector      = "p.star-rating"
	descriptionSelector = "#product_description + p"
)

// Extractor reads goquery documents. It holds no per-page state.
type Extractor struct {
	logger *zap.Logger
}

// New returns an Extractor logging skipped markup to logger.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logging.OrNop(logger)}
}

// Parse builds a document from page text.
func Parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// CatalogueBase joins the site base URL with the catalogue/ segment. Detail
// links on listing pages are relative to it.
func CatalogueBase(siteBase string) (string, error) {
	return join(siteBase, catalogueSegment)
}

// ListingURL returns the URL of the given 1-based listing page.
func ListingURL(siteBase string, page int) (string, error) {
	return join(siteBase, fmt.Sprintf(listingPattern, page))
}

func join(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference %q: %w", ref, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
