package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Links returns the absolute detail-page URLs of a listing page in document
// order. Duplicates are kept; hrefs that do not parse are skipped.
func (e *Extractor) Links(doc *goquery.Document, catalogueBase string) ([]string, error) {
	base, err := url.Parse(catalogueBase)
	if err != nil {
		return nil, fmt.Errorf("parse catalogue base %q: %w", catalogueBase, err)
	}

	links := make([]string, 0, doc.Find(linkSelector).Length())
	doc.Find(linkSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			e.logger.Warn("skipping unparseable product link", zap.String("href", href), zap.Error(err))
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})
	return links, nil
}
