package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
)

// Record extracts one catalog item from its detail page. Only the attribute
// table is mandatory; title, rating and description default to "".
func (e *Extractor) Record(doc *goquery.Document, sourceURL string) (catalog.Record, error) {
	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return catalog.Record{}, &catalog.ExtractionError{URL: sourceURL, Err: catalog.ErrTableMissing}
	}

	var rec catalog.Record
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		header := row.Find("th").First()
		if header.Length() == 0 {
			return
		}
		key := strings.TrimSpace(header.Text())
		value := catalog.FixMojibake(strings.TrimSpace(row.Find("td").First().Text()))
		if !rec.SetAttribute(key, value) {
			e.logger.Debug("ignoring unknown attribute", zap.String("url", sourceURL), zap.String("key", key))
		}
	})

	rec.Title = strings.TrimSpace(doc.Find(titleSelector).First().Text())
	rec.Rating = ratingWord(doc.Find(ratingSelector).First())
	rec.Description = strings.TrimSpace(doc.Find(descriptionSelector).First().Text())
	return rec, nil
}

// ratingWord reads the second class token, e.g. "Three" in "star-rating Three".
func ratingWord(sel *goquery.Selection) string {
	class, ok := sel.Attr("class")
	if !ok {
		return ""
	}
	tokens := strings.Fields(class)
	if len(tokens) < 2 {
		return ""
	}
	return tokens[1]
}
