package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/extract"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Config holds the settings for one crawl run.
type Config struct {
	BaseURL                string
	RunID                  string
	ContainListingFailures bool
}

// PageRange is an inclusive range of 1-based listing pages.
type PageRange struct {
	First int
	Last  int
}

// Len returns the number of pages in the range.
func (r PageRange) Len() int {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

// PageExtractor reads listing and detail documents.
type PageExtractor interface {
	Links(doc *goquery.Document, catalogueBase string) ([]string, error)
	Record(doc *goquery.Document, sourceURL string) (catalog.Record, error)
}

// Stats counts what a run did.
type Stats struct {
	Pages       int
	PagesFailed int
	Succeeded   int
	Failed      int
}

// Crawler drives fetch → extract → persist for a range of listing pages.
type Crawler struct {
	cfg       Config
	fetcher   catalog.Fetcher
	extractor PageExtractor
	sink      catalog.RecordSink
	audit     catalog.AuditLog
	mirror    catalog.OutcomeMirror
	clock     catalog.Clock
	logger    *zap.Logger
	stats     Stats
}

// New constructs a Crawler. mirror may be nil.
func New(
	cfg Config,
	fetcher catalog.Fetcher,
	extractor PageExtractor,
	sink catalog.RecordSink,
	audit catalog.AuditLog,
	mirror catalog.OutcomeMirror,
	clock catalog.Clock,
	logger *zap.Logger,
) *Crawler {
	return &Crawler{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		sink:      sink,
		audit:     audit,
		mirror:    mirror,
		clock:     clock,
		logger:    logging.OrNop(logger),
	}
}

// Stats returns the counters of the last Run.
func (c *Crawler) Stats() Stats {
	return c.stats
}

// Run crawls every listing page in pages and returns the records extracted,
// in order. Failed links appear only in the audit log. On a fatal error the
// records gathered so far are returned alongside it.
func (c *Crawler) Run(ctx context.Context, pages PageRange) ([]catalog.Record, error) {
	c.stats = Stats{}
	catalogueBase, err := extract.CatalogueBase(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("derive catalogue base: %w", err)
	}

	var records []catalog.Record
	for page := pages.First; page <= pages.Last; page++ {
		if err := ctx.Err(); err != nil {
			return records, fmt.Errorf("crawl canceled: %w", err)
		}

		links, err := c.listingLinks(ctx, page, pages.Len(), catalogueBase)
		if err != nil {
			c.stats.PagesFailed++
			metrics.ObserveListingPage(metrics.OutcomeFailure)
			if !c.cfg.ContainListingFailures || ctx.Err() != nil {
				return records, fmt.Errorf("listing page %d: %w", page, err)
			}
			c.logger.Error("listing page failed; skipping", zap.Int("page", page), zap.Error(err))
			continue
		}
		c.stats.Pages++
		metrics.ObserveListingPage(metrics.OutcomeSuccess)

		for i, link := range links {
			if err := ctx.Err(); err != nil {
				return records, fmt.Errorf("crawl canceled: %w", err)
			}
			c.logger.Debug("book",
				zap.Int("page", page),
				zap.Int("book", i+1),
				zap.Int("books_on_page", len(links)),
				zap.String("url", link),
			)

			result := c.crawlLink(ctx, link)
			if !result.OK() && ctx.Err() != nil {
				return records, fmt.Errorf("crawl canceled: %w", errors.Join(result.Err, ctx.Err()))
			}
			if err := c.settle(ctx, result); err != nil {
				return records, err
			}
			if result.OK() {
				records = append(records, result.Record)
			}
		}
	}

	c.logger.Info("crawl finished",
		zap.Int("pages", c.stats.Pages),
		zap.Int("pages_failed", c.stats.PagesFailed),
		zap.Int("succeeded", c.stats.Succeeded),
		zap.Int("failed", c.stats.Failed),
	)
	return records, nil
}

func (c *Crawler) listingLinks(ctx context.Context, page, total int, catalogueBase string) ([]string, error) {
	listingURL, err := extract.ListingURL(c.cfg.BaseURL, page)
	if err != nil {
		return nil, err
	}
	c.logger.Info("listing page", zap.Int("page", page), zap.Int("pages", total), zap.String("url", listingURL))

	html, err := c.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, err
	}
	doc, err := extract.Parse(html)
	if err != nil {
		return nil, err
	}
	return c.extractor.Links(doc, catalogueBase)
}

// crawlLink fetches and extracts one detail page. Every failure is returned
// inside the Result rather than as an error.
func (c *Crawler) crawlLink(ctx context.Context, link string) catalog.Result {
	html, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		return catalog.Result{URL: link, Err: err}
	}
	doc, err := extract.Parse(html)
	if err != nil {
		return catalog.Result{URL: link, Err: &catalog.ExtractionError{URL: link, Err: err}}
	}
	rec, err := c.extractor.Record(doc, link)
	if err != nil {
		return catalog.Result{URL: link, Err: err}
	}
	return catalog.Result{URL: link, Record: rec}
}

// settle persists a result: the record (on success) goes to the sink, then
// the outcome goes to the audit log. Failing to write either is fatal.
func (c *Crawler) settle(ctx context.Context, result catalog.Result) error {
	if result.OK() {
		if err := c.sink.WriteRecord(result.Record); err != nil {
			return fmt.Errorf("persist record %s: %w", result.URL, err)
		}
		c.stats.Succeeded++
	} else {
		c.stats.Failed++
		c.logger.Warn("book failed", zap.String("url", result.URL), zap.Error(result.Err))
	}

	outcome := catalog.FetchOutcome{
		RunDatetime: c.clock.Now(),
		Status:      result.Status(),
		URL:         result.URL,
	}
	metrics.ObserveItem(string(outcome.Status))
	if err := c.audit.Append(ctx, outcome); err != nil {
		return fmt.Errorf("append audit entry for %s: %w", result.URL, err)
	}
	if c.mirror != nil {
		if err := c.mirror.StoreOutcome(ctx, c.cfg.RunID, outcome); err != nil {
			c.logger.Warn("audit mirror write failed", zap.String("url", result.URL), zap.Error(err))
		}
	}
	return nil
}
