// Package pipeline runs the crawl and transform phases from an explicit Config.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/clock/system"
	"github.com/JakeFAU/catalog-crawler/internal/config"
	"github.com/JakeFAU/catalog-crawler/internal/crawler"
	"github.com/JakeFAU/catalog-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/catalog-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/catalog-crawler/internal/fetcher/ratelimit"
	"github.com/JakeFAU/catalog-crawler/internal/fetcher/retry"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
	"github.com/JakeFAU/catalog-crawler/internal/publish"
	"github.com/JakeFAU/catalog-crawler/internal/storage/jsonl"
	"github.com/JakeFAU/catalog-crawler/internal/transform"
)

// Deps are the collaborators a phase needs beyond its Config. A nil Clock or
// Sleeper uses the wall clock.
type Deps struct {
	Clock   catalog.Clock
	Sleeper catalog.Sleeper
	// Fetcher overrides the colly-backed retrying fetcher built from Config.
	Fetcher catalog.Fetcher
	// Mirror, when set, receives a copy of every audit outcome.
	Mirror catalog.OutcomeMirror
	// Artifacts, when set, archives the raw store and export after a transform.
	Artifacts *publish.Publisher
}

// CrawlReport summarizes a finished crawl phase.
type CrawlReport struct {
	RunID     string
	RawPath   string
	AuditPath string
	Records   int
	Stats     crawler.Stats
}

// TransformReport summarizes a finished transform phase.
type TransformReport struct {
	RunID        string
	ExportPath   string
	Summary      transform.Summary
	Notification *publish.Notification
}

// NewFetcher builds the production fetcher: one shared colly collector,
// rate limited per attempt, wrapped in linear-backoff retries.
func NewFetcher(cfg config.Config, sleeper catalog.Sleeper, logger *zap.Logger) catalog.Fetcher {
	if sleeper == nil {
		sleeper = system.New()
	}
	inner := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Crawler.UserAgent,
		RespectRobots: cfg.Crawler.RespectRobots,
		Timeout:       cfg.RequestTimeout(),
	})
	limited := ratelimit.New(inner, ratelimit.Config{RPS: cfg.HTTP.RequestsPerSecond, Burst: 1})
	return retry.New(limited, sleeper, retry.LinearPolicy{
		MaxAttempts: cfg.HTTP.MaxAttempts,
		Step:        cfg.BackoffStep(),
	}, logger)
}

// Crawl walks the configured listing pages, rewriting the raw store and
// appending to the audit log. The records written before a fatal error stay on disk.
func Crawl(ctx context.Context, cfg config.Config, runID string, deps Deps, logger *zap.Logger) (report CrawlReport, err error) {
	logger = logging.OrNop(logger).With(zap.String("run_id", runID))
	report.RunID = runID

	sink, err := jsonl.CreateRecordWriter(cfg.Paths.RawDir)
	if err != nil {
		return report, err
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close raw store: %w", closeErr))
		}
	}()
	report.RawPath = sink.Path()

	audit, err := jsonl.OpenAuditLog(cfg.Paths.RawDir)
	if err != nil {
		return report, err
	}
	defer func() {
		if closeErr := audit.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close audit log: %w", closeErr))
		}
	}()
	report.AuditPath = audit.Path()

	clock := deps.Clock
	if clock == nil {
		clock = system.New()
	}
	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(cfg, deps.Sleeper, logger.Named("fetcher"))
	}

	c := crawler.New(
		crawler.Config{
			BaseURL:                cfg.Crawler.BaseURL,
			RunID:                  runID,
			ContainListingFailures: cfg.Crawler.ContainListingFailures,
		},
		fetcher,
		extract.New(logger.Named("extract")),
		sink,
		audit,
		deps.Mirror,
		clock,
		logger.Named("crawler"),
	)

	records, err := c.Run(ctx, crawler.PageRange{First: cfg.Crawler.FirstPage, Last: cfg.Crawler.LastPage})
	report.Records = len(records)
	report.Stats = c.Stats()
	if err != nil {
		return report, fmt.Errorf("crawl: %w", err)
	}
	return report, nil
}

// Transform reads the raw store from disk, writes the filtered export and,
// when configured, publishes both artifacts.
func Transform(ctx context.Context, cfg config.Config, runID string, deps Deps, logger *zap.Logger) (TransformReport, error) {
	logger = logging.OrNop(logger).With(zap.String("run_id", runID))
	report := TransformReport{RunID: runID}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	rawPath := filepath.Join(cfg.Paths.RawDir, jsonl.RawStoreFile)
	records, err := jsonl.ReadRecords(rawPath, logger.Named("jsonl"))
	if err != nil {
		return report, fmt.Errorf("load raw store: %w", err)
	}
	logger.Info("raw store loaded", zap.String("path", rawPath), zap.Int("records", len(records)))

	tr := transform.New(
		transform.NewNormalizer(transform.PricePolicy(cfg.Transform.PricePolicy)),
		transform.Filter{
			MinRating:       cfg.Transform.MinRating,
			MaxPriceExclTax: cfg.Transform.MaxPriceExclTax,
		},
		logger.Named("transform"),
	)
	rows, summary := tr.Apply(records)
	report.Summary = summary

	exportPath, err := transform.WriteExport(cfg.Paths.ExportDir, rows)
	if err != nil {
		return report, fmt.Errorf("write export: %w", err)
	}
	report.ExportPath = exportPath
	logger.Info("export written", zap.String("path", exportPath), zap.Int("rows", len(rows)))

	if deps.Artifacts == nil {
		return report, nil
	}
	note, err := deps.Artifacts.Publish(ctx, publish.Run{
		ID:         runID,
		RawPath:    rawPath,
		ExportPath: exportPath,
		Rows:       len(rows),
	})
	if err != nil {
		return report, fmt.Errorf("publish artifacts: %w", err)
	}
	report.Notification = &note
	return report, nil
}
