package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Walk the listing pages and rebuild the raw store",
		Long: `Fetches every configured listing page, extracts each linked detail page into
the raw store (rewritten on every crawl) and appends one audit entry per link.
A failing detail page is logged and skipped; a failing listing page aborts the
crawl unless crawler.contain_listing_failures is set.`,
		RunE: withApp(runCrawl),
	}
}

func runCrawl(ctx context.Context, appInstance App) error {
	report, err := appInstance.Crawl(ctx)
	if err != nil {
		return err
	}
	appInstance.Logger().Info("crawl complete",
		zap.String("raw_store", report.RawPath),
		zap.String("audit_log", report.AuditPath),
		zap.Int("records", report.Records),
		zap.Int("failed", report.Stats.Failed),
	)
	return nil
}
