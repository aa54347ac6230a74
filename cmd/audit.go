package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/storage/jsonl"
)

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Summarize the audit log across all runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, appInstance App) error {
				return runAudit(ctx, cmd.OutOrStdout(), appInstance)
			})(cmd, args)
		},
	}
}

func runAudit(ctx context.Context, out io.Writer, appInstance App) error {
	cfg, err := resolveConfig(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.Paths.RawDir, jsonl.AuditLogFile)
	outcomes, err := jsonl.ReadAuditLog(path, appInstance.Logger())
	if err != nil {
		return err
	}

	var succeeded, failed int
	var last time.Time
	for _, o := range outcomes {
		if o.Status == catalog.StatusSuccess {
			succeeded++
		} else {
			failed++
		}
		if o.RunDatetime.After(last) {
			last = o.RunDatetime
		}
	}

	fmt.Fprintf(out, "audit log: %s\n", path)
	fmt.Fprintf(out, "entries:   %d\n", len(outcomes))
	fmt.Fprintf(out, "success:   %d\n", succeeded)
	fmt.Fprintf(out, "failed:    %d\n", failed)
	if !last.IsZero() {
		fmt.Fprintf(out, "latest:    %s\n", last.Format(time.RFC3339))
	}
	return nil
}
