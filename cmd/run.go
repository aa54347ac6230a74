package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Crawl, then transform what the crawl wrote to disk",
		RunE: withApp(func(ctx context.Context, appInstance App) error {
			return appInstance.Run(ctx)
		}),
	}
}
