package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTransformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Normalize and filter the raw store into the CSV export",
		RunE:  withApp(runTransform),
	}
}

func runTransform(ctx context.Context, appInstance App) error {
	report, err := appInstance.Transform(ctx)
	if err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("export", report.ExportPath),
		zap.Int("kept", report.Summary.Kept),
		zap.Int("filtered", report.Summary.Filtered),
		zap.Int("rejected", report.Summary.Rejected),
	}
	if report.Notification != nil {
		fields = append(fields, zap.String("export_uri", report.Notification.ExportURI))
	}
	appInstance.Logger().Info("transform complete", fields...)
	return nil
}
