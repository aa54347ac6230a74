package transform

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
)

// ExportFile is the name of the export inside the export directory.
const ExportFile = "result.csv"

// WriteCSV writes the header row followed by one line per row.
func WriteCSV(w io.Writer, rows []catalog.NormalizedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(catalog.ExportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(exportRecord(row)); err != nil {
			return fmt.Errorf("write row %s: %w", row.UPC, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteExport regenerates dir/result.csv from rows and returns its path. The
// directory is created when absent and any previous export is replaced.
func WriteExport(dir string, rows []catalog.NormalizedRow) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFile)
	// #nosec G304 -- path is built from the configured export directory.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", fmt.Errorf("open export: %w", err)
	}
	if err := WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("sync export: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	return path, nil
}

func exportRecord(row catalog.NormalizedRow) []string {
	return []string{
		row.UPC,
		row.ProductType,
		formatAmount(row.PriceExcl),
		formatAmount(row.PriceIncl),
		formatAmount(row.TaxAmount),
		row.Availability,
		row.Reviews,
		row.Title,
		row.Rating,
		row.Description,
		row.Currency,
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
