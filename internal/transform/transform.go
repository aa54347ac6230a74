package transform

import (
	"errors"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Summary counts what happened to the input records.
type Summary struct {
	Read     int
	Rejected int
	Filtered int
	Kept     int
}

// Transformer normalizes and filters records.
type Transformer struct {
	normalizer *Normalizer
	filter     Filter
	logger     *zap.Logger
}

// New returns a Transformer.
func New(normalizer *Normalizer, filter Filter, logger *zap.Logger) *Transformer {
	return &Transformer{normalizer: normalizer, filter: filter, logger: logging.OrNop(logger)}
}

// Apply returns the rows that pass the filter, in input order. Records the
// normalizer rejects are logged and counted but do not stop the run.
func (t *Transformer) Apply(records []catalog.Record) ([]catalog.NormalizedRow, Summary) {
	summary := Summary{Read: len(records)}
	kept := make([]catalog.NormalizedRow, 0, len(records))
	for _, rec := range records {
		row, err := t.normalizer.Normalize(rec)
		if err != nil {
			summary.Rejected++
			metrics.ObserveTransformRow(metrics.DecisionRejected)
			fields := []zap.Field{zap.String("upc", rec.UPC), zap.Error(err)}
			var parseErr *catalog.ParseError
			if errors.As(err, &parseErr) {
				fields = append(fields, zap.String("field", parseErr.Field))
			}
			t.logger.Warn("rejecting record", fields...)
			continue
		}
		if !t.filter.Keep(row) {
			summary.Filtered++
			metrics.ObserveTransformRow(metrics.DecisionFiltered)
			continue
		}
		summary.Kept++
		metrics.ObserveTransformRow(metrics.DecisionKept)
		kept = append(kept, row)
	}
	t.logger.Info("transform finished",
		zap.Int("read", summary.Read),
		zap.Int("rejected", summary.Rejected),
		zap.Int("filtered", summary.Filtered),
		zap.Int("kept", summary.Kept),
	)
	return kept, summary
}
