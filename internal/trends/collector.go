package trends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/business-scout/internal/metrics"
	"github.com/joelkehle/business-scout/internal/scout"
)

// Collector queries every source concurrently, each under its own timeout. A source
// that fails is reported in its SourceStatus and does not affect the others.
type Collector struct {
	sources []Source
	timeout time.Duration
	logger  *zap.Logger
}

func NewCollector(logger *zap.Logger, timeout time.Duration, sources ...Source) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Collector{sources: sources, timeout: timeout, logger: logger}
}

func (c *Collector) Collect(ctx context.Context) (scout.ScanResult, error) {
	records := make([][]scout.RawTrend, len(c.sources))
	statuses := make([]scout.SourceStatus, len(c.sources))
	errs := make([]error, len(c.sources))

	grp := errgroup.Group{}
	for i, src := range c.sources {
		grp.Go(func() error {
			srcCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			start := time.Now()
			recs, err := src.Fetch(srcCtx)
			statuses[i] = scout.SourceStatus{Name: src.Name(), Source: src.Kind(), Records: len(recs)}
			log := c.logger.With(zap.String("source", src.Name()), zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
			if err != nil {
				statuses[i].Error = err.Error()
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				metrics.SourceFailures.WithLabelValues(src.Name()).Inc()
				log.Warn("trend_source_unavailable", zap.Error(err))
				return nil
			}
			records[i] = recs
			metrics.SourceRecords.WithLabelValues(src.Name()).Add(float64(len(recs)))
			log.Info("trend_source_scanned", zap.Int("records", len(recs)))
			return nil
		})
	}
	_ = grp.Wait()

	var result scout.ScanResult
	result.Sources = statuses
	for _, recs := range records {
		result.Records = append(result.Records, recs...)
	}
	if len(result.Records) == 0 {
		if err := errors.Join(errs...); err != nil {
			return result, err
		}
	}
	return result, nil
}
