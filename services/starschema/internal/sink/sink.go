package sink

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"shenanigigs/common/telemetry"
	"shenanigigs/services/starschema/internal/errors"
	"shenanigigs/services/starschema/internal/metrics"
	"shenanigigs/services/starschema/internal/models"
)

// Sink persists a finished star schema. Sinks replace whatever an earlier
// run left behind.
type Sink interface {
	Name() string
	Write(ctx context.Context, tables []models.Table) error
}

// retryInterval is the first wait between attempts; later waits grow
// exponentially.
var retryInterval = 500 * time.Millisecond

// WriteAll hands schema to every sink in order and stops at the first
// failure. A failed write is retried up to maxRetries times; sinks replace
// their contents, so a retry never duplicates rows.
func WriteAll(ctx context.Context, logger *zap.Logger, maxRetries int, sinks []Sink, schema *models.StarSchema) error {
	tracer := telemetry.GetTracer("shenanigigs/starschema/sink")
	tables := schema.Tables()

	for _, s := range sinks {
		ctx, span := tracer.Start(ctx, "Sink."+s.Name())
		start := time.Now()

		if err := writeWithRetry(ctx, logger, maxRetries, s, tables); err != nil {
			span.RecordError(err)
			span.End()
			metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			logger.Error("Failed to write star schema", zap.String("sink", s.Name()), zap.Error(err))
			return errors.Unavailable("write to "+s.Name(), err)
		}

		for _, t := range tables {
			metrics.RowsWritten.WithLabelValues(s.Name(), t.Name).Add(float64(len(t.Rows)))
		}
		span.End()

		logger.Info("Wrote star schema",
			zap.String("sink", s.Name()),
			zap.Int("tables", len(tables)),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return nil
}

func writeWithRetry(ctx context.Context, logger *zap.Logger, maxRetries int, s Sink, tables []models.Table) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInterval
	bo.MaxElapsedTime = 0

	if maxRetries < 0 {
		maxRetries = 0
	}
	policy := backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(maxRetries))

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := s.Write(ctx, tables)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Sink write failed, retrying",
			zap.String("sink", s.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
}
