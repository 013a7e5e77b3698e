package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	PostingsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shenanigigs_starschema_postings_processed_total", Help: "Postings enriched by the star schema builder.",
	})
	RecordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shenanigigs_starschema_records_skipped_total", Help: "Input lines dropped because they did not decode.",
	})
	SalaryParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shenanigigs_starschema_salary_parsed_total", Help: "Postings with at least one salary bound.",
	})
	RemotePostings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shenanigigs_starschema_remote_postings_total", Help: "Postings detected as remote.",
	})
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shenanigigs_starschema_cache_lookups_total", Help: "Enrichment cache lookups by result.",
	}, []string{"result"})
	UnresolvedReferences = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shenanigigs_starschema_unresolved_references_total", Help: "Fact or bridge references with no dimension row.",
	}, []string{"table"})
	RowsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shenanigigs_starschema_rows_written_total", Help: "Rows written per sink and table.",
	}, []string{"sink", "table"})
	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shenanigigs_starschema_sink_errors_total", Help: "Sink write failures.",
	}, []string{"sink"})
	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shenanigigs_starschema_phase_duration_seconds",
		Help:    "Duration of each pipeline phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})
)

// Serve exposes /metrics on addr until ctx is done. An empty addr is a no-op.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if addr == "" {
		return nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Handler: mux}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	go func() {
		logger.Info("Prometheus metrics server listening", zap.String("address", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Prometheus metrics server failed", zap.Error(err))
		}
	}()

	return nil
}
