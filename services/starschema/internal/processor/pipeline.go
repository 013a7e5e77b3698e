package processor

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"shenanigigs/common/cache"
	"shenanigigs/common/telemetry"
	"shenanigigs/services/starschema/internal/config"
	"shenanigigs/services/starschema/internal/errors"
	"shenanigigs/services/starschema/internal/events"
	"shenanigigs/services/starschema/internal/metrics"
	"shenanigigs/services/starschema/internal/models"
	"shenanigigs/services/starschema/internal/parser"
	"shenanigigs/services/starschema/internal/report"
	"shenanigigs/services/starschema/internal/sink"
	"shenanigigs/services/starschema/internal/source"
	"shenanigigs/services/starschema/internal/star"
)

type Request = events.RunRequest

type Result struct {
	RunID     string
	Schema    *models.StarSchema
	Report    star.Report
	Summary   report.Summary
	StartedAt time.Time
	Duration  time.Duration
}

// Pipeline builds the star schema for one batch. Per-record enrichment fans
// out over a worker pool; deduplication and key assignment run afterwards in
// a single sequential pass over the results in input order.
type Pipeline struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	config    *config.Config
	loader    *source.Loader
	parser    *parser.Parser
	dims      *star.DimensionBuilder
	facts     *star.FactAssembler
	cache     cache.Cache
	sinks     []sink.Sink
	publisher events.Publisher
	pool      pond.ResultPool[*models.EnrichedPosting]

	rulesVersion string
}

// NewPipeline accepts a nil cache or publisher; the matching step is skipped.
func NewPipeline(
	logger *zap.Logger,
	cfg *config.Config,
	p *parser.Parser,
	c cache.Cache,
	sinks []sink.Sink,
	publisher events.Publisher,
) *Pipeline {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Pipeline{
		logger:    logger,
		tracer:    telemetry.GetTracer("shenanigigs/starschema/processor"),
		config:    cfg,
		loader:    source.NewLoader(logger),
		parser:    p,
		dims:      star.NewDimensionBuilder(logger, p.Skills(), p.Rules().Regions),
		facts:     star.NewFactAssembler(logger),
		cache:     c,
		sinks:     sinks,
		publisher: publisher,
		pool:      pond.NewResultPool[*models.EnrichedPosting](workers),

		rulesVersion: p.Version(),
	}
}

func (p *Pipeline) Close() {
	p.pool.StopAndWait()
}

// RunRequested serves run requests received over NATS. An output directory
// named by the request must resolve inside the configured OUTPUT_DIR.
func (p *Pipeline) RunRequested(ctx context.Context, req events.RunRequest) error {
	dir, err := confineOutputDir(p.config.OutputDir, req.OutputDir)
	if err != nil {
		return err
	}
	req.OutputDir = dir

	_, err = p.Run(ctx, req)
	return err
}

// confineOutputDir resolves requested relative to base and rejects anything
// that lands outside it. An empty request keeps the configured directory.
func confineOutputDir(base, requested string) (string, error) {
	if requested == "" {
		return base, nil
	}
	if base == "" {
		return "", errors.InvalidInput("output_dir requires OUTPUT_DIR to be configured", nil)
	}

	base = filepath.Clean(base)
	target := requested
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.InvalidInput(fmt.Sprintf("output_dir %q is outside %s", requested, base), err)
	}
	return target, nil
}

// Run loads the input named by req, builds the star schema and hands it to
// every sink. Empty request fields fall back to the configuration.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "Run")
	defer span.End()

	req = p.withDefaults(req)
	runID := uuid.NewString()
	started := time.Now()
	logger := p.logger.With(zap.String("run_id", runID))

	span.SetAttributes(telemetry.String("run.id", runID), telemetry.String("input.path", req.InputPath))

	format, err := source.ParseFormat(req.InputFormat, req.InputPath)
	if err != nil {
		return nil, err
	}

	records, err := p.loader.Load(ctx, req.InputPath, format)
	if err != nil {
		span.RecordError(err)
		logger.Error("Failed to load input", zap.String("path", req.InputPath), zap.Error(err))
		return nil, err
	}

	schema, rep, err := p.Transform(ctx, records)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	sinks := p.sinks[:len(p.sinks):len(p.sinks)]
	if req.OutputDir != "" {
		sinks = append(sinks, sink.NewCSVSink(req.OutputDir))
	}
	if err := sink.WriteAll(ctx, logger, p.config.SinkMaxRetries, sinks, schema); err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := &Result{
		RunID:     runID,
		Schema:    schema,
		Report:    rep,
		Summary:   report.Summarize(schema, rep.UnresolvedTotal()),
		StartedAt: started,
		Duration:  time.Since(started),
	}

	p.publish(ctx, logger, req, result)

	logger.Info("Star schema build completed",
		zap.Int("postings", result.Summary.Postings),
		zap.Int("companies", result.Summary.UniqueCompanies),
		zap.Int("skills", result.Summary.UniqueSkills),
		zap.Int("bridge_rows", result.Summary.BridgeRows),
		zap.Float64("salary_coverage_pct", result.Summary.SalaryCoverage()),
		zap.Int("unresolved", rep.UnresolvedTotal()),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// Transform turns raw records into the star schema without touching any
// sink. An empty batch is rejected before any work starts.
func (p *Pipeline) Transform(ctx context.Context, records []models.RawPosting) (*models.StarSchema, star.Report, error) {
	ctx, span := p.tracer.Start(ctx, "Transform")
	defer span.End()

	if len(records) == 0 {
		return nil, star.Report{}, errors.InvalidInput("no postings to transform", nil)
	}
	span.SetAttributes(telemetry.Int("records", len(records)))

	start := time.Now()
	enriched, err := p.enrichAll(ctx, records)
	if err != nil {
		span.RecordError(err)
		return nil, star.Report{}, err
	}
	metrics.PhaseDuration.WithLabelValues("enrich").Observe(time.Since(start).Seconds())
	observeEnriched(enriched)

	start = time.Now()
	_, dimSpan := p.tracer.Start(ctx, "BuildDimensions")
	dims := p.dims.Build(enriched)
	dimSpan.End()
	metrics.PhaseDuration.WithLabelValues("dimensions").Observe(time.Since(start).Seconds())

	start = time.Now()
	_, factSpan := p.tracer.Start(ctx, "AssembleFacts")
	schema, rep := p.facts.Assemble(enriched, dims)
	factSpan.End()
	metrics.PhaseDuration.WithLabelValues("facts").Observe(time.Since(start).Seconds())

	for table, n := range rep.Unresolved {
		metrics.UnresolvedReferences.WithLabelValues(table).Add(float64(n))
	}

	return schema, rep, nil
}

// enrichAll returns one EnrichedPosting per record, in record order.
func (p *Pipeline) enrichAll(ctx context.Context, records []models.RawPosting) ([]*models.EnrichedPosting, error) {
	group := p.pool.NewGroupContext(ctx)

	for _, raw := range records {
		raw := raw
		group.SubmitErr(func() (*models.EnrichedPosting, error) {
			return p.enrich(ctx, raw), nil
		})
	}

	enriched, err := group.Wait()
	if err != nil {
		return nil, errors.Internal("enriching postings", err)
	}
	return enriched, nil
}

func (p *Pipeline) enrich(ctx context.Context, raw models.RawPosting) *models.EnrichedPosting {
	if p.cache == nil {
		return p.parser.ParsePosting(raw)
	}

	fingerprint := parser.Fingerprint(raw)
	key := p.cacheKey(fingerprint)

	var cached models.EnrichedPosting
	err := p.cache.Get(ctx, key, &cached)
	if err == nil {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		cached.Fingerprint = fingerprint
		return &cached
	}
	if stderrors.Is(err, cache.ErrNotFound) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		p.logger.Debug("Enrichment cache read failed", zap.String("fingerprint", fingerprint), zap.Error(err))
	}

	posting := p.parser.ParsePosting(raw)
	if err := p.cache.Set(ctx, key, posting, p.config.CacheTTL); err != nil {
		p.logger.Debug("Enrichment cache write failed", zap.String("fingerprint", fingerprint), zap.Error(err))
	}
	return posting
}

func (p *Pipeline) cacheKey(fingerprint string) string {
	return fmt.Sprintf("enriched:%s:%s", p.rulesVersion, fingerprint)
}

func (p *Pipeline) publish(ctx context.Context, logger *zap.Logger, req Request, result *Result) {
	if p.publisher == nil {
		return
	}

	rows := make(map[string]int, len(result.Summary.Tables))
	for _, t := range result.Summary.Tables {
		rows[t.Table] = t.Rows
	}

	event := &events.RunCompleted{
		RunID:      result.RunID,
		InputPath:  req.InputPath,
		Postings:   result.Summary.Postings,
		Rows:       rows,
		Unresolved: result.Report.Unresolved,
		StartedAt:  result.StartedAt,
		FinishedAt: result.StartedAt.Add(result.Duration),
	}

	// Best effort: the load has already been committed.
	if err := p.publisher.PublishRunCompleted(ctx, event); err != nil {
		logger.Warn("Failed to publish run completion", zap.Error(err))
	}
}

func (p *Pipeline) withDefaults(req Request) Request {
	if req.InputPath == "" {
		req.InputPath = p.config.InputPath
	}
	if req.InputFormat == "" {
		req.InputFormat = p.config.InputFormat
	}
	if req.OutputDir == "" {
		req.OutputDir = p.config.OutputDir
	}
	return req
}

func observeEnriched(postings []*models.EnrichedPosting) {
	metrics.PostingsProcessed.Add(float64(len(postings)))
	for _, e := range postings {
		if e.Salary.Min.Valid || e.Salary.Max.Valid {
			metrics.SalaryParsed.Inc()
		}
		if e.Location.IsRemote {
			metrics.RemotePostings.Inc()
		}
	}
}
