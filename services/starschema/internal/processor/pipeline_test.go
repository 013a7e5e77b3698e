package processor

import (
	"context"
	"encoding"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shenanigigs/common/cache"
	"shenanigigs/services/starschema/internal/config"
	"shenanigigs/services/starschema/internal/errors"
	"shenanigigs/services/starschema/internal/events"
	"shenanigigs/services/starschema/internal/models"
	"shenanigigs/services/starschema/internal/parser"
	"shenanigigs/services/starschema/internal/rules"
	"shenanigigs/services/starschema/internal/sink"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
	hits int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m, ok := value.(encoding.BinaryMarshaler)
	if !ok {
		return cache.ErrInvalidValue
	}
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	data, ok := c.data[key]
	if ok {
		c.hits++
	}
	c.mu.Unlock()
	if !ok {
		return cache.ErrNotFound
	}
	return value.(encoding.BinaryUnmarshaler).UnmarshalBinary(data)
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	return nil
}

func (c *memoryCache) Close() error { return nil }

type recordingPublisher struct {
	events []*events.RunCompleted
	err    error
}

func (p *recordingPublisher) PublishRunCompleted(_ context.Context, event *events.RunCompleted) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() {}

func newTestPipeline(t *testing.T, c cache.Cache, sinks []sink.Sink, publisher events.Publisher) *Pipeline {
	t.Helper()

	cfg := &config.Config{Workers: 4, CacheTTL: time.Hour, DefaultCountry: "USA", DefaultCurrency: "USD"}
	p := parser.New(rules.Default(), parser.Options{DefaultCountry: cfg.DefaultCountry, DefaultCurrency: cfg.DefaultCurrency})
	pipeline := NewPipeline(zap.NewNop(), cfg, p, c, sinks, publisher)
	t.Cleanup(pipeline.Close)
	return pipeline
}

func scenarioRecords() []models.RawPosting {
	return []models.RawPosting{
		{
			"Job Title":       "Senior Data Engineer",
			"Company Name":    "TechCo",
			"Location":        "Remote",
			"Job Description": "Experience with Python, Spark, AWS",
		},
		{
			"Job Title":       "Data Analyst I",
			"Company Name":    "TechCo",
			"Location":        "New York, NY",
			"Job Description": "Excel and SQL required",
		},
	}
}

func TestTransform(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(t, nil, nil, nil)
	schema, rep, err := pipeline.Transform(context.Background(), scenarioRecords())
	require.NoError(t, err)

	assert.Len(t, schema.Companies, 1)
	assert.Len(t, schema.Locations, 2)
	assert.Len(t, schema.Skills, 5)
	assert.Len(t, schema.Bridge, 5)
	require.Len(t, schema.Facts, 2)
	assert.Equal(t, int64(1), schema.Facts[0].CompanyID.Int64)
	assert.Equal(t, int64(1), schema.Facts[1].CompanyID.Int64)
	assert.Zero(t, rep.UnresolvedTotal())
}

func TestTransformKeepsInputOrder(t *testing.T) {
	t.Parallel()

	var records []models.RawPosting
	titles := []string{"Data Analyst", "Data Engineer", "Data Scientist", "Data Manager", "BI Analyst"}
	for i := 0; i < 200; i++ {
		records = append(records, models.RawPosting{"Job Title": titles[i%len(titles)]})
	}

	pipeline := newTestPipeline(t, nil, nil, nil)
	schema, _, err := pipeline.Transform(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, schema.Jobs, len(titles))
	for i, j := range schema.Jobs {
		assert.Equal(t, titles[i], j.JobTitle.String)
	}
	for i, f := range schema.Facts {
		assert.Equal(t, int64(i+1), f.PostingID)
		assert.Equal(t, int64(i%len(titles)+1), f.JobID.Int64)
	}
}

func TestTransformEmptyBatch(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(t, nil, nil, nil)
	schema, _, err := pipeline.Transform(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, schema)
	assert.True(t, errors.IsType(err, errors.ErrTypeInvalidInput))
}

func TestTransformUsesEnrichmentCache(t *testing.T) {
	t.Parallel()

	c := newMemoryCache()
	pipeline := newTestPipeline(t, c, nil, nil)
	ctx := context.Background()

	first, _, err := pipeline.Transform(ctx, scenarioRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, c.sets)
	assert.Zero(t, c.hits)

	second, _, err := pipeline.Transform(ctx, scenarioRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, c.sets)
	assert.Equal(t, 2, c.hits)
	assert.Equal(t, first, second)

	for key := range c.data {
		assert.Contains(t, key, "enriched:"+pipeline.rulesVersion+":")
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "postings.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"Job Title,Company Name,Location,Job Description,Salary Estimate\n"+
			"Senior Data Engineer,TechCo,Remote,\"Experience with Python, Spark, AWS\",$100K-$150K (Glassdoor est.)\n"+
			"Data Analyst I,TechCo,\"New York, NY\",Excel and SQL required,\n",
	), 0o644))
	out := filepath.Join(dir, "out")

	publisher := &recordingPublisher{}
	pipeline := newTestPipeline(t, nil, nil, publisher)

	result, err := pipeline.Run(context.Background(), Request{InputPath: input, OutputDir: out})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Summary.Postings)
	assert.Equal(t, 1, result.Summary.WithSalary)
	assert.Equal(t, 1, result.Summary.RemotePostings)
	assert.Equal(t, 5, result.Summary.UniqueSkills)
	assert.FileExists(t, filepath.Join(out, models.TableFactPosting+".csv"))

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, result.RunID, event.RunID)
	assert.Equal(t, input, event.InputPath)
	assert.Equal(t, 2, event.Rows[models.TableFactPosting])
	assert.Equal(t, 5, event.Rows[models.TableBridgePostingSkill])
}

func TestRunPublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	input := filepath.Join(t.TempDir(), "postings.csv")
	require.NoError(t, os.WriteFile(input, []byte("Job Title\nData Analyst\n"), 0o644))

	publisher := &recordingPublisher{err: stderrors.New("nats: connection closed")}
	pipeline := newTestPipeline(t, nil, nil, publisher)

	result, err := pipeline.Run(context.Background(), Request{InputPath: input})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Postings)
	assert.Len(t, publisher.events, 1)
}

func TestRunStructuralFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("Job Title\n"), 0o644))

	tests := []struct {
		name    string
		req     Request
		errType errors.ErrorType
	}{
		{"missing input", Request{InputPath: filepath.Join(dir, "missing.csv")}, errors.ErrTypeNotFound},
		{"empty input", Request{InputPath: empty}, errors.ErrTypeInvalidInput},
		{"unknown format", Request{InputPath: empty, InputFormat: "xml"}, errors.ErrTypeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &recordingPublisher{}
			pipeline := newTestPipeline(t, nil, nil, publisher)

			result, err := pipeline.Run(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.IsType(err, tt.errType), err.Error())
			assert.Empty(t, publisher.events)
		})
	}
}

type failingSink struct{}

func (failingSink) Name() string { return "failing" }

func (failingSink) Write(context.Context, []models.Table) error {
	return stderrors.New("disk full")
}

func TestRunSinkFailure(t *testing.T) {
	t.Parallel()

	input := filepath.Join(t.TempDir(), "postings.csv")
	require.NoError(t, os.WriteFile(input, []byte("Job Title\nData Analyst\n"), 0o644))

	publisher := &recordingPublisher{}
	pipeline := newTestPipeline(t, nil, []sink.Sink{failingSink{}}, publisher)

	_, err := pipeline.Run(context.Background(), Request{InputPath: input})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUnavailable))
	assert.Empty(t, publisher.events)
}

func TestConfineOutputDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		base      string
		requested string
		want      string
		wantErr   bool
	}{
		{name: "empty keeps configured", base: "/data/out", want: "/data/out"},
		{name: "empty without base", want: ""},
		{name: "relative subdirectory", base: "/data/out", requested: "run-7", want: "/data/out/run-7"},
		{name: "absolute inside base", base: "/data/out/", requested: "/data/out/run-7/", want: "/data/out/run-7"},
		{name: "base itself", base: "/data/out", requested: ".", want: "/data/out"},
		{name: "dot dot in a name", base: "/data/out", requested: "..run", want: "/data/out/..run"},
		{name: "parent escape", base: "/data/out", requested: "../etc", wantErr: true},
		{name: "nested escape", base: "/data/out", requested: "a/../../b", wantErr: true},
		{name: "absolute outside", base: "/data/out", requested: "/etc/cron.d", wantErr: true},
		{name: "sibling prefix", base: "/data/out", requested: "/data/outside", wantErr: true},
		{name: "no configured base", requested: "/tmp/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := confineOutputDir(tt.base, tt.requested)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrTypeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunRequestedConfinesOutputDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "postings.csv")
	require.NoError(t, os.WriteFile(input, []byte("Job Title\nData Analyst\n"), 0o644))
	base := filepath.Join(dir, "out")
	outside := filepath.Join(dir, "elsewhere")

	cfg := &config.Config{Workers: 2, OutputDir: base, DefaultCountry: "USA", DefaultCurrency: "USD"}
	p := parser.New(rules.Default(), parser.Options{DefaultCountry: cfg.DefaultCountry, DefaultCurrency: cfg.DefaultCurrency})
	pipeline := NewPipeline(zap.NewNop(), cfg, p, nil, nil, nil)
	t.Cleanup(pipeline.Close)
	ctx := context.Background()

	err := pipeline.RunRequested(ctx, events.RunRequest{InputPath: input, OutputDir: outside})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeInvalidInput))
	assert.NoDirExists(t, outside)

	require.NoError(t, pipeline.RunRequested(ctx, events.RunRequest{InputPath: input, OutputDir: "nightly"}))
	assert.FileExists(t, filepath.Join(base, "nightly", models.TableFactPosting+".csv"))
}
