package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"shenanigigs/common/telemetry"
	"shenanigigs/services/starschema/internal/errors"
	"shenanigigs/services/starschema/internal/metrics"
	"shenanigigs/services/starschema/internal/models"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// ParseFormat resolves an explicit format name, or infers one from the file
// extension when name is empty.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jsonl", ".ndjson", ".json":
			return FormatJSONL, nil
		default:
			return FormatCSV, nil
		}
	}
	switch Format(strings.ToLower(name)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSONL, "ndjson", "json":
		return FormatJSONL, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown input format %q", name), nil)
}

// Decoder reads every record from r. Cells that are empty in the source
// come back absent or nil, never as empty strings. Lines that cannot become
// a record are returned as skipped rather than failing the batch.
type Decoder func(r io.Reader) ([]models.RawPosting, []SkippedLine, error)

func decoderFor(format Format) Decoder {
	if format == FormatJSONL {
		return DecodeJSONL
	}
	return func(r io.Reader) ([]models.RawPosting, []SkippedLine, error) {
		records, err := DecodeCSV(r)
		return records, nil, err
	}
}

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the whole batch at path. A missing, unreadable, or empty input
// is a structural failure and nothing is returned. Malformed lines are
// logged and dropped.
func (l *Loader) Load(ctx context.Context, path string, format Format) ([]models.RawPosting, error) {
	_, span := telemetry.GetTracer("shenanigigs/starschema/source").Start(ctx, "Load")
	defer span.End()
	span.SetAttributes(telemetry.String("path", path), telemetry.String("format", string(format)))

	if path == "" {
		return nil, errors.InvalidInput("no input path configured", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("input %s does not exist", path), err)
		}
		return nil, errors.Unreadable(fmt.Sprintf("open input %s", path), err)
	}
	defer f.Close()

	records, skipped, err := decoderFor(format)(f)
	if err != nil {
		return nil, errors.Unreadable(fmt.Sprintf("decode %s input %s", format, path), err)
	}
	for _, s := range skipped {
		l.logger.Warn("Skipping malformed record",
			zap.String("path", path),
			zap.Int("line", s.Line),
			zap.Error(s.Err),
		)
	}
	metrics.RecordsSkipped.Add(float64(len(skipped)))
	if len(records) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("input %s contains no records", path), nil)
	}

	span.SetAttributes(telemetry.Int("records", len(records)), telemetry.Int("skipped", len(skipped)))
	l.logger.Info("Loaded input",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("records", len(records)),
		zap.Int("skipped", len(skipped)),
	)
	return records, nil
}
