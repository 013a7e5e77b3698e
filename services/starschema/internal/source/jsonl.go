package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"shenanigigs/services/starschema/internal/models"
)

const maxLineSize = 16 << 20

// SkippedLine is an input line that did not decode into a record.
type SkippedLine struct {
	Line int
	Err  error
}

// DecodeJSONL reads one JSON object per line. Nested objects are flattened to
// dotted paths ("header.jobTitle") so both vocabularies reach the mapper as
// flat keys. Blank lines are ignored; a line that is not a JSON object is
// reported in the skipped list and decoding carries on. Only a read failure
// stops the scan.
func DecodeJSONL(r io.Reader) ([]models.RawPosting, []SkippedLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		records []models.RawPosting
		skipped []SkippedLine
	)
	for line := 1; scanner.Scan(); line++ {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()

		var obj map[string]any
		if err := decoder.Decode(&obj); err != nil {
			skipped = append(skipped, SkippedLine{Line: line, Err: fmt.Errorf("decode line %d: %w", line, err)})
			continue
		}
		if obj == nil {
			skipped = append(skipped, SkippedLine{Line: line, Err: fmt.Errorf("decode line %d: not a JSON object", line)})
			continue
		}

		record := make(models.RawPosting, len(obj))
		Flatten("", obj, record)
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan input: %w", err)
	}
	return records, skipped, nil
}

// Flatten copies obj into dst, joining nested object keys with dots. Arrays
// and scalars are kept as leaf values.
func Flatten(prefix string, obj map[string]any, dst models.RawPosting) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			Flatten(key, nested, dst)
			continue
		}
		dst[key] = v
	}
}
