package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"shenanigigs/services/starschema/internal/models"
)

// DecodeCSV reads a header row followed by records. Empty cells are left out
// of the record so they read as missing downstream.
func DecodeCSV(r io.Reader) ([]models.RawPosting, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records []models.RawPosting
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}

		record := make(models.RawPosting, len(header))
		for i, column := range header {
			if i >= len(row) || row[i] == "" {
				continue
			}
			record[column] = row[i]
		}
		records = append(records, record)
	}
	return records, nil
}
