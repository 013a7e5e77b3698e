package models

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablesLoadOrderAndNulls(t *testing.T) {
	t.Parallel()

	s := &StarSchema{
		Dimensions: Dimensions{
			Jobs:      []JobRow{{JobID: 1, JobCategory: "Other", SeniorityLevel: "Mid-level"}},
			Companies: []CompanyRow{{CompanyID: 1, CompanyName: "TechCo", CompanyRating: NullFloat(4.2)}},
			Locations: []LocationRow{{LocationID: 1, Country: "USA", IsRemote: true, Region: "N/A"}},
		},
		Facts: []FactRow{{PostingID: 1, JobID: sql.NullInt64{Int64: 1, Valid: true}, SalaryCurrency: "USD"}},
	}

	tables := s.Tables()
	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
		for _, row := range tbl.Rows {
			assert.Len(t, row, len(tbl.Columns), tbl.Name)
		}
	}
	assert.Equal(t, []string{
		TableDimJob, TableDimCompany, TableDimLocation, TableDimEmploymentType,
		TableDimSkill, TableBridgePostingSkill, TableFactPosting,
	}, names)

	require.Len(t, tables[0].Rows, 1)
	assert.Equal(t, []any{int64(1), nil, "Other", "Mid-level"}, tables[0].Rows[0])
	assert.Equal(t, []any{int64(1), "TechCo", 4.2, nil, nil, nil, nil, nil}, tables[1].Rows[0])
	assert.Equal(t, []any{int64(1), nil, nil, "USA", true, "N/A"}, tables[2].Rows[0])
	assert.Empty(t, tables[4].Rows)
	assert.Equal(t, []any{int64(1), int64(1), nil, nil, nil, nil, nil, "USD"}, tables[6].Rows[0])
}
