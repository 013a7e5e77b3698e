package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	t.Parallel()

	all := All()
	require.NotEmpty(t, all)

	var ddl strings.Builder
	for i, m := range all {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.Up)
		assert.Len(t, m.Down, len(m.Up), "migration %d", m.Version)
		for _, stmt := range m.Up {
			ddl.WriteString(stmt)
		}
	}

	for _, table := range []string{
		"dim_job", "dim_company", "dim_location", "dim_employment_type",
		"dim_skill", "bridge_posting_skill", "fact_posting",
	} {
		assert.Contains(t, ddl.String(), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
