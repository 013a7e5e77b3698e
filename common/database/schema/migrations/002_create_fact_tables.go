package migrations

import "shenanigigs/common/database/schema"

var CreateFactTables = schema.Migration{
	Version:     2,
	Description: "Create posting fact and posting-skill bridge tables",
	Up: []string{
		`CREATE TABLE IF NOT EXISTS fact_posting (
			posting_id Int64,
			job_id Nullable(Int64),
			company_id Nullable(Int64),
			location_id Nullable(Int64),
			employment_type_id Nullable(Int64),
			salary_min Nullable(Float64),
			salary_max Nullable(Float64),
			salary_currency LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY posting_id`,
		`CREATE TABLE IF NOT EXISTS bridge_posting_skill (
			posting_id Int64,
			skill_id Int64
		) ENGINE = MergeTree()
		ORDER BY (posting_id, skill_id)`,
	},
	Down: []string{
		`DROP TABLE IF EXISTS bridge_posting_skill`,
		`DROP TABLE IF EXISTS fact_posting`,
	},
}

// All lists every migration in version order.
func All() []schema.Migration {
	return []schema.Migration{
		CreateDimensionTables,
		CreateFactTables,
	}
}
