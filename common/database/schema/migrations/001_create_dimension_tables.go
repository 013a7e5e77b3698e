package migrations

import "shenanigigs/common/database/schema"

var CreateDimensionTables = schema.Migration{
	Version:     1,
	Description: "Create star schema dimension tables",
	Up: []string{
		`CREATE TABLE IF NOT EXISTS dim_job (
			job_id Int64,
			job_title Nullable(String),
			job_category LowCardinality(String),
			seniority_level LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY job_id`,
		`CREATE TABLE IF NOT EXISTS dim_company (
			company_id Int64,
			company_name String,
			company_rating Nullable(Float64),
			company_size Nullable(String),
			ownership_type Nullable(String),
			industry Nullable(String),
			sector Nullable(String),
			revenue Nullable(String)
		) ENGINE = MergeTree()
		ORDER BY company_id`,
		`CREATE TABLE IF NOT EXISTS dim_location (
			location_id Int64,
			city Nullable(String),
			state Nullable(String),
			country LowCardinality(String),
			is_remote Bool,
			region LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY location_id`,
		`CREATE TABLE IF NOT EXISTS dim_employment_type (
			employment_type_id Int64,
			employment_type LowCardinality(String),
			work_arrangement LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY employment_type_id`,
		`CREATE TABLE IF NOT EXISTS dim_skill (
			skill_id Int64,
			skill_name String,
			skill_category LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY skill_id`,
	},
	Down: []string{
		`DROP TABLE IF EXISTS dim_skill`,
		`DROP TABLE IF EXISTS dim_employment_type`,
		`DROP TABLE IF EXISTS dim_location`,
		`DROP TABLE IF EXISTS dim_company`,
		`DROP TABLE IF EXISTS dim_job`,
	},
}
