package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"shenanigigs/services/starschema/internal/models"
)

const stagingPrefix = "stg_"

// Column types for the staging copy. Columns not listed are TEXT.
var sqliteTypes = map[string]string{
	"job_id":             "INTEGER",
	"company_id":         "INTEGER",
	"location_id":        "INTEGER",
	"employment_type_id": "INTEGER",
	"skill_id":           "INTEGER",
	"posting_id":         "INTEGER",
	"company_rating":     "REAL",
	"salary_min":         "REAL",
	"salary_max":         "REAL",
	"is_remote":          "INTEGER",
}

// SQLiteSink stages every table as stg_<table> in an embedded database file.
type SQLiteSink struct {
	db *sql.DB
}

func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func NewSQLiteSink(db *sql.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

func (s *SQLiteSink) Name() string {
	return "sqlite"
}

// Write replaces all staging tables in one transaction.
func (s *SQLiteSink) Write(ctx context.Context, tables []models.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if err := stageTable(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staging tables: %w", err)
	}
	return nil
}

func stageTable(ctx context.Context, tx *sql.Tx, t models.Table) error {
	name := stagingPrefix + t.Name

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, createStatement(name, t.Columns)); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if len(t.Rows) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		name, strings.Join(t.Columns, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", name, err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert row %d into %s: %w", i, name, err)
		}
	}
	return nil
}

func createStatement(name string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		typ, ok := sqliteTypes[c]
		if !ok {
			typ = "TEXT"
		}
		defs[i] = c + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))
}
