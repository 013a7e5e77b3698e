package sink

import (
	"context"

	"shenanigigs/services/starschema/internal/models"
)

// Warehouse is the part of common/database.Database the ClickHouse sink uses.
type Warehouse interface {
	Truncate(ctx context.Context, table string) error
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) error
}

// ClickHouseSink loads the star tables created by the schema migrations.
// Each table is truncated before its batch is sent.
type ClickHouseSink struct {
	db Warehouse
}

func NewClickHouseSink(db Warehouse) *ClickHouseSink {
	return &ClickHouseSink{db: db}
}

func (s *ClickHouseSink) Name() string {
	return "clickhouse"
}

func (s *ClickHouseSink) Write(ctx context.Context, tables []models.Table) error {
	for _, t := range tables {
		if err := s.db.Truncate(ctx, t.Name); err != nil {
			return err
		}
		if err := s.db.InsertRows(ctx, t.Name, t.Columns, t.Rows); err != nil {
			return err
		}
	}
	return nil
}
