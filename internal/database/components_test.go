package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// captureDB satisfies DBTX and records the last statement, so query shapes
// can be checked without a live database.
type captureDB struct {
	sql  string
	args []any
}

func (c *captureDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql, c.args = sql, args
	return pgconn.NewCommandTag(""), nil
}

func (c *captureDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query: " + sql)
}

func (c *captureDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	c.sql, c.args = sql, args
	return discardRow{}
}

type discardRow struct{}

func (discardRow) Scan(dest ...any) error { return nil }

func TestMergeComponent_AddsQuantity(t *testing.T) {
	db := &captureDB{}
	price := 0.0124

	_, err := New(db).MergeComponent(context.Background(), MergeComponentParams{
		PartNumber: "C25804",
		OrderQty:   50,
		UnitPrice:  &price,
	})
	if err != nil {
		t.Fatalf("MergeComponent() error = %v", err)
	}

	// Quantity accumulates; it is never overwritten by a merge.
	if !strings.Contains(db.sql, "order_qty = order_qty + $2") {
		t.Errorf("merge does not add to stock:\n%s", db.sql)
	}
	if !strings.Contains(db.sql, "unit_price = COALESCE($3, unit_price)") {
		t.Errorf("merge overwrites price with null:\n%s", db.sql)
	}
	if !strings.Contains(db.sql, "storage_place = COALESCE(NULLIF($4, ''), storage_place)") {
		t.Errorf("merge clears storage on empty input:\n%s", db.sql)
	}
	if db.args[0] != "C25804" || db.args[1] != int32(50) {
		t.Errorf("args = %v", db.args[:2])
	}
}

func TestUpdateComponentQuantity_SetsExactValue(t *testing.T) {
	db := &captureDB{}
	if _, err := New(db).UpdateComponentQuantity(context.Background(), 7, 0); err != nil {
		t.Fatalf("UpdateComponentQuantity() error = %v", err)
	}
	if !strings.Contains(db.sql, "SET order_qty = $2") {
		t.Errorf("unexpected statement:\n%s", db.sql)
	}
	if db.args[0] != int64(7) || db.args[1] != int32(0) {
		t.Errorf("args = %v", db.args)
	}
}
