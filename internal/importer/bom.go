package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"partsbin/internal/database"
)

// BOMLine is one row of a bill-of-materials file after part lookup.
type BOMLine struct {
	PartNumber string `json:"part_number"`
	Quantity   int32  `json:"quantity"`
	Designator string `json:"designator,omitempty"`
	Available  int32  `json:"available,omitempty"`
}

// BOMReport splits a BOM upload into parts that exist in stock and parts
// that do not. Found lines were staged into the user's cart.
type BOMReport struct {
	Found    []BOMLine `json:"found"`
	NotFound []BOMLine `json:"not_found"`
}

// ErrNoPartColumn means the BOM's part number column could not be located.
var ErrNoPartColumn = errors.New("importer: no part number column found")

// StageBOM matches a bill of materials against stock and stages every found
// part into the user's cart, in one transaction.
//
// Column discovery is fuzzy: the part column is the first header mentioning a
// supplier or plain part number, falling back to a manufacturer part column.
// Each part number is looked up against both the supplier and manufacturer
// columns. Rows without a known part land in the not-found list; nothing is
// ordered for them.
func (c *Coordinator) StageBOM(ctx context.Context, table Table, user string) (BOMReport, error) {
	partCol, ok := table.Header("supplier part", "lcsc", "part number", "part no", "part #")
	if !ok {
		partCol, ok = table.Header("manufacturer part", "mfr part", "mpn")
	}
	if !ok {
		return BOMReport{}, ErrNoPartColumn
	}
	qtyCol, _ := table.Header("quantity", "qty", "amount")
	desCol, _ := table.Header("designator", "reference", "refdes")

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return BOMReport{}, fmt.Errorf("begin bom: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)
	var report BOMReport

	for _, row := range table.Rows {
		part := strings.TrimSpace(row[partCol])
		if part == "" {
			continue
		}
		line := BOMLine{
			PartNumber: part,
			Quantity:   bomQuantity(row[qtyCol]),
			Designator: strings.TrimSpace(row[desCol]),
		}

		comp, err := q.GetComponentByAnyPartNumber(ctx, part)
		if errors.Is(err, pgx.ErrNoRows) {
			report.NotFound = append(report.NotFound, line)
			continue
		}
		if err != nil {
			return BOMReport{}, fmt.Errorf("lookup %s: %w", part, err)
		}

		if _, err := q.UpsertCartItem(ctx, user, comp.ID, line.Quantity); err != nil {
			return BOMReport{}, fmt.Errorf("stage %s: %w", part, err)
		}
		line.PartNumber = comp.PartNumber
		line.Available = comp.OrderQty
		report.Found = append(report.Found, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return BOMReport{}, fmt.Errorf("commit bom: %w", err)
	}
	return report, nil
}

// bomQuantity parses a BOM quantity cell, defaulting to one per line the way
// a hand-written parts list reads.
func bomQuantity(s string) int32 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 1 {
		return 1
	}
	return int32(f)
}
