package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"partsbin/internal/audit"
	"partsbin/internal/classify"
	"partsbin/internal/database"
	"partsbin/internal/taxonomy"
)

// Column names of the supplier CSV format. "Manufacture Part Number" keeps
// the supplier's own spelling; it maps to manufacturer_part_number.
const (
	ColPartNumber      = "LCSC Part Number"
	ColManufacturer    = "Manufacturer"
	ColPackage         = "Package"
	ColDescription     = "Description"
	ColOrderQty        = "Order Qty."
	ColUnitPrice       = "Unit Price($)"
	ColComponentType   = "Component Type"
	ColComponentBranch = "Component Branch"
	ColStoragePlace    = "Storage Place"
	ColMfrPartNumber   = "Manufacture Part Number"
	ColResistance      = "Resistance"
	ColCapacitance     = "Capacitance"
	ColVoltage         = "Voltage"
	ColTolerance       = "Tolerance"
	ColInductance      = "Inductance"
	ColCurrentPower    = "Current/Power"
)

// ExportHeaders is the column order of a whole-database export, and the
// column set a destructive re-import requires.
var ExportHeaders = []string{
	ColPartNumber, ColMfrPartNumber, ColManufacturer, ColPackage,
	ColDescription, ColOrderQty, ColUnitPrice, ColComponentType,
	ColComponentBranch, ColStoragePlace, ColResistance, ColCapacitance,
	ColVoltage, ColTolerance, ColInductance, ColCurrentPower,
}

// RowErrors aggregates the per-row failures of one import call. Rows that
// failed were skipped; the rest were committed before this error is raised.
type RowErrors struct {
	Errors []string
}

func (e *RowErrors) Error() string {
	return "importer: " + strings.Join(e.Errors, "; ")
}

// Report summarizes one import call.
type Report struct {
	BatchID    string               `json:"batch_id"`
	Added      int                  `json:"added"`
	Updated    int                  `json:"updated"`
	Components []database.Component `json:"components"`
	Errors     []string             `json:"errors,omitempty"`
}

// Coordinator runs bulk imports against the inventory, classifying each row
// on the way in.
type Coordinator struct {
	pool  *pgxpool.Pool
	store *taxonomy.Store
	log   *audit.Log
}

// NewCoordinator wires the import path.
func NewCoordinator(pool *pgxpool.Pool, store *taxonomy.Store, log *audit.Log) *Coordinator {
	return &Coordinator{pool: pool, store: store, log: log}
}

// ImportComponents merges a supplier CSV into stock in one transaction.
//
// Per row: a missing part number is a row-level error, skipped without
// aborting the batch. Rows with a description are classified against the
// current taxonomy snapshot. Existing parts merge (quantity adds, price and
// storage coalesce); new parts insert. One csv_import_batch ledger entry
// carries every row's old/new quantity and add/update tag.
//
// When any row failed, the successfully processed rows are still committed
// and the call returns the report together with a *RowErrors.
func (c *Coordinator) ImportComponents(ctx context.Context, table Table, user string) (Report, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	report, err := c.runImport(ctx, database.New(tx), table, user)
	if err != nil {
		return report, err
	}

	if err := tx.Commit(ctx); err != nil {
		return report, fmt.Errorf("commit import: %w", err)
	}

	if len(report.Errors) > 0 {
		return report, &RowErrors{Errors: report.Errors}
	}
	return report, nil
}

// runImport walks the rows inside the caller's transaction.
func (c *Coordinator) runImport(ctx context.Context, q *database.Queries, table Table, user string) (Report, error) {
	report := Report{BatchID: uuid.NewString()}
	tax := c.store.Snapshot()

	var changes []audit.RowChange

	for i, row := range table.Rows {
		params := rowToParams(row)
		if params.PartNumber == "" {
			// Header is row 1, so data row i is line i+2 in the file.
			report.Errors = append(report.Errors,
				fmt.Sprintf("row %d: missing required field: %s", i+2, ColPartNumber))
			continue
		}

		if desc := row[ColDescription]; desc != "" {
			applyClassification(&params, classify.Classify(desc, tax))
		}

		existing, err := q.GetComponentByPartNumberForUpdate(ctx, params.PartNumber)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			created, err := q.InsertComponent(ctx, params)
			if err != nil {
				return report, fmt.Errorf("row %d: insert %s: %w", i+2, params.PartNumber, err)
			}
			report.Added++
			report.Components = append(report.Components, created)
			changes = append(changes, audit.RowChange{
				PartNumber: created.PartNumber,
				OldQty:     0,
				NewQty:     created.OrderQty,
				Action:     "add",
			})

		case err != nil:
			return report, fmt.Errorf("row %d: load %s: %w", i+2, params.PartNumber, err)

		default:
			merged, err := q.MergeComponent(ctx, params)
			if err != nil {
				return report, fmt.Errorf("row %d: merge %s: %w", i+2, params.PartNumber, err)
			}
			report.Updated++
			report.Components = append(report.Components, merged)
			changes = append(changes, audit.RowChange{
				PartNumber: merged.PartNumber,
				OldQty:     existing.OrderQty,
				NewQty:     merged.OrderQty,
				Action:     "update",
			})
		}
	}

	// A batch where every row failed changed nothing; logging it would
	// spend a ledger slot on a no-op.
	if len(changes) == 0 {
		return report, nil
	}

	if _, err := c.log.Append(ctx, q, audit.AppendParams{
		User:   user,
		Action: audit.ActionCsvImportBatch,
		Details: audit.ImportBatch{
			BatchID: report.BatchID,
			Summary: fmt.Sprintf("CSV import: %d new items, %d updated items",
				report.Added, report.Updated),
			Changes: changes,
		},
	}); err != nil {
		return report, err
	}
	return report, nil
}

// ParseDatabaseExport validates a table against the export column set and
// converts it for a destructive re-import.
func ParseDatabaseExport(table Table) ([]database.InsertComponentParams, error) {
	have := make(map[string]bool, len(table.Headers))
	for _, h := range table.Headers {
		have[h] = true
	}
	var missing []string
	for _, h := range ExportHeaders {
		if !have[h] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("importer: export file is missing columns: %s",
			strings.Join(missing, ", "))
	}

	params := make([]database.InsertComponentParams, 0, len(table.Rows))
	for _, row := range table.Rows {
		params = append(params, rowToParams(row))
	}
	return params, nil
}

// ComponentToRow flattens a record into export column order.
func ComponentToRow(c database.Component) []string {
	price := ""
	if c.UnitPrice != nil {
		price = strconv.FormatFloat(*c.UnitPrice, 'f', -1, 64)
	}
	return []string{
		c.PartNumber, c.ManufacturerPartNumber, c.Manufacturer, c.Package,
		c.Description, strconv.Itoa(int(c.OrderQty)), price, c.ComponentType,
		c.ComponentBranch, c.StoragePlace, c.Resistance, c.Capacitance,
		c.Voltage, c.Tolerance, c.Inductance, c.CurrentPower,
	}
}

func rowToParams(row map[string]string) database.InsertComponentParams {
	return database.InsertComponentParams{
		PartNumber:             row[ColPartNumber],
		ManufacturerPartNumber: row[ColMfrPartNumber],
		Manufacturer:           row[ColManufacturer],
		Description:            row[ColDescription],
		Package:                row[ColPackage],
		StoragePlace:           row[ColStoragePlace],
		OrderQty:               parseQty(row[ColOrderQty]),
		UnitPrice:              parsePrice(row[ColUnitPrice]),
		ComponentType:          row[ColComponentType],
		ComponentBranch:        row[ColComponentBranch],
		Resistance:             row[ColResistance],
		Capacitance:            row[ColCapacitance],
		Voltage:                row[ColVoltage],
		Tolerance:              row[ColTolerance],
		Inductance:             row[ColInductance],
		CurrentPower:           row[ColCurrentPower],
	}
}

// applyClassification overwrites a row's taxonomy columns with the engine's
// verdict. An unmatched description clears them; the record is then stored
// uncategorized, which mirrors what the search filters expect.
func applyClassification(p *database.InsertComponentParams, res classify.Result) {
	p.ComponentType = res.ComponentType
	p.ComponentBranch = res.ComponentBranch
	p.StoragePlace = res.StoragePlace
	if v := res.Parameter(taxonomy.KindResistance); v != "" {
		p.Resistance = v
	}
	if v := res.Parameter(taxonomy.KindCapacitance); v != "" {
		p.Capacitance = v
	}
	if v := res.Parameter(taxonomy.KindInductance); v != "" {
		p.Inductance = v
	}
	if v := res.Parameter(taxonomy.KindVoltage); v != "" {
		p.Voltage = v
	}
	if v := res.Parameter(taxonomy.KindTolerance); v != "" {
		p.Tolerance = v
	}
	if v := res.Parameter(taxonomy.KindCurrentPower); v != "" {
		p.CurrentPower = v
	}
}

// parseQty reads an integer quantity, tolerating the float formatting
// spreadsheet exports are fond of. Unparsable or negative means zero.
func parseQty(s string) int32 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int32(f)
}

func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
