package importer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"partsbin/internal/audit"
	"partsbin/internal/classify"
	"partsbin/internal/database"
	"partsbin/internal/taxonomy"
)

func TestRowToParams(t *testing.T) {
	row := map[string]string{
		ColPartNumber:    "C25804",
		ColMfrPartNumber: "0402WGF1002TCE",
		ColManufacturer:  "UNI-ROYAL",
		ColDescription:   "Chip Resistor 10kΩ ±1% 0402",
		ColPackage:       "0402",
		ColOrderQty:      "100",
		ColUnitPrice:     "0.0012",
		ColResistance:    "10kΩ",
	}

	p := rowToParams(row)
	if p.PartNumber != "C25804" {
		t.Errorf("PartNumber = %q", p.PartNumber)
	}
	if p.OrderQty != 100 {
		t.Errorf("OrderQty = %d, want 100", p.OrderQty)
	}
	if p.UnitPrice == nil || *p.UnitPrice != 0.0012 {
		t.Errorf("UnitPrice = %v, want 0.0012", p.UnitPrice)
	}
	if p.Resistance != "10kΩ" {
		t.Errorf("Resistance = %q", p.Resistance)
	}
	// Absent columns stay empty, price stays nil when missing.
	p2 := rowToParams(map[string]string{ColPartNumber: "C1"})
	if p2.UnitPrice != nil {
		t.Errorf("UnitPrice = %v, want nil", p2.UnitPrice)
	}
	if p2.OrderQty != 0 {
		t.Errorf("OrderQty = %d, want 0", p2.OrderQty)
	}
}

func TestParseQty(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"100", 100},
		{"  50 ", 50},
		{"25.0", 25},
		{"", 0},
		{"-3", 0},
		{"lots", 0},
	}
	for _, tt := range tests {
		if got := parseQty(tt.in); got != tt.want {
			t.Errorf("parseQty(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBOMQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"", 1},
		{"0", 1},
		{"3", 3},
		{"2.0", 2},
		{"junk", 1},
	}
	for _, tt := range tests {
		if got := bomQuantity(tt.in); got != tt.want {
			t.Errorf("bomQuantity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestApplyClassification(t *testing.T) {
	p := database.InsertComponentParams{
		PartNumber:    "C1",
		ComponentType: "stale type",
		Resistance:    "stale",
	}
	res := classify.Result{
		ComponentType:   "Resistor",
		ComponentBranch: "Chip Resistor",
		StoragePlace:    "A1",
		Parameters: map[taxonomy.ParameterKind]string{
			taxonomy.KindResistance: "4.7kΩ",
			taxonomy.KindTolerance:  "±1%",
		},
	}

	applyClassification(&p, res)

	if p.ComponentType != "Resistor" || p.ComponentBranch != "Chip Resistor" {
		t.Errorf("type/branch = %q/%q", p.ComponentType, p.ComponentBranch)
	}
	if p.StoragePlace != "A1" {
		t.Errorf("StoragePlace = %q, want A1", p.StoragePlace)
	}
	if p.Resistance != "4.7kΩ" {
		t.Errorf("Resistance = %q, want 4.7kΩ", p.Resistance)
	}
	if p.Tolerance != "±1%" {
		t.Errorf("Tolerance = %q, want ±1%%", p.Tolerance)
	}

	// An unmatched verdict clears the taxonomy columns.
	applyClassification(&p, classify.Result{})
	if p.ComponentType != "" || p.ComponentBranch != "" {
		t.Errorf("unmatched verdict left type/branch %q/%q", p.ComponentType, p.ComponentBranch)
	}
}

func TestExportRoundTrip(t *testing.T) {
	price := 0.05
	comp := database.Component{
		PartNumber:             "C42",
		ManufacturerPartNumber: "MFR-42",
		Manufacturer:           "Acme",
		Package:                "0603",
		Description:            "Capacitor MLCC 100nF 25V",
		OrderQty:               250,
		UnitPrice:              &price,
		ComponentType:          "Capacitor",
		ComponentBranch:        "MLCC",
		StoragePlace:           "B2",
		Capacitance:            "100nF",
		Voltage:                "25V",
	}

	rowVals := ComponentToRow(comp)
	if len(rowVals) != len(ExportHeaders) {
		t.Fatalf("row has %d cells, want %d", len(rowVals), len(ExportHeaders))
	}

	row := make(map[string]string, len(ExportHeaders))
	for i, h := range ExportHeaders {
		row[h] = rowVals[i]
	}
	table := Table{Headers: ExportHeaders, Rows: []map[string]string{row}}

	params, err := ParseDatabaseExport(table)
	if err != nil {
		t.Fatalf("ParseDatabaseExport() error = %v", err)
	}
	if len(params) != 1 {
		t.Fatalf("params = %d, want 1", len(params))
	}
	p := params[0]
	if p.PartNumber != comp.PartNumber {
		t.Errorf("PartNumber = %q", p.PartNumber)
	}
	if p.OrderQty != comp.OrderQty {
		t.Errorf("OrderQty = %d, want %d", p.OrderQty, comp.OrderQty)
	}
	if p.UnitPrice == nil || *p.UnitPrice != price {
		t.Errorf("UnitPrice = %v, want %v", p.UnitPrice, price)
	}
	if p.Capacitance != "100nF" || p.Voltage != "25V" {
		t.Errorf("parameters lost: %q %q", p.Capacitance, p.Voltage)
	}
}

func TestParseDatabaseExport_MissingColumns(t *testing.T) {
	table := Table{Headers: []string{ColPartNumber, ColOrderQty}}
	_, err := ParseDatabaseExport(table)
	if err == nil {
		t.Fatal("ParseDatabaseExport() expected error for missing columns")
	}
	if !strings.Contains(err.Error(), ColDescription) {
		t.Errorf("error should name a missing column: %v", err)
	}
}

func TestRowErrors_Error(t *testing.T) {
	err := &RowErrors{Errors: []string{"row 2: missing required field: LCSC Part Number", "row 5: bad"}}
	msg := err.Error()
	if !strings.Contains(msg, "row 2") || !strings.Contains(msg, "row 5") {
		t.Errorf("Error() = %q, want both rows mentioned", msg)
	}
}

// traceDB satisfies database.DBTX and records statements. Part lookups miss,
// so every valid row takes the insert path.
type traceDB struct {
	sqls []string
}

func (f *traceDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	return pgconn.NewCommandTag(""), nil
}

func (f *traceDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query: " + sql)
}

func (f *traceDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.sqls = append(f.sqls, sql)
	if strings.Contains(sql, "FOR UPDATE") {
		return failRow{pgx.ErrNoRows}
	}
	return blankRow{}
}

type failRow struct{ err error }

func (r failRow) Scan(dest ...any) error { return r.err }

type blankRow struct{}

func (blankRow) Scan(dest ...any) error { return nil }

func testCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	store, err := taxonomy.Open(filepath.Join(t.TempDir(), "taxonomy.json"))
	if err != nil {
		t.Fatalf("taxonomy.Open() error = %v", err)
	}
	return NewCoordinator(nil, store, audit.NewLog(nil, 0))
}

func TestRunImport_SkipsLedgerEntryWhenNothingProcessed(t *testing.T) {
	db := &traceDB{}
	c := testCoordinator(t)

	table := Table{
		Headers: []string{ColPartNumber, ColOrderQty},
		Rows: []map[string]string{
			{ColPartNumber: "", ColOrderQty: "5"},
			{ColPartNumber: "", ColOrderQty: "2"},
		},
	}

	report, err := c.runImport(context.Background(), database.New(db), table, "tester")
	if err != nil {
		t.Fatalf("runImport() error = %v", err)
	}
	if len(report.Errors) != 2 {
		t.Errorf("row errors = %d, want 2", len(report.Errors))
	}
	if report.Added != 0 || report.Updated != 0 {
		t.Errorf("report = %+v, want no changes", report)
	}
	// A batch that changed nothing must not spend a ledger window slot.
	if len(db.sqls) != 0 {
		t.Errorf("statements = %v, want none", db.sqls)
	}
}

func TestRunImport_LogsBatchWithChanges(t *testing.T) {
	db := &traceDB{}
	c := testCoordinator(t)

	table := Table{
		Headers: []string{ColPartNumber, ColOrderQty},
		Rows: []map[string]string{
			{ColPartNumber: "C11702", ColOrderQty: "10"},
			{ColPartNumber: "", ColOrderQty: "3"},
		},
	}

	report, err := c.runImport(context.Background(), database.New(db), table, "tester")
	if err != nil {
		t.Fatalf("runImport() error = %v", err)
	}
	if report.Added != 1 || len(report.Errors) != 1 {
		t.Errorf("report = %+v, want 1 added and 1 row error", report)
	}

	var logged bool
	for _, sql := range db.sqls {
		if strings.Contains(sql, "change_log") {
			logged = true
		}
	}
	if !logged {
		t.Error("batch with changes was not logged")
	}
}
