package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"partsbin/internal/database"
)

// recordDB satisfies database.DBTX and records every statement, so the
// ledger's append path can be exercised without a live database.
type recordDB struct {
	execSQL  []string
	execArgs [][]any
}

func (f *recordDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func (f *recordDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query: " + sql)
}

func (f *recordDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nopRow{}
}

type nopRow struct{}

func (nopRow) Scan(dest ...any) error { return nil }

func TestRevertOf(t *testing.T) {
	tests := []struct {
		kind Action
		want Action
	}{
		{ActionAdd, "revert_add"},
		{ActionUpdateQuantity, "revert_update_quantity"},
		{ActionDelete, "revert_delete"},
		{ActionCsvImportBatch, "revert_csv_import_batch"},
	}
	for _, tt := range tests {
		if got := RevertOf(tt.kind); got != tt.want {
			t.Errorf("RevertOf(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestIsRevert(t *testing.T) {
	for _, a := range []Action{ActionAdd, ActionUpdateQuantity, ActionDelete, ActionCsvImportBatch, ActionCartCheckout} {
		if a.IsRevert() {
			t.Errorf("%q.IsRevert() = true, want false", a)
		}
		if !RevertOf(a).IsRevert() {
			t.Errorf("RevertOf(%q).IsRevert() = false, want true", a)
		}
	}
	// The bare prefix is not a revert of anything.
	if Action("revert_").IsRevert() {
		t.Error(`Action("revert_").IsRevert() = true, want false`)
	}
}

func TestRevertible(t *testing.T) {
	tests := []struct {
		action Action
		want   bool
	}{
		{ActionAdd, true},
		{ActionUpdateQuantity, true},
		{ActionDelete, true},
		{ActionCsvImportBatch, true},
		{ActionCartCheckout, false},
		{RevertOf(ActionAdd), false},
		{RevertOf(ActionCsvImportBatch), false},
		{Action("bogus"), false},
	}
	for _, tt := range tests {
		if got := tt.action.Revertible(); got != tt.want {
			t.Errorf("%q.Revertible() = %v, want %v", tt.action, got, tt.want)
		}
	}
}

func TestQuantityChangeInverse(t *testing.T) {
	tests := []struct {
		name   string
		change QuantityChange
		want   int32
	}{
		{"undo removal", QuantityChange{Delta: -5, OldQty: 20, NewQty: 15}, 5},
		{"undo addition", QuantityChange{Delta: 7, OldQty: 0, NewQty: 7}, -7},
		{"undo nothing", QuantityChange{Delta: 0, OldQty: 3, NewQty: 3}, 0},
		// The forward change clamped at zero, so the inverse overshoots the
		// old quantity. The floor of the forward path is not recoverable.
		{"undo clamped removal", QuantityChange{Delta: -50, OldQty: 30, NewQty: 0}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.Inverse(); got != tt.want {
				t.Errorf("Inverse() = %d, want %d", got, tt.want)
			}
			if tt.name == "undo clamped removal" {
				if restored := tt.change.NewQty + tt.change.Inverse(); restored == tt.change.OldQty {
					t.Errorf("restored = %d, expected overshoot past %d",
						restored, tt.change.OldQty)
				}
			}
		})
	}
}

func TestAppendEvictsKeepingWindow(t *testing.T) {
	db := &recordDB{}
	log := NewLog(nil, 0)

	// Entry ids are monotonic, so a keep window of the newest 100 rows
	// makes the first entry unreachable once 101 have been appended.
	for i := 0; i < DefaultWindowSize+1; i++ {
		if _, err := log.Append(context.Background(), database.New(db), AppendParams{
			User:   "tester",
			Action: ActionUpdateQuantity,
		}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	if len(db.execSQL) != DefaultWindowSize+1 {
		t.Fatalf("evictions = %d, want one per append", len(db.execSQL))
	}
	for i, sql := range db.execSQL {
		if !strings.Contains(sql, "ORDER BY id DESC LIMIT $1") {
			t.Fatalf("eviction %d does not keep the newest entries: %s", i, sql)
		}
		if args := db.execArgs[i]; len(args) != 1 || args[0] != int32(DefaultWindowSize) {
			t.Fatalf("eviction %d keep = %v, want %d", i, args, DefaultWindowSize)
		}
	}
}

func TestNewLogWindowSize(t *testing.T) {
	if got := NewLog(nil, 0).windowSize; got != DefaultWindowSize {
		t.Errorf("windowSize = %d, want default %d", got, DefaultWindowSize)
	}
	if got := NewLog(nil, -3).windowSize; got != DefaultWindowSize {
		t.Errorf("windowSize = %d, want default %d", got, DefaultWindowSize)
	}
	if got := NewLog(nil, 25).windowSize; got != 25 {
		t.Errorf("windowSize = %d, want 25", got)
	}
}

func TestQuantityChangeJSON(t *testing.T) {
	// The delta recorded is the requested one, which can differ from the
	// applied change when the floor clamped the result.
	in := QuantityChange{Delta: -50, OldQty: 30, NewQty: 0}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out QuantityChange
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestImportBatchJSON(t *testing.T) {
	in := ImportBatch{
		BatchID: "b-1",
		Summary: "CSV import: 1 new items, 1 updated items",
		Changes: []RowChange{
			{PartNumber: "C1", OldQty: 0, NewQty: 10, Action: "add"},
			{PartNumber: "C2", OldQty: 5, NewQty: 15, Action: "update"},
		},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out ImportBatch
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.BatchID != in.BatchID || len(out.Changes) != 2 || out.Changes[1].Action != "update" {
		t.Errorf("round trip = %+v", out)
	}
}
