// Package audit maintains the sliding-window change log: an append-only
// ledger of stock-affecting actions, bounded to the most recent WindowSize
// entries, each carrying enough structured detail to be reverted.
//
// Appending and evicting are one atomic unit. Mutations that already run in a
// transaction append through that transaction's Queries, so the ledger entry
// commits or rolls back with the mutation it describes.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"partsbin/internal/database"
)

// DefaultWindowSize is how many entries the ledger retains. Older entries are
// evicted on append; a revert of an evicted entry fails with ErrNotFound.
const DefaultWindowSize = 100

var (
	// ErrNotFound means the log id does not exist, including entries the
	// window has already evicted.
	ErrNotFound = errors.New("audit: log entry not found")

	// ErrUnsupported means the entry's action kind cannot be reverted.
	ErrUnsupported = errors.New("audit: action not revertible")

	// ErrConflict means inventory state changed incompatibly since the
	// logged action, so the revert would not restore what the entry records.
	ErrConflict = errors.New("audit: state changed since logged action")
)

// Action tags a ledger entry with the kind of mutation it records.
type Action string

const (
	ActionAdd            Action = "add"
	ActionUpdateQuantity Action = "update_quantity"
	ActionDelete         Action = "delete"
	ActionCsvImportBatch Action = "csv_import_batch"
	ActionCartCheckout   Action = "cart_checkout"
)

const revertPrefix = "revert_"

// RevertOf returns the action tag for a revert of kind.
func RevertOf(kind Action) Action {
	return Action(revertPrefix + string(kind))
}

// IsRevert reports whether a is itself a revert entry. Reverts are logged but
// never revertible; there is no double-undo.
func (a Action) IsRevert() bool {
	return len(a) > len(revertPrefix) && a[:len(revertPrefix)] == revertPrefix
}

// QuantityChange is the details payload of an update_quantity entry.
type QuantityChange struct {
	Delta  int32 `json:"delta"`
	OldQty int32 `json:"old_qty"`
	NewQty int32 `json:"new_qty"`
}

// Inverse returns the delta that undoes the recorded change. It negates the
// requested delta, not the stored movement: a forward change that clamped at
// zero recorded the full request, so its inverse can overshoot OldQty.
func (c QuantityChange) Inverse() int32 {
	return -c.Delta
}

// RowChange records one row of a CSV import batch.
type RowChange struct {
	PartNumber string `json:"part_number"`
	OldQty     int32  `json:"old_qty"`
	NewQty     int32  `json:"new_qty"`
	// Action is "add" for rows that created a component and "update" for
	// rows merged into existing stock.
	Action string `json:"action"`
}

// ImportBatch is the details payload of a csv_import_batch entry.
type ImportBatch struct {
	BatchID string      `json:"batch_id"`
	Summary string      `json:"summary"`
	Changes []RowChange `json:"changes"`
}

// Checkout is the details payload of one cart_checkout entry.
type Checkout struct {
	Quantity int32 `json:"quantity"`
	OldQty   int32 `json:"old_qty"`
	NewQty   int32 `json:"new_qty"`
}

// Entry is the API shape of one ledger row.
type Entry struct {
	ID          int64           `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	User        string          `json:"user"`
	Action      Action          `json:"action"`
	ComponentID *int64          `json:"component_id,omitempty"`
	PartNumber  *string         `json:"part_number,omitempty"`
	Details     json.RawMessage `json:"details"`
}

func toEntry(row database.ChangeLog) Entry {
	return Entry{
		ID:          row.ID,
		Timestamp:   row.CreatedAt,
		User:        row.UserName,
		Action:      Action(row.Action),
		ComponentID: row.ComponentID,
		PartNumber:  row.PartNumber,
		Details:     json.RawMessage(row.Details),
	}
}

// Log is the ledger service.
type Log struct {
	pool       *pgxpool.Pool
	windowSize int32
}

// NewLog returns a ledger bound to pool. windowSize <= 0 selects the default.
func NewLog(pool *pgxpool.Pool, windowSize int) *Log {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Log{pool: pool, windowSize: int32(windowSize)}
}

// AppendParams describes one entry to append.
type AppendParams struct {
	User        string
	Action      Action
	ComponentID *int64
	PartNumber  *string
	Details     any
}

// Append writes one entry through q and evicts everything beyond the window.
// Pass the transaction's Queries when appending from inside a mutation.
func (l *Log) Append(ctx context.Context, q *database.Queries, p AppendParams) (Entry, error) {
	var details []byte
	if p.Details != nil {
		var err error
		details, err = json.Marshal(p.Details)
		if err != nil {
			return Entry{}, fmt.Errorf("encode audit details: %w", err)
		}
	}

	row, err := q.InsertChangeLog(ctx, database.InsertChangeLogParams{
		UserName:    p.User,
		Action:      string(p.Action),
		ComponentID: p.ComponentID,
		PartNumber:  p.PartNumber,
		Details:     details,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("append audit entry: %w", err)
	}

	if _, err := q.EvictChangeLog(ctx, l.windowSize); err != nil {
		return Entry{}, fmt.Errorf("evict audit window: %w", err)
	}

	return toEntry(row), nil
}

// AppendStandalone appends outside any caller transaction, wrapping the
// insert and the eviction in a transaction of its own.
func (l *Log) AppendStandalone(ctx context.Context, p AppendParams) (Entry, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("begin audit append: %w", err)
	}
	defer tx.Rollback(ctx)

	entry, err := l.Append(ctx, database.New(tx), p)
	if err != nil {
		return Entry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Entry{}, fmt.Errorf("commit audit append: %w", err)
	}
	return entry, nil
}

// ListRecent returns the newest entries, newest first. limit <= 0 or beyond
// the window size returns the whole window.
func (l *Log) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	lim := int32(limit)
	if lim <= 0 || lim > l.windowSize {
		lim = l.windowSize
	}
	rows, err := database.New(l.pool).ListRecentChangeLog(ctx, lim)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toEntry(row))
	}
	return entries, nil
}

// Get returns one entry by id.
func (l *Log) Get(ctx context.Context, id int64) (Entry, error) {
	row, err := database.New(l.pool).GetChangeLog(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get audit entry: %w", err)
	}
	return toEntry(row), nil
}
