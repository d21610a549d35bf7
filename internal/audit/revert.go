package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"partsbin/internal/database"
)

// Revertible reports whether an entry of this kind can be reverted at all.
// Cart checkouts are explicitly one-way (restocking is a new mutation), and
// revert entries themselves are never reverted again.
func (a Action) Revertible() bool {
	switch a {
	case ActionAdd, ActionUpdateQuantity, ActionDelete, ActionCsvImportBatch:
		return true
	}
	return false
}

// Revert undoes the mutation a ledger entry records and appends a counter
// entry tagged revert_<kind>. The whole revert, counter entry included, is
// one transaction.
//
// Failure modes: ErrNotFound when the id is absent (or already evicted by the
// window), ErrUnsupported for kinds that cannot be reverted, ErrConflict when
// inventory state has drifted so the revert would not land on the recorded
// state.
func (l *Log) Revert(ctx context.Context, logID int64, user string) (Entry, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("begin revert: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	row, err := q.GetChangeLog(ctx, logID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load log entry %d: %w", logID, err)
	}

	entry := toEntry(row)
	if !entry.Action.Revertible() {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnsupported, entry.Action)
	}

	switch entry.Action {
	case ActionAdd:
		err = revertAdd(ctx, q, entry)
	case ActionUpdateQuantity:
		err = revertUpdateQuantity(ctx, q, entry)
	case ActionDelete:
		err = revertDelete(ctx, q, entry)
	case ActionCsvImportBatch:
		err = revertImportBatch(ctx, q, entry)
	}
	if err != nil {
		return Entry{}, err
	}

	counter, err := l.Append(ctx, q, AppendParams{
		User:        user,
		Action:      RevertOf(entry.Action),
		ComponentID: entry.ComponentID,
		PartNumber:  entry.PartNumber,
		Details:     json.RawMessage(entry.Details),
	})
	if err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, fmt.Errorf("commit revert: %w", err)
	}
	return counter, nil
}

// revertAdd deletes the component the entry created. The recorded snapshot's
// quantity must still match; anything else has touched the record since, and
// deleting it would destroy that later change.
func revertAdd(ctx context.Context, q *database.Queries, entry Entry) error {
	var snapshot database.Component
	if err := json.Unmarshal(entry.Details, &snapshot); err != nil {
		return fmt.Errorf("decode add snapshot: %w", err)
	}

	current, err := q.GetComponentForUpdate(ctx, snapshot.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: component %d already gone", ErrConflict, snapshot.ID)
	}
	if err != nil {
		return fmt.Errorf("load component %d: %w", snapshot.ID, err)
	}
	if current.OrderQty != snapshot.OrderQty {
		return fmt.Errorf("%w: quantity moved from %d to %d since add",
			ErrConflict, snapshot.OrderQty, current.OrderQty)
	}

	if _, err := q.DeleteComponent(ctx, snapshot.ID); err != nil {
		return fmt.Errorf("delete component %d: %w", snapshot.ID, err)
	}
	return nil
}

// revertUpdateQuantity applies the inverse delta without re-clamping. If the
// forward change clamped at zero this can legitimately drive the quantity
// negative; the forward clamp is not recoverable from the entry alone.
func revertUpdateQuantity(ctx context.Context, q *database.Queries, entry Entry) error {
	var change QuantityChange
	if err := json.Unmarshal(entry.Details, &change); err != nil {
		return fmt.Errorf("decode quantity change: %w", err)
	}
	if entry.ComponentID == nil {
		return fmt.Errorf("%w: entry has no component id", ErrConflict)
	}

	_, err := q.AddComponentQuantity(ctx, *entry.ComponentID, change.Inverse())
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: component %d no longer exists", ErrConflict, *entry.ComponentID)
	}
	if err != nil {
		return fmt.Errorf("apply inverse delta: %w", err)
	}
	return nil
}

// revertDelete reinserts the recorded snapshot verbatim, original id
// included. Without a full snapshot the entry cannot be reverted.
func revertDelete(ctx context.Context, q *database.Queries, entry Entry) error {
	var snapshot database.Component
	if err := json.Unmarshal(entry.Details, &snapshot); err != nil || snapshot.PartNumber == "" {
		return fmt.Errorf("%w: delete entry has no field snapshot", ErrUnsupported)
	}

	if _, err := q.RestoreComponent(ctx, snapshot); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: id or part number reused since delete", ErrConflict)
		}
		return fmt.Errorf("restore component %d: %w", snapshot.ID, err)
	}
	return nil
}

// revertImportBatch walks the batch's row changes: rows that merged into
// existing stock get their old quantity back, rows that created a component
// lose it again.
func revertImportBatch(ctx context.Context, q *database.Queries, entry Entry) error {
	var batch ImportBatch
	if err := json.Unmarshal(entry.Details, &batch); err != nil {
		return fmt.Errorf("decode import batch: %w", err)
	}

	for _, change := range batch.Changes {
		switch change.Action {
		case "update":
			if err := q.SetComponentQuantityByPartNumber(ctx, change.PartNumber, change.OldQty); err != nil {
				return fmt.Errorf("restore quantity for %s: %w", change.PartNumber, err)
			}
		case "add":
			if err := q.DeleteComponentByPartNumber(ctx, change.PartNumber); err != nil {
				return fmt.Errorf("remove imported %s: %w", change.PartNumber, err)
			}
		default:
			return fmt.Errorf("%w: unknown row action %q", ErrUnsupported, change.Action)
		}
	}
	return nil
}
