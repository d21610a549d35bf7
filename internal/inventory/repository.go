// Package inventory is the durable component store: keyed writes with
// merge-on-upsert semantics, clamped quantity deltas, delete with audit
// snapshot capture, and unit-aware search.
//
// Every read-modify-write runs in its own transaction with the component row
// locked, so two concurrent mutations of the same component serialize at the
// database instead of losing one of the updates. The matching audit entry is
// appended inside the same transaction.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"partsbin/internal/audit"
	"partsbin/internal/database"
)

// Component is the inventory record handed to callers.
type Component = database.Component

// ComponentParams carries caller-supplied component fields.
type ComponentParams = database.InsertComponentParams

// Repository provides inventory operations over a connection pool.
type Repository struct {
	pool *pgxpool.Pool
	log  *audit.Log
}

// NewRepository returns a Repository writing audit entries to log.
func NewRepository(pool *pgxpool.Pool, log *audit.Log) *Repository {
	return &Repository{pool: pool, log: log}
}

// Add inserts a brand-new component and logs an add entry with the created
// record as snapshot. A part number collision is ErrDuplicateKey; use Upsert
// for merge semantics.
func (r *Repository) Add(ctx context.Context, p ComponentParams, user string) (Component, error) {
	if p.OrderQty < 0 {
		return Component{}, ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Component{}, fmt.Errorf("begin add: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)
	created, err := q.InsertComponent(ctx, p)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Component{}, fmt.Errorf("%w: %s", ErrDuplicateKey, p.PartNumber)
		}
		return Component{}, fmt.Errorf("insert component: %w", err)
	}

	if _, err := r.log.Append(ctx, q, audit.AppendParams{
		User:        user,
		Action:      audit.ActionAdd,
		ComponentID: &created.ID,
		PartNumber:  &created.PartNumber,
		Details:     created,
	}); err != nil {
		return Component{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Component{}, fmt.Errorf("commit add: %w", err)
	}
	return created, nil
}

// Upsert writes a component by part number. A new part number inserts the
// record with its quantity taken verbatim and logs an add. An existing one
// merges: the supplied quantity is added to stock, unit price and storage
// place only overwrite when supplied, every other field overwrites; the
// quantity movement is logged as an update_quantity entry.
func (r *Repository) Upsert(ctx context.Context, p ComponentParams, user string) (Component, bool, error) {
	if p.OrderQty < 0 {
		return Component{}, false, ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Component{}, false, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	existing, err := q.GetComponentByPartNumberForUpdate(ctx, p.PartNumber)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		created, err := q.InsertComponent(ctx, p)
		if err != nil {
			return Component{}, false, fmt.Errorf("insert component: %w", err)
		}
		if _, err := r.log.Append(ctx, q, audit.AppendParams{
			User:        user,
			Action:      audit.ActionAdd,
			ComponentID: &created.ID,
			PartNumber:  &created.PartNumber,
			Details:     created,
		}); err != nil {
			return Component{}, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return Component{}, false, fmt.Errorf("commit upsert: %w", err)
		}
		return created, true, nil

	case err != nil:
		return Component{}, false, fmt.Errorf("load component %s: %w", p.PartNumber, err)
	}

	merged, err := q.MergeComponent(ctx, p)
	if err != nil {
		return Component{}, false, fmt.Errorf("merge component %s: %w", p.PartNumber, err)
	}

	if p.OrderQty != 0 {
		if _, err := r.log.Append(ctx, q, audit.AppendParams{
			User:        user,
			Action:      audit.ActionUpdateQuantity,
			ComponentID: &merged.ID,
			PartNumber:  &merged.PartNumber,
			Details: audit.QuantityChange{
				Delta:  p.OrderQty,
				OldQty: existing.OrderQty,
				NewQty: merged.OrderQty,
			},
		}); err != nil {
			return Component{}, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Component{}, false, fmt.Errorf("commit upsert: %w", err)
	}
	return merged, false, nil
}

// clampQuantity applies delta to current with a floor of zero. The floor is
// one-way: it bounds what gets stored, not what gets logged.
func clampQuantity(current, delta int32) int32 {
	next := current + delta
	if next < 0 {
		return 0
	}
	return next
}

// DeltaQuantity adds delta to a component's stock, clamped at zero. The
// logged entry records the requested delta, not the clamped movement, which
// is what gives revert its known asymmetry around the floor.
func (r *Repository) DeltaQuantity(ctx context.Context, id int64, delta int32, user string) (Component, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Component{}, fmt.Errorf("begin quantity update: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	current, err := q.GetComponentForUpdate(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Component{}, ErrNotFound
	}
	if err != nil {
		return Component{}, fmt.Errorf("load component %d: %w", id, err)
	}

	newQty := clampQuantity(current.OrderQty, delta)

	updated, err := q.UpdateComponentQuantity(ctx, id, newQty)
	if err != nil {
		return Component{}, fmt.Errorf("update quantity: %w", err)
	}

	if _, err := r.log.Append(ctx, q, audit.AppendParams{
		User:        user,
		Action:      audit.ActionUpdateQuantity,
		ComponentID: &updated.ID,
		PartNumber:  &updated.PartNumber,
		Details: audit.QuantityChange{
			Delta:  delta,
			OldQty: current.OrderQty,
			NewQty: newQty,
		},
	}); err != nil {
		return Component{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Component{}, fmt.Errorf("commit quantity update: %w", err)
	}
	return updated, nil
}

// Delete removes a component and logs its full field snapshot, which is what
// makes the deletion revertible.
func (r *Repository) Delete(ctx context.Context, id int64, user string) (Component, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Component{}, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	deleted, err := q.DeleteComponent(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Component{}, ErrNotFound
	}
	if err != nil {
		return Component{}, fmt.Errorf("delete component %d: %w", id, err)
	}

	if _, err := r.log.Append(ctx, q, audit.AppendParams{
		User:        user,
		Action:      audit.ActionDelete,
		ComponentID: &deleted.ID,
		PartNumber:  &deleted.PartNumber,
		Details:     deleted,
	}); err != nil {
		return Component{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Component{}, fmt.Errorf("commit delete: %w", err)
	}
	return deleted, nil
}

// Get returns one component by id.
func (r *Repository) Get(ctx context.Context, id int64) (Component, error) {
	c, err := database.New(r.pool).GetComponent(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Component{}, ErrNotFound
	}
	if err != nil {
		return Component{}, fmt.Errorf("get component %d: %w", id, err)
	}
	return c, nil
}

// UpdateStoragePlace points one component at a new storage location.
func (r *Repository) UpdateStoragePlace(ctx context.Context, id int64, place string) (Component, error) {
	c, err := database.New(r.pool).UpdateComponentStoragePlace(ctx, id, place)
	if errors.Is(err, pgx.ErrNoRows) {
		return Component{}, ErrNotFound
	}
	if err != nil {
		return Component{}, fmt.Errorf("update storage place: %w", err)
	}
	return c, nil
}

// AssignLocationByBranch bulk-rewrites storage_place for every component of a
// taxonomy branch. This is the propagation step behind the taxonomy store's
// location assignment.
func (r *Repository) AssignLocationByBranch(ctx context.Context, componentType, componentBranch, place string) (int64, error) {
	n, err := database.New(r.pool).AssignStorageByBranch(ctx, componentType, componentBranch, place)
	if err != nil {
		return 0, fmt.Errorf("assign location by branch: %w", err)
	}
	return n, nil
}

// ClearAllLocations drops the storage place of every component.
func (r *Repository) ClearAllLocations(ctx context.Context) (int64, error) {
	n, err := database.New(r.pool).ClearAllStoragePlaces(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear storage places: %w", err)
	}
	return n, nil
}

// StorageData groups every located component by its storage place, for the
// storage map view.
func (r *Repository) StorageData(ctx context.Context) (map[string][]Component, error) {
	components, err := database.New(r.pool).ListComponentsWithStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored components: %w", err)
	}
	byPlace := make(map[string][]Component)
	for _, c := range components {
		byPlace[c.StoragePlace] = append(byPlace[c.StoragePlace], c)
	}
	return byPlace, nil
}

// BranchCounts returns distinct part counts nested by type and branch.
func (r *Repository) BranchCounts(ctx context.Context) (map[string]map[string]int64, error) {
	counts, err := database.New(r.pool).CountComponentsByBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by branch: %w", err)
	}
	out := make(map[string]map[string]int64)
	for _, bc := range counts {
		inner := out[bc.ComponentType]
		if inner == nil {
			inner = make(map[string]int64)
			out[bc.ComponentType] = inner
		}
		inner[bc.ComponentBranch] = bc.Total
	}
	return out, nil
}

// ExportAll returns every component, ordered by id, for CSV export.
func (r *Repository) ExportAll(ctx context.Context) ([]Component, error) {
	components, err := database.New(r.pool).ListComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}
	return components, nil
}

// ReplaceAll wipes the database and loads the given records. Carts and the
// change log go with it; there is nothing meaningful to audit against a
// replaced inventory.
func (r *Repository) ReplaceAll(ctx context.Context, records []ComponentParams) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)
	if err := q.TruncateComponents(ctx); err != nil {
		return 0, fmt.Errorf("truncate inventory: %w", err)
	}

	for i, p := range records {
		if _, err := q.InsertComponent(ctx, p); err != nil {
			return 0, fmt.Errorf("insert record %d (%s): %w", i+1, p.PartNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return len(records), nil
}
