package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Component is the storage shape of one inventory record. Text parameters
// keep whatever unit spelling the supplier used; unit_price is the only
// genuinely nullable column.
type Component struct {
	ID                     int64    `json:"id"`
	PartNumber             string   `json:"part_number"`
	ManufacturerPartNumber string   `json:"manufacturer_part_number"`
	Manufacturer           string   `json:"manufacturer"`
	Description            string   `json:"description"`
	Package                string   `json:"package"`
	StoragePlace           string   `json:"storage_place"`
	OrderQty               int32    `json:"order_qty"`
	UnitPrice              *float64 `json:"unit_price"`
	ComponentType          string   `json:"component_type"`
	ComponentBranch        string   `json:"component_branch"`
	Resistance             string   `json:"resistance"`
	Capacitance            string   `json:"capacitance"`
	Voltage                string   `json:"voltage"`
	Tolerance              string   `json:"tolerance"`
	Inductance             string   `json:"inductance"`
	CurrentPower           string   `json:"current_power"`
}

const componentColumns = `id, part_number, manufacturer_part_number, manufacturer,
	description, package, storage_place, order_qty, unit_price,
	component_type, component_branch, resistance, capacitance, voltage,
	tolerance, inductance, current_power`

func scanComponent(row pgx.Row) (Component, error) {
	var c Component
	err := row.Scan(
		&c.ID, &c.PartNumber, &c.ManufacturerPartNumber, &c.Manufacturer,
		&c.Description, &c.Package, &c.StoragePlace, &c.OrderQty, &c.UnitPrice,
		&c.ComponentType, &c.ComponentBranch, &c.Resistance, &c.Capacitance,
		&c.Voltage, &c.Tolerance, &c.Inductance, &c.CurrentPower,
	)
	return c, err
}

// CollectComponents drains rows of component columns. Exposed for callers
// that build their own dynamic SELECT over the same column list.
func CollectComponents(rows pgx.Rows) ([]Component, error) {
	defer rows.Close()
	var out []Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *Queries) GetComponent(ctx context.Context, id int64) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`SELECT `+componentColumns+` FROM components WHERE id = $1`, id))
}

// GetComponentForUpdate locks the row for the rest of the transaction so a
// read-modify-write of order_qty cannot lose a concurrent update.
func (q *Queries) GetComponentForUpdate(ctx context.Context, id int64) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`SELECT `+componentColumns+` FROM components WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) GetComponentByPartNumber(ctx context.Context, partNumber string) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`SELECT `+componentColumns+` FROM components WHERE part_number = $1`, partNumber))
}

func (q *Queries) GetComponentByPartNumberForUpdate(ctx context.Context, partNumber string) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`SELECT `+componentColumns+` FROM components WHERE part_number = $1 FOR UPDATE`, partNumber))
}

// GetComponentByAnyPartNumber matches either the supplier part number or the
// manufacturer's own. BOM files carry whichever the designer had at hand.
func (q *Queries) GetComponentByAnyPartNumber(ctx context.Context, partNumber string) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`SELECT `+componentColumns+` FROM components
		 WHERE part_number = $1 OR manufacturer_part_number = $1
		 LIMIT 1`, partNumber))
}

// InsertComponentParams carries every caller-settable column of a component.
type InsertComponentParams struct {
	PartNumber             string
	ManufacturerPartNumber string
	Manufacturer           string
	Description            string
	Package                string
	StoragePlace           string
	OrderQty               int32
	UnitPrice              *float64
	ComponentType          string
	ComponentBranch        string
	Resistance             string
	Capacitance            string
	Voltage                string
	Tolerance              string
	Inductance             string
	CurrentPower           string
}

const insertComponentSQL = `INSERT INTO components (
		part_number, manufacturer_part_number, manufacturer, description,
		package, storage_place, order_qty, unit_price, component_type,
		component_branch, resistance, capacitance, voltage, tolerance,
		inductance, current_power
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING ` + componentColumns

func (q *Queries) InsertComponent(ctx context.Context, p InsertComponentParams) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx, insertComponentSQL,
		p.PartNumber, p.ManufacturerPartNumber, p.Manufacturer, p.Description,
		p.Package, p.StoragePlace, p.OrderQty, p.UnitPrice, p.ComponentType,
		p.ComponentBranch, p.Resistance, p.Capacitance, p.Voltage, p.Tolerance,
		p.Inductance, p.CurrentPower))
}

// RestoreComponent reinserts a deleted component verbatim, keeping its
// original id, then bumps the id sequence past it.
func (q *Queries) RestoreComponent(ctx context.Context, c Component) (Component, error) {
	restored, err := scanComponent(q.db.QueryRow(ctx,
		`INSERT INTO components (`+componentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING `+componentColumns,
		c.ID, c.PartNumber, c.ManufacturerPartNumber, c.Manufacturer,
		c.Description, c.Package, c.StoragePlace, c.OrderQty, c.UnitPrice,
		c.ComponentType, c.ComponentBranch, c.Resistance, c.Capacitance,
		c.Voltage, c.Tolerance, c.Inductance, c.CurrentPower))
	if err != nil {
		return Component{}, err
	}
	_, err = q.db.Exec(ctx,
		`SELECT setval('components_id_seq', (SELECT MAX(id) FROM components))`)
	return restored, err
}

func (q *Queries) UpdateComponentQuantity(ctx context.Context, id int64, qty int32) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`UPDATE components SET order_qty = $2 WHERE id = $1 RETURNING `+componentColumns,
		id, qty))
}

// AddComponentQuantity applies a raw delta without clamping. Used by revert,
// which must not re-clamp.
func (q *Queries) AddComponentQuantity(ctx context.Context, id int64, delta int32) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`UPDATE components SET order_qty = order_qty + $2 WHERE id = $1 RETURNING `+componentColumns,
		id, delta))
}

// MergeComponentParams mirrors InsertComponentParams but is applied to an
// existing row: OrderQty is added, UnitPrice and StoragePlace only overwrite
// when a value is actually supplied, everything else overwrites.
type MergeComponentParams = InsertComponentParams

func (q *Queries) MergeComponent(ctx context.Context, p MergeComponentParams) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`UPDATE components SET
			order_qty = order_qty + $2,
			unit_price = COALESCE($3, unit_price),
			storage_place = COALESCE(NULLIF($4, ''), storage_place),
			manufacturer_part_number = $5,
			manufacturer = $6,
			description = $7,
			package = $8,
			component_type = $9,
			component_branch = $10,
			resistance = $11,
			capacitance = $12,
			voltage = $13,
			tolerance = $14,
			inductance = $15,
			current_power = $16
		WHERE part_number = $1
		RETURNING `+componentColumns,
		p.PartNumber, p.OrderQty, p.UnitPrice, p.StoragePlace,
		p.ManufacturerPartNumber, p.Manufacturer, p.Description, p.Package,
		p.ComponentType, p.ComponentBranch, p.Resistance, p.Capacitance,
		p.Voltage, p.Tolerance, p.Inductance, p.CurrentPower))
}

func (q *Queries) UpdateComponentStoragePlace(ctx context.Context, id int64, place string) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`UPDATE components SET storage_place = $2 WHERE id = $1 RETURNING `+componentColumns,
		id, place))
}

// AssignStorageByBranch rewrites storage_place for every component of one
// taxonomy branch. Returns the number of rows touched.
func (q *Queries) AssignStorageByBranch(ctx context.Context, componentType, componentBranch, place string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE components SET storage_place = $3
		 WHERE component_type = $1 AND component_branch = $2`,
		componentType, componentBranch, place)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ClearAllStoragePlaces(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE components SET storage_place = '' WHERE storage_place <> ''`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteComponent removes the row and returns its last state for the audit
// snapshot.
func (q *Queries) DeleteComponent(ctx context.Context, id int64) (Component, error) {
	return scanComponent(q.db.QueryRow(ctx,
		`DELETE FROM components WHERE id = $1 RETURNING `+componentColumns, id))
}

func (q *Queries) DeleteComponentByPartNumber(ctx context.Context, partNumber string) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM components WHERE part_number = $1`, partNumber)
	return err
}

func (q *Queries) SetComponentQuantityByPartNumber(ctx context.Context, partNumber string, qty int32) error {
	_, err := q.db.Exec(ctx,
		`UPDATE components SET order_qty = $2 WHERE part_number = $1`, partNumber, qty)
	return err
}

func (q *Queries) ListComponents(ctx context.Context) ([]Component, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+componentColumns+` FROM components ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return CollectComponents(rows)
}

func (q *Queries) ListComponentsWithStorage(ctx context.Context) ([]Component, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+componentColumns+` FROM components
		 WHERE storage_place <> '' ORDER BY storage_place, id`)
	if err != nil {
		return nil, err
	}
	return CollectComponents(rows)
}

// BranchCount is one (type, branch) bucket with its distinct part count.
type BranchCount struct {
	ComponentType   string `json:"component_type"`
	ComponentBranch string `json:"component_branch"`
	Total           int64  `json:"total"`
}

func (q *Queries) CountComponentsByBranch(ctx context.Context) ([]BranchCount, error) {
	rows, err := q.db.Query(ctx,
		`SELECT component_type, component_branch, COUNT(DISTINCT part_number)
		 FROM components
		 GROUP BY component_type, component_branch`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BranchCount
	for rows.Next() {
		var bc BranchCount
		if err := rows.Scan(&bc.ComponentType, &bc.ComponentBranch, &bc.Total); err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, rows.Err()
}

// TruncateComponents wipes all inventory state, including carts and the
// change log, and restarts id sequences. Only the destructive whole-database
// import uses it.
func (q *Queries) TruncateComponents(ctx context.Context) error {
	_, err := q.db.Exec(ctx,
		`TRUNCATE components, cart_items, change_log RESTART IDENTITY CASCADE`)
	return err
}
