package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// CartItem is one per-user staging row.
type CartItem struct {
	ID          int64  `json:"id"`
	UserName    string `json:"user"`
	ComponentID int64  `json:"component_id"`
	Quantity    int32  `json:"quantity"`
}

// CartLine joins a staged item with its component for display and checkout.
type CartLine struct {
	Component
	CartItemID   int64 `json:"cart_item_id"`
	CartQuantity int32 `json:"cart_quantity"`
}

// UpsertCartItem stages quantity units of a component for user, adding to the
// staged quantity when the component is already in the cart.
func (q *Queries) UpsertCartItem(ctx context.Context, user string, componentID int64, quantity int32) (CartItem, error) {
	var it CartItem
	err := q.db.QueryRow(ctx,
		`INSERT INTO cart_items (user_name, component_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_name, component_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING id, user_name, component_id, quantity`,
		user, componentID, quantity).
		Scan(&it.ID, &it.UserName, &it.ComponentID, &it.Quantity)
	return it, err
}

// SetCartItemQuantity replaces the staged quantity of one cart row. The user
// filter keeps one user from editing another's cart.
func (q *Queries) SetCartItemQuantity(ctx context.Context, id int64, user string, quantity int32) (CartItem, error) {
	var it CartItem
	err := q.db.QueryRow(ctx,
		`UPDATE cart_items SET quantity = $3
		 WHERE id = $1 AND user_name = $2
		 RETURNING id, user_name, component_id, quantity`,
		id, user, quantity).
		Scan(&it.ID, &it.UserName, &it.ComponentID, &it.Quantity)
	return it, err
}

func (q *Queries) DeleteCartItem(ctx context.Context, id int64, user string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_name = $2`, id, user)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ClearCart(ctx context.Context, user string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM cart_items WHERE user_name = $1`, user)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const cartLineSQL = `SELECT c.id, c.part_number, c.manufacturer_part_number,
	c.manufacturer, c.description, c.package, c.storage_place, c.order_qty,
	c.unit_price, c.component_type, c.component_branch, c.resistance,
	c.capacitance, c.voltage, c.tolerance, c.inductance, c.current_power,
	ci.id, ci.quantity
	FROM components c
	JOIN cart_items ci ON ci.component_id = c.id
	WHERE ci.user_name = $1
	ORDER BY ci.id`

func (q *Queries) ListCartLines(ctx context.Context, user string) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, cartLineSQL, user)
	if err != nil {
		return nil, err
	}
	return collectCartLines(rows)
}

// ListCartLinesForUpdate locks the component rows for checkout so the stock
// check and the decrement see the same quantities.
func (q *Queries) ListCartLinesForUpdate(ctx context.Context, user string) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, cartLineSQL+` FOR UPDATE OF c`, user)
	if err != nil {
		return nil, err
	}
	return collectCartLines(rows)
}

func collectCartLines(rows pgx.Rows) ([]CartLine, error) {
	defer rows.Close()
	var out []CartLine
	for rows.Next() {
		var l CartLine
		err := rows.Scan(
			&l.ID, &l.PartNumber, &l.ManufacturerPartNumber, &l.Manufacturer,
			&l.Description, &l.Package, &l.StoragePlace, &l.OrderQty, &l.UnitPrice,
			&l.ComponentType, &l.ComponentBranch, &l.Resistance, &l.Capacitance,
			&l.Voltage, &l.Tolerance, &l.Inductance, &l.CurrentPower,
			&l.CartItemID, &l.CartQuantity,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
