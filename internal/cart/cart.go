// Package cart stages per-user picks against inventory. Staged rows are
// ephemeral and unaudited; only checkout touches stock and the change log.
package cart

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

var (
	// ErrEmpty means the user's cart has no rows to check out.
	ErrEmpty = errors.New("cart: cart is empty")

	// ErrItemNotFound means the cart row does not exist for this user.
	ErrItemNotFound = errors.New("cart: item not found")

	// ErrInvalidQuantity means a staged quantity below one was requested.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
)

// InsufficientStockError reports a checkout line that asks for more units
// than the component has.
type InsufficientStockError struct {
	PartNumber string
	Requested  int32
	Available  int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("cart: insufficient stock for %s: requested %d, have %d",
		e.PartNumber, e.Requested, e.Available)
}

// Item is one staged row.
type Item = database.CartItem

// Line is a staged row joined with its component.
type Line = database.CartLine

// Service provides cart operations.
type Service struct {
	pool *pgxpool.Pool
	log  *audit.Log
}

// NewService returns a cart service writing checkout entries to log.
func NewService(pool *pgxpool.Pool, log *audit.Log) *Service {
	return &Service{pool: pool, log: log}
}

// Add stages quantity units of a component, merging with an existing row for
// the same component.
func (s *Service) Add(ctx context.Context, user string, componentID int64, quantity int32) (Item, error) {
	if quantity < 1 {
		return Item{}, ErrInvalidQuantity
	}
	item, err := database.New(s.pool).UpsertCartItem(ctx, user, componentID, quantity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Item{}, fmt.Errorf("cart: component %d does not exist", componentID)
		}
		return Item{}, fmt.Errorf("add to cart: %w", err)
	}
	return item, nil
}

// List returns the user's staged lines with component details.
func (s *Service) List(ctx context.Context, user string) ([]Line, error) {
	lines, err := database.New(s.pool).ListCartLines(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return lines, nil
}

// SetQuantity replaces the staged quantity of one row.
func (s *Service) SetQuantity(ctx context.Context, id int64, user string, quantity int32) (Item, error) {
	if quantity < 1 {
		return Item{}, ErrInvalidQuantity
	}
	item, err := database.New(s.pool).SetCartItemQuantity(ctx, id, user, quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("update cart quantity: %w", err)
	}
	return item, nil
}

// Remove deletes one staged row.
func (s *Service) Remove(ctx context.Context, id int64, user string) error {
	n, err := database.New(s.pool).DeleteCartItem(ctx, id, user)
	if err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Clear drops every staged row of the user.
func (s *Service) Clear(ctx context.Context, user string) error {
	if _, err := database.New(s.pool).ClearCart(ctx, user); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Checkout removes every staged quantity from stock in one transaction. Any
// line short on stock aborts the whole checkout. Each line gets its own
// cart_checkout ledger entry; checkouts are not revertible, so restocking is
// always a fresh mutation.
func (s *Service) Checkout(ctx context.Context, user string) ([]Line, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	lines, err := q.ListCartLinesForUpdate(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmpty
	}

	for _, line := range lines {
		newQty := line.OrderQty - line.CartQuantity
		if newQty < 0 {
			return nil, &InsufficientStockError{
				PartNumber: line.PartNumber,
				Requested:  line.CartQuantity,
				Available:  line.OrderQty,
			}
		}

		if _, err := q.UpdateComponentQuantity(ctx, line.ID, newQty); err != nil {
			return nil, fmt.Errorf("decrement %s: %w", line.PartNumber, err)
		}

		if _, err := s.log.Append(ctx, q, audit.AppendParams{
			User:        user,
			Action:      audit.ActionCartCheckout,
			ComponentID: &line.ID,
			PartNumber:  &line.PartNumber,
			Details: audit.Checkout{
				Quantity: line.CartQuantity,
				OldQty:   line.OrderQty,
				NewQty:   newQty,
			},
		}); err != nil {
			return nil, err
		}
	}

	if _, err := q.ClearCart(ctx, user); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}
	return lines, nil
}
