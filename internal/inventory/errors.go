package inventory

import "errors"

var (
	// ErrNotFound means no component exists for the given id or part number.
	ErrNotFound = errors.New("inventory: component not found")

	// ErrDuplicateKey means a raw insert hit the part_number unique
	// constraint. The upsert path never returns this.
	ErrDuplicateKey = errors.New("inventory: part number already exists")

	// ErrInvalidQuantity means a caller tried to set a negative quantity
	// explicitly. Deltas are clamped instead.
	ErrInvalidQuantity = errors.New("inventory: quantity must not be negative")
)
