package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on startup. Statements are idempotent so restarts are
// safe without a migration tool.
//
// order_qty deliberately has no CHECK (order_qty >= 0): forward mutations
// clamp at zero in the application, but reverting a clamped change is allowed
// to drive the stored quantity negative.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS components (
		id BIGSERIAL PRIMARY KEY,
		part_number TEXT NOT NULL UNIQUE,
		manufacturer_part_number TEXT NOT NULL DEFAULT '',
		manufacturer TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		package TEXT NOT NULL DEFAULT '',
		storage_place TEXT NOT NULL DEFAULT '',
		order_qty INTEGER NOT NULL DEFAULT 0,
		unit_price DOUBLE PRECISION,
		component_type TEXT NOT NULL DEFAULT '',
		component_branch TEXT NOT NULL DEFAULT '',
		resistance TEXT NOT NULL DEFAULT '',
		capacitance TEXT NOT NULL DEFAULT '',
		voltage TEXT NOT NULL DEFAULT '',
		tolerance TEXT NOT NULL DEFAULT '',
		inductance TEXT NOT NULL DEFAULT '',
		current_power TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_components_branch
		ON components (component_type, component_branch)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id BIGSERIAL PRIMARY KEY,
		user_name TEXT NOT NULL,
		component_id BIGINT NOT NULL REFERENCES components (id) ON DELETE CASCADE,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		UNIQUE (user_name, component_id)
	)`,
	`CREATE TABLE IF NOT EXISTS change_log (
		id BIGSERIAL PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		user_name TEXT NOT NULL,
		action TEXT NOT NULL,
		component_id BIGINT,
		part_number TEXT,
		details JSONB NOT NULL DEFAULT 'null'
	)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
