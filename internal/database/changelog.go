package database

import (
	"context"
	"time"
)

// ChangeLog is one row of the append-only mutation ledger. Details is the
// action-specific JSON payload; its shape depends on Action.
type ChangeLog struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserName    string    `json:"user"`
	Action      string    `json:"action"`
	ComponentID *int64    `json:"component_id"`
	PartNumber  *string   `json:"part_number"`
	Details     []byte    `json:"details"`
}

// InsertChangeLogParams carries one ledger entry to append.
type InsertChangeLogParams struct {
	UserName    string
	Action      string
	ComponentID *int64
	PartNumber  *string
	Details     []byte
}

func (q *Queries) InsertChangeLog(ctx context.Context, p InsertChangeLogParams) (ChangeLog, error) {
	details := p.Details
	if details == nil {
		details = []byte("null")
	}
	var e ChangeLog
	err := q.db.QueryRow(ctx,
		`INSERT INTO change_log (user_name, action, component_id, part_number, details)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, user_name, action, component_id, part_number, details`,
		p.UserName, p.Action, p.ComponentID, p.PartNumber, details).
		Scan(&e.ID, &e.CreatedAt, &e.UserName, &e.Action, &e.ComponentID, &e.PartNumber, &e.Details)
	return e, err
}

func (q *Queries) GetChangeLog(ctx context.Context, id int64) (ChangeLog, error) {
	var e ChangeLog
	err := q.db.QueryRow(ctx,
		`SELECT id, created_at, user_name, action, component_id, part_number, details
		 FROM change_log WHERE id = $1`, id).
		Scan(&e.ID, &e.CreatedAt, &e.UserName, &e.Action, &e.ComponentID, &e.PartNumber, &e.Details)
	return e, err
}

func (q *Queries) ListRecentChangeLog(ctx context.Context, limit int32) ([]ChangeLog, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, created_at, user_name, action, component_id, part_number, details
		 FROM change_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChangeLog
	for rows.Next() {
		var e ChangeLog
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.UserName, &e.Action,
			&e.ComponentID, &e.PartNumber, &e.Details); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EvictChangeLog drops every entry older than the newest keep entries.
// Entries are ordered by id, not timestamp: ids are monotonic and immune to
// clock skew.
func (q *Queries) EvictChangeLog(ctx context.Context, keep int32) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM change_log WHERE id NOT IN (
			SELECT id FROM change_log ORDER BY id DESC LIMIT $1
		)`, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
