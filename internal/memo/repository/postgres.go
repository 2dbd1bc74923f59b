package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const createAreaTable = `
	CREATE TABLE IF NOT EXISTS kv_area (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PostgresRepo implements Area on a single key/value table.
// db is expected to be opened with the pgx stdlib driver.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo creates the kv_area table when missing.
func NewPostgresRepo(ctx context.Context, db *sql.DB) (*PostgresRepo, error) {
	if _, err := db.ExecContext(ctx, createAreaTable); err != nil {
		return nil, fmt.Errorf("create kv_area: %w", err)
	}
	return &PostgresRepo{db: db}, nil
}

func (r *PostgresRepo) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM kv_area WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("select kv_area: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan kv_area: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Set(ctx context.Context, items map[string][]byte) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	const upsert = `
		INSERT INTO kv_area (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	for k, v := range items {
		if _, err := tx.ExecContext(ctx, upsert, k, v); err != nil {
			return fmt.Errorf("upsert %s: %w", k, err)
		}
	}
	return tx.Commit()
}
