package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type migration struct {
	Version string
	SQL     []string
}

var migrations = []migration{
	{
		Version: "0001_kv_entries",
		SQL: []string{
			`CREATE TABLE IF NOT EXISTS kv_entries (
				key TEXT PRIMARY KEY,
				value BLOB NOT NULL,
				updated_at TEXT NOT NULL
			)`,
		},
	},
}

// Migrate applies pending schema migrations, each in its own transaction, and
// records them in schema_migrations.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	const createVersionTable = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			execution_time_ms INTEGER
		)`
	if _, err := cp.db.ExecContext(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := cp.isApplied(ctx, m.Version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		started := time.Now()
		err = cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for i, stmt := range m.SQL {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %s statement %d: %w", m.Version, i+1, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, applied_at, execution_time_ms) VALUES (?, ?, ?)`,
				m.Version, time.Now().UTC().Format(time.RFC3339), time.Since(started).Milliseconds(),
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// AppliedVersions lists recorded migration versions in order.
func (cp *ConnectionPool) AppliedVersions(ctx context.Context) ([]string, error) {
	rows, err := cp.db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func (cp *ConnectionPool) isApplied(ctx context.Context, version string) (bool, error) {
	var exists int
	err := cp.db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ? LIMIT 1`, version).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return true, nil
}
