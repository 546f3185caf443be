package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds SQLite connection settings.
type Config struct {
	// DSN is the database file path or connection string.
	DSN string
	// BusyTimeout sets how long to wait for database locks.
	BusyTimeout time.Duration
	// JournalMode sets the SQLite journal mode (WAL, DELETE, ...).
	JournalMode string
}

// DefaultConfig returns settings suitable for a single local process.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:         dsn,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
	}
}

// ConnectionPool manages the SQLite connection with transaction support.
type ConnectionPool struct {
	db *sql.DB
}

// Open creates the database file if needed, applies pragmas and verifies the
// connection.
func Open(ctx context.Context, cfg Config) (*ConnectionPool, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("sqlite: dsn is required")
	}
	if err := ensureDir(cfg.DSN); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// Writers serialize on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
	}
	if cfg.JournalMode != "" && !isMemoryDSN(cfg.DSN) {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+cfg.JournalMode)
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return &ConnectionPool{db: db}, nil
}

// DB returns the underlying database connection.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn within a transaction. The transaction is rolled
// back when fn returns an error or panics and committed otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func ensureDir(dsn string) error {
	if isMemoryDSN(dsn) {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
