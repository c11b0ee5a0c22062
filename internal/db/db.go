package db

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const scoreSchema = `
	CREATE TABLE IF NOT EXISTS scores (
		name TEXT PRIMARY KEY,
		score INTEGER NOT NULL DEFAULT 0
	);`

// OpenSQLite opens the SQLite database at path and makes sure the score schema exists.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	pool, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	pool.SetMaxOpenConns(1)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	if _, err := pool.ExecContext(ctx, scoreSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create scores table: %w", err)
	}

	slog.InfoContext(ctx, "sqlite score store ready", "db.path", path)
	return pool, nil
}
