// Package db opens the database handles for the supported flavours and
// bootstraps the core SQLite tables.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/harishgurram/PROTON/internal/repository"
)

// defaultTableSchema is the bookkeeping table recording scaffold-generation
// events. The scaffolding generator itself lives outside this server; only
// the table is provisioned here.
const defaultTableSchema = `
CREATE TABLE IF NOT EXISTS "PROTON_default" (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    creation_date_time TIMESTAMP,
    deletion_date_time TIMESTAMP,
    target_mic_stack TEXT,
    target_database TEXT,
    target_table TEXT
);
`

// InitSQLite opens the SQLite database at path and enables foreign key
// enforcement. The registry tables are created by BootstrapSQLite.
func InitSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

// BootstrapSQLite creates the user registry, login registry, and default
// bookkeeping tables if any of them is missing. It is idempotent and must
// run before the SQLite flavour accepts signups.
func BootstrapSQLite(ctx context.Context, db *sql.DB, names repository.Names) error {
	gateway := repository.NewSQLiteGateway(db, names)

	if err := gateway.CreateUserTable(ctx, db); err != nil {
		return fmt.Errorf("create user registry: %w", err)
	}

	if err := gateway.CreateLoginTable(ctx, db); err != nil {
		return fmt.Errorf("create login registry: %w", err)
	}

	if _, err := db.ExecContext(ctx, defaultTableSchema); err != nil {
		return fmt.Errorf("create default table: %w", err)
	}

	return nil
}

// InitPostgres opens a PostgreSQL connection. No DDL runs here: the
// PostgreSQL flavour provisions its schema and tables lazily during signup.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
