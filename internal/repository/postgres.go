package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/harishgurram/PROTON/internal/models"
)

// PostgresGateway implements the signup gateway contract on top of a
// PostgreSQL server. Unlike SQLite, this backend self-provisions: the
// target schema and the registry tables are created lazily on first use.
type PostgresGateway struct {
	// DB is the database handle for executing queries.
	DB *sql.DB

	names Names
}

// NewPostgresGateway creates a PostgresGateway over db targeting the given
// registry names. db must be a valid *sql.DB connected to a PostgreSQL
// instance.
func NewPostgresGateway(db *sql.DB, names Names) *PostgresGateway {
	return &PostgresGateway{DB: db, names: names}
}

// qualified returns the schema-qualified, quoted identifier for a table.
func (g *PostgresGateway) qualified(table string) string {
	return pq.QuoteIdentifier(g.names.Schema) + "." + pq.QuoteIdentifier(table)
}

// LazyProvision reports whether the backend provisions its tables on first
// use. PostgreSQL does.
func (g *PostgresGateway) LazyProvision() bool {
	return true
}

// InTransaction runs fn inside a transaction on the PostgreSQL database,
// committing on success and rolling back on error or panic.
func (g *PostgresGateway) InTransaction(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error {
	return inTransaction(ctx, g.DB, fn)
}

// EnsureSchema creates the target schema if it is absent. It runs on the
// database handle, not inside a signup transaction: a failed CREATE SCHEMA
// would poison the transaction and make the commit fail as well.
func (g *PostgresGateway) EnsureSchema(ctx context.Context) error {
	_, err := g.DB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pq.QuoteIdentifier(g.names.Schema)))
	if err != nil {
		return fmt.Errorf("create schema %s: %w", g.names.Schema, err)
	}
	return nil
}

func (g *PostgresGateway) tableExists(ctx context.Context, q DBTX, table string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)`,
		g.names.Schema, table,
	).Scan(&exists)
	return exists, err
}

// UserTableExists checks whether the user registry table exists in the
// target schema.
func (g *PostgresGateway) UserTableExists(ctx context.Context, q DBTX) (bool, error) {
	return g.tableExists(ctx, q, g.names.UserTable)
}

// LoginTableExists checks whether the login registry table exists in the
// target schema.
func (g *PostgresGateway) LoginTableExists(ctx context.Context, q DBTX) (bool, error) {
	return g.tableExists(ctx, q, g.names.LoginTable)
}

// CreateUserTable creates the user registry table if it does not exist.
// The unique index on email backs up the application-level duplicate check.
func (g *PostgresGateway) CreateUserTable(ctx context.Context, q DBTX) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id SERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		creation_date_time TIMESTAMP NOT NULL
	)`, g.qualified(g.names.UserTable))
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// CreateLoginTable creates the login registry table if it does not exist.
func (g *PostgresGateway) CreateLoginTable(ctx context.Context, q DBTX) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id SERIAL PRIMARY KEY,
		user_registry_id INTEGER NOT NULL REFERENCES %s (id) ON UPDATE CASCADE ON DELETE CASCADE,
		user_name TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		last_login_date_time TIMESTAMP
	)`, g.qualified(g.names.LoginTable), g.qualified(g.names.UserTable))
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// UserIDByEmail returns the id of the user row with the given email.
// The second return value reports whether such a row exists.
func (g *PostgresGateway) UserIDByEmail(ctx context.Context, q DBTX, email string) (int64, bool, error) {
	var id int64
	query := fmt.Sprintf(`SELECT id FROM %s WHERE email = $1`, g.qualified(g.names.UserTable))
	err := q.QueryRowContext(ctx, query, email).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// LoginIDByUserName returns the id of the login row with the given user name.
// The second return value reports whether such a row exists.
func (g *PostgresGateway) LoginIDByUserName(ctx context.Context, q DBTX, userName string) (int64, bool, error) {
	var id int64
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_name = $1`, g.qualified(g.names.LoginTable))
	err := q.QueryRowContext(ctx, query, userName).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// InsertUser inserts a profile row. The generated id is obtained by a
// follow-up UserIDByEmail lookup.
func (g *PostgresGateway) InsertUser(ctx context.Context, q DBTX, user models.User) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (first_name, last_name, email, creation_date_time) VALUES ($1, $2, $3, $4)`,
		g.qualified(g.names.UserTable),
	)
	_, err := q.ExecContext(ctx, query, user.FirstName, user.LastName, user.Email, user.CreationDateTime)
	return err
}

// InsertLogin inserts a credentials row referencing an existing user row.
func (g *PostgresGateway) InsertLogin(ctx context.Context, q DBTX, login models.Login) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (user_registry_id, user_name, password_hash) VALUES ($1, $2, $3)`,
		g.qualified(g.names.LoginTable),
	)
	_, err := q.ExecContext(ctx, query, login.UserRegistryID, login.UserName, login.PasswordHash)
	return err
}

// DeleteUserByEmail removes the user row with the given email. The signup
// service uses this as the compensating action when a username conflict is
// found after the profile row was already inserted.
func (g *PostgresGateway) DeleteUserByEmail(ctx context.Context, q DBTX, email string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE email = $1`, g.qualified(g.names.UserTable))
	_, err := q.ExecContext(ctx, query, email)
	return err
}
