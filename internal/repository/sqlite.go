package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harishgurram/PROTON/internal/models"
)

// SQLiteGateway implements the signup gateway contract on top of the
// embedded SQLite database. The registry tables are expected to be
// bootstrapped before any signup is processed, so EnsureSchema is a no-op
// and LazyProvision reports false.
type SQLiteGateway struct {
	// DB is the database handle for executing queries.
	DB *sql.DB

	names Names
}

// NewSQLiteGateway creates a SQLiteGateway over db targeting the given
// registry names.
func NewSQLiteGateway(db *sql.DB, names Names) *SQLiteGateway {
	return &SQLiteGateway{DB: db, names: names}
}

// LazyProvision reports whether the backend provisions its tables on first
// use. SQLite relies on the separate bootstrap instead.
func (g *SQLiteGateway) LazyProvision() bool {
	return false
}

// InTransaction runs fn inside a transaction on the SQLite database,
// committing on success and rolling back on error or panic.
func (g *SQLiteGateway) InTransaction(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error {
	return inTransaction(ctx, g.DB, fn)
}

// EnsureSchema is a no-op: SQLite has no schema namespaces and the tables
// are created by the bootstrap.
func (g *SQLiteGateway) EnsureSchema(ctx context.Context) error {
	return nil
}

func (g *SQLiteGateway) tableExists(ctx context.Context, q DBTX, table string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`,
		table,
	).Scan(&exists)
	return exists, err
}

// UserTableExists checks whether the user registry table exists.
func (g *SQLiteGateway) UserTableExists(ctx context.Context, q DBTX) (bool, error) {
	return g.tableExists(ctx, q, g.names.UserTable)
}

// LoginTableExists checks whether the login registry table exists.
func (g *SQLiteGateway) LoginTableExists(ctx context.Context, q DBTX) (bool, error) {
	return g.tableExists(ctx, q, g.names.LoginTable)
}

// CreateUserTable creates the user registry table if it does not exist.
// The unique index on email backs up the application-level duplicate check.
func (g *SQLiteGateway) CreateUserTable(ctx context.Context, q DBTX) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		creation_date_time TIMESTAMP NOT NULL
	)`, g.names.UserTable)
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// CreateLoginTable creates the login registry table if it does not exist.
func (g *SQLiteGateway) CreateLoginTable(ctx context.Context, q DBTX) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_registry_id INTEGER NOT NULL REFERENCES %q (id) ON UPDATE CASCADE ON DELETE CASCADE,
		user_name TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		last_login_date_time TIMESTAMP
	)`, g.names.LoginTable, g.names.UserTable)
	_, err := q.ExecContext(ctx, ddl)
	return err
}

// UserIDByEmail returns the id of the user row with the given email.
// The second return value reports whether such a row exists.
func (g *SQLiteGateway) UserIDByEmail(ctx context.Context, q DBTX, email string) (int64, bool, error) {
	var id int64
	query := fmt.Sprintf(`SELECT id FROM %q WHERE email = ?`, g.names.UserTable)
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
func (g *SQLiteGateway) LoginIDByUserName(ctx context.Context, q DBTX, userName string) (int64, bool, error) {
	var id int64
	query := fmt.Sprintf(`SELECT id FROM %q WHERE user_name = ?`, g.names.LoginTable)
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
func (g *SQLiteGateway) InsertUser(ctx context.Context, q DBTX, user models.User) error {
	query := fmt.Sprintf(
		`INSERT INTO %q (first_name, last_name, email, creation_date_time) VALUES (?, ?, ?, ?)`,
		g.names.UserTable,
	)
	_, err := q.ExecContext(ctx, query, user.FirstName, user.LastName, user.Email, user.CreationDateTime)
	return err
}

// InsertLogin inserts a credentials row referencing an existing user row.
func (g *SQLiteGateway) InsertLogin(ctx context.Context, q DBTX, login models.Login) error {
	query := fmt.Sprintf(
		`INSERT INTO %q (user_registry_id, user_name, password_hash) VALUES (?, ?, ?)`,
		g.names.LoginTable,
	)
	_, err := q.ExecContext(ctx, query, login.UserRegistryID, login.UserName, login.PasswordHash)
	return err
}

// DeleteUserByEmail removes the user row with the given email.
func (g *SQLiteGateway) DeleteUserByEmail(ctx context.Context, q DBTX, email string) error {
	query := fmt.Sprintf(`DELETE FROM %q WHERE email = ?`, g.names.UserTable)
	_, err := q.ExecContext(ctx, query, email)
	return err
}
