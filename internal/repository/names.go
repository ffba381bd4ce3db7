// Package repository provides the database gateways backing the signup
// service, one per supported flavour.
package repository

// Names carries the database, schema, and table identifiers a gateway
// targets. The SQLite gateway ignores Schema.
type Names struct {
	// Database is the logical database name ("proton" by default). For
	// SQLite it names the database file; for PostgreSQL it is part of the DSN.
	Database string
	// Schema is the PostgreSQL schema holding the registry tables.
	Schema string
	// UserTable is the user registry table name.
	UserTable string
	// LoginTable is the login registry table name.
	LoginTable string
}

// DefaultNames returns the registry identifiers PROTON uses out of the box.
func DefaultNames() Names {
	return Names{
		Database:   "proton",
		Schema:     "iam",
		UserTable:  "PROTON_user_registry",
		LoginTable: "PROTON_login_registry",
	}
}
