// Package models defines the core data structures for the PROTON user registry.
package models

import "time"

// User represents a profile row in the PROTON_user_registry table.
type User struct {
	// ID is the server-assigned surrogate key.
	ID int64
	// FirstName is the user's first name.
	FirstName string
	// LastName is the user's last name.
	LastName string
	// Email is the user's email address. At most one User exists per email.
	Email string
	// CreationDateTime is the UTC timestamp assigned at signup time.
	CreationDateTime time.Time
}

// Login represents a credential row in the PROTON_login_registry table.
// Every committed Login references exactly one User.
type Login struct {
	// ID is the server-assigned surrogate key.
	ID int64
	// UserRegistryID references the User this login belongs to.
	UserRegistryID int64
	// UserName is the login name. At most one Login exists per user name.
	UserName string
	// PasswordHash is the one-way hash of the user's password.
	PasswordHash string
	// LastLoginDateTime is set on login, never by signup.
	LastLoginDateTime *time.Time
}

// Result is the structured outcome of a signup call. It is returned for
// every exit path; signup never propagates an error to its caller.
type Result struct {
	// Status reports whether the signup was committed.
	Status bool `json:"status"`
	// Message is the human-readable outcome description.
	Message string `json:"message"`
}
