package models

import "time"

// User represents a row of the users table.
type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Sanitize returns a copy of the user without sensitive fields populated.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}

// NewAccount is a validated signup with the password already hashed.
type NewAccount struct {
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}
