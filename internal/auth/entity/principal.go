package entity

import "time"

// Principal is an account that can sign in.
type Principal struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPrincipal is the data needed to register a principal.
type NewPrincipal struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
}
