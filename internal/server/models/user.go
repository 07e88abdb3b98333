// Package models contains the persisted entities of the account service.
package models

import "time"

// User is an account. Email is stored trimmed and lower-cased and is unique.
// A user starts inactive and unverified; verification flips both flags.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	IsVerified   bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}
