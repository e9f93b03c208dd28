package domain

import "time"

// Database is a named ownership scope. Collections belong to whichever
// database's name prefixes the collection name followed by "_"; the database
// owner is the collection's owner for privilege purposes.
type Database struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal represents a registered, login-capable identity.
type Principal struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"` // base role, "authenticated"
	IsAdmin      bool      `json:"is_admin"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoleAuthenticated is the base role granted to every registered principal.
const RoleAuthenticated = "authenticated"
