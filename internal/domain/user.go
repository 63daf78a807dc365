package domain

import "time"

// Role is an authorization tag embedded in issued tokens.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User is the domain model for self-service accounts.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Roles        []Role
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
