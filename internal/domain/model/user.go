package model

import "time"

// Role grants access to administrative operations.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a registered payer account.
type User struct {
	ID           int64
	Login        string
	Name         string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin reports whether the user may run administrative transitions.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
