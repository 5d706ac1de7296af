// Package models defines data structures used throughout the civic feedback portal.
package models

// Role represents a user's privilege level
type Role string

const (
	// RoleAdmin can triage, resolve and delete feedback
	RoleAdmin Role = "admin"
	// RoleUser can submit and track their own feedback
	RoleUser Role = "user"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a registered account as persisted by the record store.
// Password holds the secret credential and must never leave the service layer.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role"`
}

// PublicUser is a User without its secret credential
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}

// Public strips the secret credential
func (u User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest carries the fields needed to create an account
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=32"`
}
