package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	StatusPending  = "pending"
	StatusApproved = "approved"
)

// DefaultRole is assigned on self-registration. The upstream contract assigns
// admin to every new user; change here if that contract changes.
const DefaultRole = RoleAdmin

// User represents a user in the system
type User struct {
	ID           uuid.UUID `json:"id"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated identity attached to a request after token
// verification.
type Principal struct {
	ID     uuid.UUID `json:"id"`
	Phone  string    `json:"phone"`
	Role   string    `json:"role"`
	Status string    `json:"status"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Phone    string `json:"phone" binding:"required,phone"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}
