package models

import "time"

// Role of a caller or directory user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Client is a directory entry consumed by the booking core.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Caller is the identity resolved by the transport layer for one request.
type Caller struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the caller acts as operator.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// IsClient reports whether the caller acts in self-service mode.
func (c Caller) IsClient() bool { return c.Role == RoleClient }
