package models

import "time"

// Role represents the available account roles.
type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleLecturer Role = "LECTURER"
	RoleAdmin    Role = "ADMIN"
)

// User represents an account row in the users table. Profile data lives in
// the profiles table, 1:1 by user id.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// RefreshToken is a persisted refresh token row.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// AccessMeta carries the attributes the ownership policy evaluator needs to
// decide visibility of a row: the owning identity, an optional class scope,
// and whether the row is broadcast to everyone.
type AccessMeta struct {
	OwnerID   string
	ClassID   string
	Broadcast bool
}
