package model

import "time"

// Role is the authorization role of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is admin or user.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a directory entry. Active=false means blocked.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Clone returns a copy that shares no memory with u.
func (u User) Clone() User {
	if u.LastLogin != nil {
		ts := *u.LastLogin
		u.LastLogin = &ts
	}
	return u
}

// IsAdmin reports whether u is an active administrator.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin && u.Active
}
