// Package model defines the data structures used throughout the application.
package model

import "time"

// Roles a user account can hold. The role decides what the access policy
// lets the account do — see internal/policy.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
//
// PasswordHash is the opaque bcrypt output and is never serialized: the
// `json:"-"` tag keeps it out of every API response. The hash is only ever
// compared, never reversed.
//
// Username and Email are both globally unique (enforced by the users table);
// either one colliding on registration is a Conflict.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
