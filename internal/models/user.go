package models

import "time"

// UserRole represents the two account roles.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

// Valid reports whether the role is one of the closed set.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
