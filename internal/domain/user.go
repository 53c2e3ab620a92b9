package domain

import "time"

// User is an account that either files tickets or answers them.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   Department
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Caller returns the request identity carried by the account.
func (u *User) Caller() Caller {
	return Caller{ID: u.ID, Role: u.Role, Department: u.Department}
}

// UserRef is the public projection of a user nested in tickets and replies.
type UserRef struct {
	ID   int64
	Name string
}
