// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash is a bcrypt digest and never
// leaves the server.
type User struct {
	ID              int64
	FullName        string
	Email           string
	PasswordHash    string
	Bio             string
	ProfilePic      string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Verified reports whether the email address has been confirmed.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}
