package models

import "time"

// TokenPurpose tells apart the one-time tokens a user may hold.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify_email"
	PurposeResetPassword TokenPurpose = "reset_password"
)

// AccountToken is a stored one-time token. Only the SHA-256 hash of the
// opaque value is kept.
type AccountToken struct {
	UserID    int64
	Purpose   TokenPurpose
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
