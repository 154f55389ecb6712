// Package cryptox implements password hashing for stored credentials.
//
// Digests are bcrypt strings: the random per-call salt and the cost are
// embedded, so two hashes of the same password never match and a digest is
// self-describing when the cost is raised later.
package cryptox

import (
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit; longer inputs are rejected
// instead of being silently truncated.
const maxPasswordBytes = 72

// Hasher hashes and verifies passwords with a fixed bcrypt cost and enforces
// the password policy.
type Hasher struct {
	cost      int
	minLength int
}

// NewHasher returns a Hasher. A cost outside bcrypt's range falls back to
// bcrypt.DefaultCost; minLength is counted in characters.
func NewHasher(cost, minLength int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost, minLength: minLength}
}

// Validate checks a candidate password against the policy. Failures wrap
// common.ErrorValidation.
func (h *Hasher) Validate(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if utf8.RuneCountInString(password) < h.minLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, h.minLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrorValidation, maxPasswordBytes)
	}
	return nil
}

// Hash returns a salted bcrypt digest of password.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password too long", common.ErrorValidation)
	}
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	digest, err := bcrypt.GenerateFromPassword(pw, h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Check reports whether password reproduces digest. A malformed digest is a
// mismatch, never a panic.
func (h *Hasher) Check(password, digest string) bool {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	return bcrypt.CompareHashAndPassword([]byte(digest), pw) == nil
}
