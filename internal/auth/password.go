package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit; longer secrets would be truncated.
const maxPasswordBytes = 72

// ErrPasswordTooLong rejects passwords bcrypt cannot hash without truncation.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword hashes an account password for storage in users.password_hash.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword returns nil when plain matches the stored hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// NeedsRehash reports whether a stored hash was produced with a cost other
// than the configured one, so a successful login can upgrade it.
func NeedsRehash(hashed string, cost int) bool {
	current, err := bcrypt.Cost([]byte(hashed))
	if err != nil {
		return false
	}
	return current != cost
}
