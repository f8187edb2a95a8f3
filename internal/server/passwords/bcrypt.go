// Package passwords hashes and verifies user passwords with bcrypt.
// Plaintext passwords never leave this package in any stored form.
package passwords

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes passwords with a fixed bcrypt work factor.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher for the given work factor, clamped to the range
// bcrypt accepts.
func NewHasher(workFactor int) *Hasher {
	switch {
	case workFactor < bcrypt.MinCost:
		workFactor = bcrypt.MinCost
	case workFactor > bcrypt.MaxCost:
		workFactor = bcrypt.MaxCost
	}
	return &Hasher{cost: workFactor}
}

// Cost returns the effective bcrypt work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of password. Two calls with the same
// password produce different hashes.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches hashed. A malformed hash is a
// mismatch, not an error.
func (h *Hasher) Verify(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
