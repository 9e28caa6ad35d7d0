package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the 10 rounds the mobile backend has always used.
const DefaultCost = 10

// MaxPasswordBytes is the most input bcrypt reads. Longer passwords are cut
// to this length before hashing and comparing.
const MaxPasswordBytes = 72

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash hashes a plain text password with bcrypt. bcrypt salts every call, so
// hashing the same input twice gives two different strings.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(clip(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether plain matches hash. bcrypt compares digests in
// constant time.
func (h *PasswordHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), clip(plain)) == nil
}

func clip(plain string) []byte {
	b := []byte(plain)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}
