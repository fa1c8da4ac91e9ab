// Package hasher implements the password hashing collaborator on bcrypt.
package hasher

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the current hashing policy cost factor.
const DefaultCost = 12

// BcryptHasher hashes and verifies passwords with bcrypt. NeedsRehash
// flags hashes whose embedded cost is below the configured policy, so
// callers can transparently upgrade them on successful verification.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	return string(bytes), err
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether the stored hash was produced with a weaker
// cost than current policy. Unreadable hashes report true so they get
// replaced on the next successful login.
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < h.Cost
}
