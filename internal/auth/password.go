// Package auth implements password hashing and stateless bearer tokens.
package auth

import (
	"context"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// PasswordHasher hashes and verifies passwords with bcrypt. bcrypt salts
// every hash, so hashing the same password twice yields different outputs,
// and its comparison does not short-circuit on the first mismatching byte.
//
// Hashing at cost 12 burns ~100ms of CPU, so a weighted semaphore caps how
// many hashes run at once; a burst of logins queues here instead of starving
// every other request of CPU.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
// Non-positive cost falls back to the bcrypt default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(2 * runtime.GOMAXPROCS(0))),
	}
}

// Hash derives a salted one-way hash of password. The plaintext is never
// recoverable from the result.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare checks password against hash. It returns nil on a match and a
// non-nil error otherwise.
func (h *PasswordHasher) Compare(ctx context.Context, hash, password string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
