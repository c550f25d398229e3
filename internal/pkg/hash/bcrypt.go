package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the work factor used when the configured cost is zero.
	DefaultBcryptCost = 12
	// MaxInputBytes is the most bcrypt accepts, pepper included.
	MaxInputBytes = 72
)

var (
	// ErrEmptyPlaintext is returned by Hash when there is nothing to hash.
	ErrEmptyPlaintext = errors.New("hash: plaintext must not be empty")

	// ErrPlaintextTooLong is returned by Hash when plaintext and pepper together
	// exceed MaxInputBytes.
	ErrPlaintextTooLong = errors.New("hash: plaintext too long")

	// ErrInvalidCost is returned when the work factor is outside bcrypt's supported range.
	ErrInvalidCost = errors.New("hash: bcrypt cost out of range")
)

// Hash turns a secret into a storable token and checks plaintext against it.
type Hash interface {
	// Hash returns a salted hash of plaintext. Two calls with the same input
	// never return the same token.
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext is the secret that produced hashed.
	// A mismatch or a malformed token yields false, never an error.
	Verify(plaintext, hashed string) bool
}

// Bcrypt implements Hash using bcrypt.
//
// Pepper is appended to the plaintext before hashing/verifying. Keep the pepper
// secret and store it in configuration (not in the database).
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt-based hasher.
//
// cost controls the hashing work factor; zero selects DefaultBcryptCost.
// pepper is optional.
func NewBcrypt(cost int, pepper string) (*Bcrypt, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}

	return &Bcrypt{cost: cost, pepper: pepper}, nil
}

// Cost returns the configured work factor.
func (h *Bcrypt) Cost() int {
	return h.cost
}

// Hash hashes plaintext using bcrypt with a fresh random salt.
func (h *Bcrypt) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}
	if len(plaintext)+len(h.pepper) > MaxInputBytes {
		return "", ErrPlaintextTooLong
	}

	out, err := bcrypt.GenerateFromPassword([]byte(plaintext+h.pepper), h.cost)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// Verify returns true when plaintext matches the hashed value.
//
// bcrypt recomputes the digest and compares it with subtle.ConstantTimeCompare,
// so the time taken does not depend on where the inputs differ.
func (h *Bcrypt) Verify(plaintext, hashed string) bool {
	if plaintext == "" || hashed == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper)) == nil
}
