// Package digest hashes participant passwords.
//
// The default Checksum is the planner's historical 32-bit string checksum.
// It is NOT cryptographic: collisions are easy to find and it is trivially
// brute-forced. It is kept because every stored passwordHash was produced
// with it and changing the algorithm would lock all existing participants
// out. Bcrypt is available for new deployments that start with an empty
// store; switching an existing store requires a migration step.
package digest

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"unicode/utf16"

	"golang.org/x/crypto/bcrypt"
)

// Sum returns the checksum digest of input. It is deterministic: the same
// input always yields the same output.
//
// The hash walks UTF-16 code units, computing h = h*31 + c in wrapping
// 32-bit arithmetic, and renders |h| in base 36.
func Sum(input string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(input)) {
		h = (h << 5) - h + int32(c)
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return strconv.FormatInt(n, 36)
}

// Hasher produces and checks stored password hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

const (
	KindChecksum = "checksum"
	KindBcrypt   = "bcrypt"
)

// New returns the hasher registered under kind.
func New(kind string) (Hasher, error) {
	switch kind {
	case "", KindChecksum:
		return Checksum{}, nil
	case KindBcrypt:
		return Bcrypt{Cost: bcrypt.DefaultCost}, nil
	}
	return nil, fmt.Errorf("unknown password hash %q", kind)
}

// Checksum compares digests produced by Sum.
type Checksum struct{}

func (Checksum) Hash(password string) (string, error) {
	return Sum(password), nil
}

func (Checksum) Verify(hash, password string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(Sum(password))) == 1
}

// Bcrypt stores salted bcrypt hashes.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(out), nil
}

func (Bcrypt) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
