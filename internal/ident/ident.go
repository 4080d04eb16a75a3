// Package ident generates opaque identifiers for events and suggestions.
//
// Identifiers are 13 lowercase base-36 characters derived from the random
// bits of a UUIDv4, short enough for share links and practically unique
// across concurrently created events.
package ident

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Length is the number of characters in a generated identifier.
const Length = 13

// Generator returns a new identifier on every call.
type Generator func() string

// New returns a fresh identifier.
func New() string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[8:])
	s := strconv.FormatUint(n, 36)
	if len(s) < Length {
		s = strings.Repeat("0", Length-len(s)) + s
	}
	return s
}
