// Package id generates the opaque random identifiers used for token ids and
// stored file name prefixes.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Len is the length of every identifier NewID returns.
const Len = 26

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Func generates identifiers. Components take one so tests can pin ids.
type Func func() (string, error)

// NewID returns a random UUIDv4 as lowercase unpadded base32, which is safe
// to embed in file names and JWT claims.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// Sequence returns a Func yielding prefix-1, prefix-2 and so on.
func Sequence(prefix string) Func {
	var n int
	return func() (string, error) {
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}
