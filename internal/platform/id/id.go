// Package id generates URL-safe opaque identifiers.
//
// Identifiers are UUIDv4 bytes encoded as base32 (RFC 4648) with no padding.
// The resulting strings are 26 characters long, lowercase, and safe for use
// in URLs and storage keys. Generation never performs I/O and cannot fail,
// so callers may mint identifiers before the owning record exists.
package id

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New returns a fresh opaque identifier.
func New() string {
	raw := uuid.New()
	return strings.ToLower(encoding.EncodeToString(raw[:]))
}

// Valid reports whether value has the shape produced by New.
func Valid(value string) bool {
	if len(value) != 26 {
		return false
	}
	raw, err := encoding.DecodeString(strings.ToUpper(value))
	if err != nil {
		return false
	}
	return len(raw) == 16 && value == strings.ToLower(value)
}
