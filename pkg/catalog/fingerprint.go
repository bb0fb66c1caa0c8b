package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint is the 160-bit hash of a record's case-normalized field tuple.
// Two records represent the same combination iff their fingerprints are equal.
// The array form makes it usable directly as a map key.
type Fingerprint [sha1.Size]byte

// Fingerprint computes the record's fingerprint: SHA-1 of the lower-cased,
// pipe-joined seven-field tuple in fixed field order. Absent fields contribute
// an empty string, so the computation is pure and order-stable.
func (r *Record) Fingerprint() Fingerprint {
	vals := r.Values()
	tuple := strings.ToLower(strings.Join(vals[:], "|"))
	return sha1.Sum([]byte(tuple))
}

// String returns the lowercase hex form of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// ParseFingerprint decodes the hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	b, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("parse fingerprint: %w", err)
	}
	if len(b) != sha1.Size {
		return f, fmt.Errorf("parse fingerprint: got %d bytes, want %d", len(b), sha1.Size)
	}
	copy(f[:], b)
	return f, nil
}
