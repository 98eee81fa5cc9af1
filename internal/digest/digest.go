// Package digest computes content digests used for in-batch duplicate detection.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Size is the length of a hex digest.
const Size = sha256.Size * 2

// Bytes returns the lowercase hex SHA-256 of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Reader returns the lowercase hex SHA-256 of everything read from r.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// RecordID derives a stable identifier from a content digest. The same
// digest always yields the same id, across runs and processes.
func RecordID(contentHash string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(contentHash)).String()
}

// Seen is the per-run set of digests already encountered.
type Seen map[string]struct{}

// Add records d and reports whether it was new.
func (s Seen) Add(d string) bool {
	if _, ok := s[d]; ok {
		return false
	}
	s[d] = struct{}{}
	return true
}
