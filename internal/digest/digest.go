// Package digest computes the content addresses used by the value store.
package digest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Size is the byte length of a Digest
const Size = sha1.Size

// Digest is the SHA-1 of a stored value
type Digest [Size]byte

// Sum returns the digest of b
func Sum(b []byte) Digest {
	return Digest(sha1.Sum(b))
}

// SumString returns the digest of s without copying through a byte slice
func SumString(s string) Digest {
	h := sha1.New()
	_, _ = h.Write([]byte(s))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// FromBytes reads a digest from the first Size bytes of b
func FromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) < Size {
		return d, fmt.Errorf("digest needs %d bytes, got %d", Size, len(b))
	}
	copy(d[:], b[:Size])
	return d, nil
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the all-zero digest
func (d Digest) IsZero() bool {
	return d == Digest{}
}
