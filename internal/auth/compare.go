package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// secureCompare reports whether two short secrets are equal without leaking
// where they first differ. Both inputs are hashed to fixed-width digests
// first, so inputs of different lengths take the same time to compare.
func secureCompare(a, b string) bool {
	aSum := sha256.Sum256([]byte(a))
	bSum := sha256.Sum256([]byte(b))

	return subtle.ConstantTimeCompare(aSum[:], bSum[:]) == 1
}
