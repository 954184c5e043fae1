package transport

import (
	"crypto/rand"
	"encoding/hex"
)

// randomSuffix names a staged upload's temporary file; cryptographic
// randomness is overkill for a collision-avoidance suffix but the stdlib
// math/rand global source is unseeded-unsafe for concurrent callers, so
// crypto/rand is the simpler correct choice here.
func randomSuffix() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
