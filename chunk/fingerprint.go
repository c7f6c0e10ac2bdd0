package chunk

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Fingerprint returns a hex-encoded SHA3-256 digest of a chunk's raw
// bytes, suitable for cache keys and duplicate-load detection without
// re-parsing the chunk.
func Fingerprint(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
