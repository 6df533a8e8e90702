package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// ShortHash returns the first n hex characters of SHA256(input). Used for
// cache keys and for correlating client IPs in logs without storing them.
func ShortHash(input string, n int) string {
	full := SHA256Hex(input)
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}

// SaltedShortHash hashes salt+input, so identical inputs from different
// deployments do not correlate.
func SaltedShortHash(input, salt string, n int) string {
	return ShortHash(salt+input, n)
}
