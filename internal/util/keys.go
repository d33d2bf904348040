package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashedKey returns prefix + ":" + the first 32 hex chars of sha256(parts joined by '\n').
func HashedKey(prefix string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return prefix + ":" + hex.EncodeToString(sum[:16])
}
