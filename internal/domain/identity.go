package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// IdentityKey derives the deterministic exact-duplicate key for a posting
// from its source and source-local identifier. Hashing source and local id
// together keeps identical local ids from different sources apart; the key
// is independent of content so it survives text drift between scrapes.
func IdentityKey(source Source, localID string) string {
	h := sha256.Sum256([]byte(string(source) + ":" + localID))
	return hex.EncodeToString(h[:])
}
