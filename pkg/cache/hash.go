package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/decomptree/pkg/table"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Full SHA-256 (64 hex chars) to prevent collisions
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// TableHash fingerprints a table's full content. Two tables with the same
// columns and cell values hash identically regardless of how they were
// loaded.
func TableHash(t *table.Table) string {
	h := sha256.New()
	// WriteCSV renders every cell through its canonical string form, which
	// is exactly the equality the aggregator sees.
	_ = t.WriteCSV(h)
	return hex.EncodeToString(h.Sum(nil))
}
