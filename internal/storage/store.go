package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entry is one cached conversion.
type Entry struct {
	Key       string
	Path      string
	Output    string
	CreatedAt time.Time
}

// Cache stores converted documents keyed by engine fingerprint and source
// content. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the entry for key, reporting false on a miss.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Put upserts an entry.
	Put(ctx context.Context, e Entry) error

	Close() error
}

// Key derives the cache key of a source text for an engine fingerprint.
// The path is deliberately not part of the key: identical chapters share output.
func Key(fingerprint, src string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}
