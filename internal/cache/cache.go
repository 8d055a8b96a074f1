// Package cache stores short-lived values such as replayable upload results.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// KeyPrefix namespaces every key written by casedesk
const KeyPrefix = "casedesk:v1:"

// Key builds a cache key from a namespace and a caller-supplied id.
// The id is hashed so arbitrary header values are safe as keys.
func Key(namespace, id string) string {
	hash := sha256.Sum256([]byte(id))
	return KeyPrefix + namespace + ":" + hex.EncodeToString(hash[:])
}
