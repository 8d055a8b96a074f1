package cache

import (
	"time"

	"github.com/ppiankov/casedesk/internal/model"
)

// Open builds the configured cache: memory only, or memory in front of redis.
// It returns nil when caching is disabled.
func Open(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	ttl := time.Duration(cfg.TTL) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	local := NewMemoryCache(ttl, 10*time.Minute)
	if cfg.RedisURL == "" {
		return local, nil
	}

	shared, err := NewRedisCache(cfg.RedisURL, ttl)
	if err != nil {
		return nil, err
	}
	return NewLayeredCache(local, shared), nil
}
