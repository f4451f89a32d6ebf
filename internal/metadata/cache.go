package metadata

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheConfig holds external id cache configuration.
type CacheConfig struct {
	TTL      time.Duration
	MaxItems int
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:      time.Hour,
		MaxItems: 512,
	}
}

// ExternalIDCache is a bounded, expiring cache of resolved external links.
type ExternalIDCache struct {
	lru *expirable.LRU[string, ExternalLink]
}

// NewExternalIDCache creates a new cache with the given configuration.
func NewExternalIDCache(cfg CacheConfig) *ExternalIDCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheConfig().TTL
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultCacheConfig().MaxItems
	}

	return &ExternalIDCache{
		lru: expirable.NewLRU[string, ExternalLink](cfg.MaxItems, nil, cfg.TTL),
	}
}

func externalIDKey(kind MediaKind, id int) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// Get retrieves a cached link.
func (c *ExternalIDCache) Get(kind MediaKind, id int) (ExternalLink, bool) {
	return c.lru.Get(externalIDKey(kind, id))
}

// Set stores a resolved link.
func (c *ExternalIDCache) Set(link ExternalLink) {
	c.lru.Add(externalIDKey(link.Kind, link.ID), link)
}

// Clear removes all items from the cache.
func (c *ExternalIDCache) Clear() {
	c.lru.Purge()
}

// Len returns the number of items in the cache.
func (c *ExternalIDCache) Len() int {
	return c.lru.Len()
}
