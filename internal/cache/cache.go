// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache memoizes normalization results by the content hash of the
// raw model text, so re-mapping an unchanged response skips extraction and
// normalization.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pdiddy/claimgraph/internal/normalize"
)

// GraphCache holds normalize.Result values keyed by input text. Cached
// results are shared; callers must not modify them.
type GraphCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// New creates a cache whose entries expire after ttl. A ttl of zero or less
// disables caching: Get always misses and Put does nothing.
func New(ttl time.Duration) *GraphCache {
	if ttl <= 0 {
		return &GraphCache{}
	}
	return &GraphCache{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Key returns the content hash used to index text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for text.
func (c *GraphCache) Get(text string) (normalize.Result, bool) {
	if c == nil || c.cache == nil {
		return normalize.Result{}, false
	}
	if v, found := c.cache.Get(Key(text)); found {
		return v.(normalize.Result), true
	}
	return normalize.Result{}, false
}

// Put stores r for text. Failed results are not cached.
func (c *GraphCache) Put(text string, r normalize.Result) {
	if c == nil || c.cache == nil || !r.Success {
		return
	}
	c.cache.Set(Key(text), r, c.ttl)
}

// Len reports the number of unexpired entries.
func (c *GraphCache) Len() int {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.ItemCount()
}

// Clear drops every entry.
func (c *GraphCache) Clear() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Flush()
}
