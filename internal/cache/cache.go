// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps recent aggregation responses in memory so a
// repeated query can be answered without touching any source. Entries
// expire after a configurable TTL and the cache holds a bounded number
// of entries, evicting the least recently used beyond that.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pdiddy/sinoseek/pkg/types"
)

// DefaultCapacity bounds the number of cached responses. A full cache
// of 25-result responses is a few megabytes.
const DefaultCapacity = 1000

// ResultCache maps a query fingerprint to the response it produced.
// Safe for concurrent use.
type ResultCache struct {
	lru *expirable.LRU[string, types.Response]
	ttl time.Duration
}

// New builds a cache with the given TTL. A non-positive capacity falls
// back to DefaultCapacity; a non-positive TTL means entries never
// expire by age and only LRU eviction applies.
func New(capacity int, ttl time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ResultCache{
		lru: expirable.NewLRU[string, types.Response](capacity, nil, ttl),
		ttl: ttl,
	}
}

// Key fingerprints a lookup. Queries that differ only in surrounding
// whitespace, letter case, or source listing order share a key; a
// different result limit or source set never does.
func Key(query string, limit int, sources []string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(query), " "))

	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(norm))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(limit)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for a key, if present and unexpired.
func (c *ResultCache) Get(key string) (types.Response, bool) {
	return c.lru.Get(key)
}

// Add stores a response under a key. Failed responses are not cached:
// a transient outage should not suppress retries for a full TTL.
func (c *ResultCache) Add(key string, resp types.Response) {
	if !resp.Success {
		return
	}
	c.lru.Add(key, resp)
}

// Purge empties the cache.
func (c *ResultCache) Purge() {
	c.lru.Purge()
}

// Len reports the number of live entries.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}

// TTL reports the configured entry lifetime.
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}
