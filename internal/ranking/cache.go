package ranking

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const rerankCacheKey = "homepage"

type rerankOrder struct {
	IDs     []int64
	Demoted map[int64]struct{}
}

// RerankCache remembers the last accepted AI ordering so repeated
// homepage builds within the TTL reuse it instead of calling out again.
type RerankCache struct {
	lru *expirable.LRU[string, rerankOrder]
}

// NewRerankCache builds a cache whose entries expire after ttl.
func NewRerankCache(ttl time.Duration) *RerankCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RerankCache{lru: expirable.NewLRU[string, rerankOrder](4, nil, ttl)}
}

// Get returns the cached ordering when at least 70% of the current
// candidate IDs overlap the cached set. Anything less means the pool has
// churned enough that a fresh rerank is warranted.
func (c *RerankCache) Get(currentIDs []int64) (rerankOrder, bool) {
	cached, ok := c.lru.Get(rerankCacheKey)
	if !ok {
		return rerankOrder{}, false
	}
	known := make(map[int64]struct{}, len(cached.IDs))
	for _, id := range cached.IDs {
		known[id] = struct{}{}
	}
	overlap := 0
	for _, id := range currentIDs {
		if _, ok := known[id]; ok {
			overlap++
		}
	}
	threshold := len(currentIDs)
	if len(cached.IDs) < threshold {
		threshold = len(cached.IDs)
	}
	if float64(overlap) < float64(threshold)*0.7 {
		return rerankOrder{}, false
	}
	return cached, true
}

// Put stores the accepted ordering.
func (c *RerankCache) Put(order rerankOrder) {
	c.lru.Add(rerankCacheKey, order)
}
