package operation

import (
	"sync"

	"github.com/google/uuid"

	"github.com/notargets/weakform/multiharmonic"
	"github.com/notargets/weakform/types"
)

// cacheKey is the full evaluation context of a reused node. Two calls with the
// same key see the same batch, points and deformation.
type cacheKey struct {
	node   NodeID
	region types.DisjointRegion
	batch  uuid.UUID
	coords uint64
	deform string
}

// Cache holds the values of the nodes flagged for reuse. It is shared by the
// goroutines evaluating different batches.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]multiharmonic.Harmonics
}

func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]multiharmonic.Harmonics)}
}

func (c *Cache) get(k cacheKey) (H multiharmonic.Harmonics, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	H, ok = c.entries[k]
	return
}

func (c *Cache) put(k cacheKey, H multiharmonic.Harmonics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; !ok {
		cacheEntries.Inc()
	}
	c.entries[k] = H
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	cacheEntries.Sub(float64(len(c.entries)))
	c.entries = make(map[cacheKey]multiharmonic.Harmonics)
}
