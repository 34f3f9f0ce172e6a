// Package cache memoizes filter results by filter signature. Any write to
// items, tags, categories or area relations clears it entirely.
package cache

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/snipkeeper/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultSize is used when a non-positive size is configured.
const DefaultSize = 256

// Compute produces the result for a filter on a miss.
type Compute func(ctx context.Context, f models.Filter) ([]int64, error)

// FilterCache is safe for concurrent use. Results are copied on the way in
// and out, so callers may modify what they get.
type FilterCache struct {
	entries *lru.Cache[string, []int64]
	group   singleflight.Group

	// gen advances on every invalidation; a result computed under an older
	// generation is returned to its caller but never stored.
	mu  sync.Mutex
	gen uint64

	hits, misses atomic.Int64
}

func New(size int) (*FilterCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, []int64](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &FilterCache{entries: entries}, nil
}

// Get returns the cached result for f or computes and stores it.
// Concurrent misses for the same filter share one computation, which is
// not cancelled when one of the waiting callers gives up.
func (c *FilterCache) Get(ctx context.Context, f models.Filter, compute Compute) ([]int64, error) {
	key := f.Signature()

	if ids, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return slices.Clone(ids), nil
	}
	c.misses.Add(1)

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	// The shared computation runs detached from the first caller's
	// cancellation; each caller stops waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprintf("%d/%s", gen, key), func() (any, error) {
		ids, err := compute(shared, f)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []int64{}
		}

		c.mu.Lock()
		if c.gen == gen {
			c.entries.Add(key, slices.Clone(ids))
		}
		c.mu.Unlock()
		return ids, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]int64)), nil
	}
}

// Invalidate drops every entry.
func (c *FilterCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries.Purge()
}

// Len reports the number of cached filters.
func (c *FilterCache) Len() int {
	return c.entries.Len()
}

// Stats reports hit and miss counts since creation.
func (c *FilterCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
