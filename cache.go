package xmlembed

import (
	"sync"

	"github.com/antchfx/xpath"
	"github.com/golang/groupcache/lru"
)

// queryCache keeps compiled xpath expressions. A rule table is consulted
// on every formatting request, so the same handful of tag lookups are
// compiled over and over without it.
type queryCache struct {
	mu      sync.Mutex
	entries *lru.Cache
}

func newQueryCache(maxEntries int) *queryCache {
	c := &queryCache{}
	if maxEntries > 0 {
		c.entries = lru.New(maxEntries)
	}
	return c
}

func (c *queryCache) compile(expr string) (*xpath.Expr, error) {
	if c == nil || c.entries == nil {
		return xpath.Compile(expr)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries.Get(expr); ok {
		return v.(*xpath.Expr), nil
	}
	v, err := xpath.Compile(expr)
	if err != nil {
		return nil, err
	}
	c.entries.Add(expr, v)
	return v, nil
}

func (c *queryCache) len() int {
	if c == nil || c.entries == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// queries is shared by every Formatter; 64 entries covers any realistic
// rule table plus ad-hoc Find calls.
var queries = newQueryCache(64)
