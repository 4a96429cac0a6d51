// Package cache holds recently fetched menu rows per dashboard so repeated
// reads skip the tree query. It is shared by the HTTP service and the client
// provider, and every entry follows the same freshness policy.
package cache

import (
	"sync"
	"time"

	"admin-dashboard/menutree"
	"admin-dashboard/models"
)

// Entry is the cached state of one dashboard. Tree is nil until a tree built
// from exactly these Items has been stored with SetTree.
type Entry struct {
	Items    []models.MenuItem
	Tree     []*menutree.Node
	StoredAt time.Time
}

// MenuCache maps dashboard id to its last fetched menu.
type MenuCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

func NewMenuCache(ttl time.Duration) *MenuCache {
	return &MenuCache{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source; tests use it to age entries.
func (c *MenuCache) WithClock(now func() time.Time) *MenuCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// TTL is the freshness window applied by GetFresh.
func (c *MenuCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached entry regardless of its age.
func (c *MenuCache) Get(dashboardID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[dashboardID]
	if !ok {
		return Entry{}, false
	}
	return copyEntry(e), true
}

// GetFresh returns the entry only while it is younger than the TTL. A zero or
// negative TTL disables freshness and every entry is stale.
func (c *MenuCache) GetFresh(dashboardID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[dashboardID]
	if !ok || c.ttl <= 0 || c.now().Sub(e.StoredAt) >= c.ttl {
		return Entry{}, false
	}
	return copyEntry(e), true
}

// Set replaces the items of a dashboard and drops any tree built from the
// previous items.
func (c *MenuCache) Set(dashboardID string, items []models.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[dashboardID] = &Entry{
		Items:    copyItems(items),
		StoredAt: c.now(),
	}
}

// SetTree attaches a tree to the existing items entry. Without an items entry
// the tree is not stored and false is returned.
func (c *MenuCache) SetTree(dashboardID string, tree []*menutree.Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[dashboardID]
	if !ok {
		return false
	}
	e.Tree = copyForest(tree)
	return true
}

// GetTree returns the stored tree, if one has been set since the last Set.
func (c *MenuCache) GetTree(dashboardID string) ([]*menutree.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[dashboardID]
	if !ok || e.Tree == nil {
		return nil, false
	}
	return copyForest(e.Tree), true
}

func (c *MenuCache) Invalidate(dashboardID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, dashboardID)
}

func (c *MenuCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

func (c *MenuCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func copyEntry(e *Entry) Entry {
	out := Entry{Items: copyItems(e.Items), StoredAt: e.StoredAt}
	if e.Tree != nil {
		out.Tree = copyForest(e.Tree)
	}
	return out
}

func copyItems(items []models.MenuItem) []models.MenuItem {
	return menutree.CloneItems(items)
}

func copyForest(forest []*menutree.Node) []*menutree.Node {
	out := make([]*menutree.Node, 0, len(forest))
	for _, n := range forest {
		out = append(out, menutree.CloneNode(n))
	}
	return out
}
