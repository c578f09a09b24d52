package derive

/* cache.go contains the per-view memoization cache for derived arrays.
Entries record the version of every raw array that was read to compute
them, so staleness is a pure version comparison against the backing store
and invalidation needs no notification machinery at all. */

import (
	"sync"

	"github.com/Martin-Rey/pynbody/lib/particles"
)

type cacheEntry struct {
	field particles.Field
	// deps maps each raw array name read during computation (transitively,
	// through derived inputs) to its version at compute time.
	deps map[string]uint64
}

// Cache holds the derived arrays of a single view. Each view owns exactly
// one Cache: sibling views and the parent snapshot never share entries,
// because the same quantity computed over different row sets is a
// different array.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	inflight map[string]chan struct{}
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		entries:  map[string]*cacheEntry{},
		inflight: map[string]chan struct{}{},
	}
}

// lookup returns the cached field under name if every raw array it was
// computed from still has the version recorded at compute time. Stale
// entries are dropped.
func (c *Cache) lookup(
	name string, v View,
) (particles.Field, map[string]uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok { return nil, nil, false }

	for dep, version := range e.deps {
		if v.RawVersion(dep) != version {
			delete(c.entries, name)
			return nil, nil, false
		}
	}
	return e.field, e.deps, true
}

// put stores a computed field along with the raw versions it read.
func (c *Cache) put(name string, f particles.Field, deps map[string]uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &cacheEntry{field: f, deps: deps}
}

// acquire claims the build slot for name. It returns won = true if the
// caller should run the build, and otherwise a channel which is closed
// when the current builder finishes.
func (c *Cache) acquire(name string) (won bool, wait <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.inflight[name]; ok {
		return false, ch
	}
	c.inflight[name] = make(chan struct{})
	return true, nil
}

// release gives up the build slot for name and wakes all waiters.
func (c *Cache) release(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.inflight[name]; ok {
		close(ch)
		delete(c.inflight, name)
	}
}

// Put stores a field computed outside the graph under name. deps maps each
// raw array the field depends on to its version at compute time, exactly as
// the graph would have recorded it: the entry stays valid until one of those
// arrays is replaced.
func (c *Cache) Put(name string, f particles.Field, deps map[string]uint64) {
	c.put(name, f, deps)
}

// Drop removes the entry under name, if any.
func (c *Cache) Drop(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*cacheEntry{}
}

// Contains returns true if an entry exists under name, without checking
// staleness.
func (c *Cache) Contains(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[name]
	return ok
}
