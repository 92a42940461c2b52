// Package meshcache memoizes generated meshes by parameter set. Parameter
// structs are comparable values, so equal parameters share one immutable
// mesh. The cache has no eviction policy of its own; its owner decides its
// lifetime.
package meshcache

import (
	"sync"

	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/config"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/solid"
)

var log = config.NamedLogger("meshcache")

// Stats reports cache effectiveness.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Cache is safe for concurrent use. Generation runs under the lock, so two
// goroutines asking for the same parameters never generate twice.
type Cache struct {
	mu          sync.Mutex
	meshes      map[solid.Params]*kernel.Mesh
	stats       Stats
	passthrough bool
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{meshes: make(map[solid.Params]*kernel.Mesh)}
}

// NewPassthrough returns a cache that never stores: every Get generates a
// fresh mesh and counts as a miss.
func NewPassthrough() *Cache {
	c := New()
	c.passthrough = true
	return c
}

// Get returns the mesh for p, generating it on first use. The returned mesh
// is shared; callers must Clone it before modifying it.
func (c *Cache) Get(p solid.Params) (*kernel.Mesh, error) {
	// Validation also rejects foreign Params types, which may not be
	// usable as map keys.
	g, err := solid.New(p)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.meshes[p]; ok {
		c.stats.Hits++
		return m, nil
	}

	m := g.Generate()
	c.stats.Misses++
	if !c.passthrough {
		c.meshes[p] = m
	}
	log.Debugf("generated %s: %d vertices, %d triangles", p.Shape(), m.VertexCount(), m.TriangleCount())
	return m, nil
}

// Len returns the number of cached meshes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.meshes)
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Evict drops the mesh for p and reports whether it was cached.
func (c *Cache) Evict(p solid.Params) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.meshes[p]; !ok {
		return false
	}
	delete(c.meshes, p)
	return true
}

// Purge drops every cached mesh. Counters are kept.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.meshes)
	c.meshes = make(map[solid.Params]*kernel.Mesh)
	log.Debugf("purged %d meshes", n)
}
