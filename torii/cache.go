package torii

import (
	"sync"

	"github.com/hashfront/autoplay/model"
)

// TerrainCache stores fetched terrain grids per map id. Map terrain is
// immutable on chain, so entries live until Invalidate is called; the
// cache is injected into clients rather than living in package state so
// concurrent matches on different maps cannot race on initialization.
type TerrainCache struct {
	mu    sync.Mutex
	grids map[int]*model.Grid
}

// NewTerrainCache returns an empty cache.
func NewTerrainCache() *TerrainCache {
	return &TerrainCache{grids: make(map[int]*model.Grid)}
}

// Get returns the cached grid for a map id.
func (c *TerrainCache) Get(mapID int) (*model.Grid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.grids[mapID]
	return g, ok
}

// Put stores a grid for a map id.
func (c *TerrainCache) Put(mapID int, g *model.Grid) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grids[mapID] = g
}

// Invalidate drops a map's cached terrain, forcing a refetch on next use.
func (c *TerrainCache) Invalidate(mapID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.grids, mapID)
}
