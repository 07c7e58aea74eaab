// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package label

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kelindar/mapsforge-go/internal/coord"
)

// BoundedCache wraps DependencyCache with an optional LRU eviction policy
// for long-running processes that would otherwise grow the dependency
// table without bound. Only drawn tiles are ever evicted: a tile is
// added to the LRU the moment FillDependencyOnTile marks it drawn, never
// before, so an undrawn tile that may still be the target of an
// in-flight spillover can never be chosen for eviction.
type BoundedCache struct {
	*DependencyCache
	recent *lru.Cache[coord.Tile, struct{}]
}

// NewBoundedCache returns a cache that evicts the least-recently-drawn
// tile once more than capacity tiles have been drawn.
func NewBoundedCache(capacity int) (*BoundedCache, error) {
	c := &BoundedCache{DependencyCache: NewDependencyCache()}
	recent, err := lru.NewWithEvict[coord.Tile, struct{}](capacity, func(t coord.Tile, _ struct{}) {
		c.DependencyCache.evict(t)
	})
	if err != nil {
		return nil, err
	}
	c.recent = recent
	return c, nil
}

// FillDependencyOnTile delegates to DependencyCache, then registers the
// current tile with the LRU now that it's drawn.
func (c *BoundedCache) FillDependencyOnTile(labels []PointTextContainer, symbols []SymbolContainer, areaLabels []AreaLabelContainer) {
	c.DependencyCache.FillDependencyOnTile(labels, symbols, areaLabels)
	c.recent.Add(c.DependencyCache.currentTile, struct{}{})
}

// Len reports how many drawn tiles are currently tracked by the LRU.
func (c *BoundedCache) Len() int {
	return c.recent.Len()
}
