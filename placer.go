// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapsforge

import (
	"sync"

	"github.com/kelindar/mapsforge-go/internal/label"
	"github.com/kelindar/mapsforge-go/internal/telemetry"
)

// PointTextContainer, SymbolContainer, AreaLabelContainer and Point are
// re-exported so renderer code never imports internal/label directly.
type (
	PointTextContainer = label.PointTextContainer
	SymbolContainer    = label.SymbolContainer
	AreaLabelContainer = label.AreaLabelContainer
	Point              = label.Point
	Rectangle          = label.Rectangle
	DependencyOnTile   = label.DependencyOnTile
)

// Placer wraps the greedy placement engine and the cross-tile dependency
// cache. A Placer is safe for one goroutine to drive at a time; Lock and
// Unlock let an external multi-worker renderer bracket an entire render
// transaction across goroutines.
type Placer struct {
	mu      sync.Mutex
	engine  *label.Engine
	cache   *label.DependencyCache
	metrics *telemetry.Metrics
}

// PlacerOption configures a Placer constructed with NewPlacer.
type PlacerOption func(*Placer)

// WithPlacerMetrics reports placement outcomes to m. Pass the Metrics
// returned by a single telemetry.New call shared across every Placer and
// Reader reporting to the same prometheus.Registry.
func WithPlacerMetrics(m *telemetry.Metrics) PlacerOption {
	return func(p *Placer) { p.metrics = m }
}

// NewPlacer returns a Placer backed by a fresh, unbounded, process-wide
// dependency cache suitable for one render session.
func NewPlacer(opts ...PlacerOption) *Placer {
	p := &Placer{engine: label.NewEngine(), cache: label.NewDependencyCache()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lock brackets the start of a render transaction.
func (p *Placer) Lock() { p.mu.Lock() }

// Unlock ends a render transaction started with Lock.
func (p *Placer) Unlock() { p.mu.Unlock() }

// GenerateTileAndDependencyOnTile is protocol step 1: enter tile.
func (p *Placer) GenerateTileAndDependencyOnTile(t Tile) *DependencyOnTile {
	return p.cache.GenerateTileAndDependencyOnTile(t)
}

// RemoveSymbolsFromDrawnAreas is protocol step 2 (symbols).
func (p *Placer) RemoveSymbolsFromDrawnAreas(symbols []SymbolContainer) []SymbolContainer {
	return p.cache.RemoveSymbolsFromDrawnAreas(symbols)
}

// RemoveAreaLabelsInAlreadyDrawnAreas is protocol step 2 (area labels).
func (p *Placer) RemoveAreaLabelsInAlreadyDrawnAreas(areaLabels []AreaLabelContainer) []AreaLabelContainer {
	return p.cache.RemoveAreaLabelsInAlreadyDrawnAreas(areaLabels)
}

// RemoveReferencePointsFromDependencyCache is protocol step 3.
func (p *Placer) RemoveReferencePointsFromDependencyCache(points []Point) []Point {
	return p.cache.RemoveReferencePointsFromDependencyCache(points)
}

// RemoveOverlappingObjectsWithDependencyOnTile is protocol step 4.
func (p *Placer) RemoveOverlappingObjectsWithDependencyOnTile(
	labels []PointTextContainer, areaLabels []AreaLabelContainer, symbols []SymbolContainer,
) ([]PointTextContainer, []AreaLabelContainer, []SymbolContainer) {
	return p.cache.RemoveOverlappingObjectsWithDependencyOnTile(labels, areaLabels, symbols)
}

// Place runs local greedy candidate placement (protocol step 5).
func (p *Placer) Place(pois []PointTextContainer) []PointTextContainer {
	placed := p.engine.Place(pois)
	if p.metrics != nil {
		p.metrics.CandidatesRejected.WithLabelValues(telemetry.ReasonOverlap).Add(float64(len(pois) - len(placed)))
	}
	return placed
}

// PlaceAreaLabels runs local greedy placement over area labels.
func (p *Placer) PlaceAreaLabels(areaLabels []AreaLabelContainer) []AreaLabelContainer {
	placed := p.engine.PlaceAreaLabels(areaLabels)
	if p.metrics != nil {
		p.metrics.CandidatesRejected.WithLabelValues(telemetry.ReasonOverlap).Add(float64(len(areaLabels) - len(placed)))
	}
	return placed
}

// FillDependencyOnTile is protocol steps 6-7: register spillover to
// neighbour tiles and mark the current tile drawn.
func (p *Placer) FillDependencyOnTile(labels []PointTextContainer, symbols []SymbolContainer, areaLabels []AreaLabelContainer) {
	p.cache.FillDependencyOnTile(labels, symbols, areaLabels)
	if p.metrics != nil {
		p.metrics.DependencyCacheSize.Set(float64(p.cache.Len()))
	}
}
