// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package label

import (
	"sync"

	"github.com/kelindar/intmap"

	"github.com/kelindar/mapsforge-go/internal/coord"
)

// marginPixels is the inflation applied to reference-point and
// symbol-vs-symbol overlap tests.
const marginPixels = 2

// DependencyText is label content shared by every tile its footprint
// spans. Only one payload is ever allocated per label; neighbour tiles
// hold a non-owning pointer plus their own translated position.
type DependencyText struct {
	Text          string
	PaintFront    string
	PaintBack     string
	Width, Height int
}

// DependencySymbol is symbol content shared by every tile its footprint
// spans.
type DependencySymbol struct {
	Width, Height int
}

// Dependency pairs a shared value with its position, in the local pixel
// coordinates of one specific tile's list.
type Dependency[T any] struct {
	Value T
	Point Point
}

// DependencyOnTile is the per-tile record of labels and symbols committed
// by (or spilled over onto) that tile. Lists are always allocated, never
// nil, so callers can range over them without a null check.
type DependencyOnTile struct {
	Drawn   bool
	Labels  []Dependency[*DependencyText]
	Symbols []Dependency[*DependencySymbol]
}

func newDependencyOnTile() *DependencyOnTile {
	return &DependencyOnTile{
		Labels:  []Dependency[*DependencyText]{},
		Symbols: []Dependency[*DependencySymbol]{},
	}
}

// DependencyCache is the cross-tile dependency table: an append-mostly
// structure that grows for the life of a render session. The table is
// read on every tile render, so lookups are backed by
// github.com/kelindar/intmap, a fast integer map, keyed per zoom level on
// the packed (x, y) pair, rather than a map[coord.Tile]*DependencyOnTile.
type DependencyCache struct {
	mu     sync.Mutex
	byZoom map[int]*intmap.Map
	slots  []*DependencyOnTile

	current     *DependencyOnTile
	currentTile coord.Tile
}

// NewDependencyCache returns an empty cache ready for one render session.
func NewDependencyCache() *DependencyCache {
	return &DependencyCache{byZoom: make(map[int]*intmap.Map)}
}

func packXY(x, y int) uint32 {
	return uint32(uint16(x))<<16 | uint32(uint16(y))
}

// Len reports the number of tiles currently tracked by the cache,
// excluding tombstoned (evicted) slots.
func (c *DependencyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, s := range c.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// lookup returns the existing entry for t, if any. Tombstoned slots
// (see evict) are reported as absent.
func (c *DependencyCache) lookup(t coord.Tile) (*DependencyOnTile, bool) {
	zoomMap, ok := c.byZoom[t.Zoom]
	if !ok {
		return nil, false
	}
	idx, ok := zoomMap.Load(packXY(t.X, t.Y))
	if !ok || int(idx) >= len(c.slots) || c.slots[idx] == nil {
		return nil, false
	}
	return c.slots[idx], true
}

// entry returns the entry for t, creating it (and its zoom-level index,
// lazily) if this is the tile's first appearance in the cache.
func (c *DependencyCache) entry(t coord.Tile) *DependencyOnTile {
	if d, ok := c.lookup(t); ok {
		return d
	}

	zoomMap, ok := c.byZoom[t.Zoom]
	if !ok {
		zoomMap = intmap.New(64, .95)
		c.byZoom[t.Zoom] = zoomMap
	}

	d := newDependencyOnTile()
	idx := uint32(len(c.slots))
	c.slots = append(c.slots, d)
	zoomMap.Store(packXY(t.X, t.Y), idx)
	return d
}

// evict tombstones t's slot so it no longer counts as present; used only
// by BoundedCache, and only ever on drawn tiles.
func (c *DependencyCache) evict(t coord.Tile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	zoomMap, ok := c.byZoom[t.Zoom]
	if !ok {
		return
	}
	idx, ok := zoomMap.Load(packXY(t.X, t.Y))
	if !ok || int(idx) >= len(c.slots) {
		return
	}
	c.slots[idx] = nil
}

// GenerateTileAndDependencyOnTile enters tile (step 1): sets it as the
// current tile and creates its entry if this is the first visit. Calling
// this twice in a row for the same tile is equivalent to calling it once.
func (c *DependencyCache) GenerateTileAndDependencyOnTile(tile coord.Tile) *DependencyOnTile {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTile = tile
	c.current = c.entry(tile)
	return c.current
}

// drawnNeighbourBlocks reports whether rect crosses into a neighbour of
// the current tile that is already drawn.
func (c *DependencyCache) drawnNeighbourBlocks(rect Rectangle) bool {
	up, down, left, right := crossesUp(rect), crossesDown(rect), crossesLeft(rect), crossesRight(rect)

	check := func(cross bool, dx, dy int) bool {
		if !cross {
			return false
		}
		n := c.currentTile.Neighbour(dx, dy)
		d, ok := c.lookup(n)
		return ok && d.Drawn
	}

	switch {
	case check(up, 0, -1), check(down, 0, 1), check(left, -1, 0), check(right, 1, 0):
		return true
	case check(up && left, -1, -1), check(up && right, 1, -1):
		return true
	case check(down && left, -1, 1), check(down && right, 1, 1):
		return true
	default:
		return false
	}
}

// RemoveSymbolsFromDrawnAreas is step 2: drops any symbol whose rectangle
// spills into an already-drawn neighbour's half-plane.
func (c *DependencyCache) RemoveSymbolsFromDrawnAreas(symbols []SymbolContainer) []SymbolContainer {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]SymbolContainer, 0, len(symbols))
	for _, s := range symbols {
		if c.drawnNeighbourBlocks(s.rectangle()) {
			continue
		}
		result = append(result, s)
	}
	return result
}

// RemoveAreaLabelsInAlreadyDrawnAreas is the area-label half of step 2.
func (c *DependencyCache) RemoveAreaLabelsInAlreadyDrawnAreas(areaLabels []AreaLabelContainer) []AreaLabelContainer {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]AreaLabelContainer, 0, len(areaLabels))
	for _, a := range areaLabels {
		if c.drawnNeighbourBlocks(a.rectangle()) {
			continue
		}
		result = append(result, a)
	}
	return result
}

func labelRectangle(dep Dependency[*DependencyText]) Rectangle {
	return Rectangle{
		Left: dep.Point.X, Top: dep.Point.Y,
		Right: dep.Point.X + dep.Value.Width, Bottom: dep.Point.Y + dep.Value.Height,
	}
}

func symbolRectangle(dep Dependency[*DependencySymbol]) Rectangle {
	return Rectangle{
		Left: dep.Point.X, Top: dep.Point.Y,
		Right: dep.Point.X + dep.Value.Width, Bottom: dep.Point.Y + dep.Value.Height,
	}
}

// RemoveReferencePointsFromDependencyCache is step 3: the same half-plane
// rule as step 2, plus an intersection test (inflated by marginPixels)
// against the current tile's already-registered labels and symbols.
func (c *DependencyCache) RemoveReferencePointsFromDependencyCache(points []Point) []Point {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]Point, 0, len(points))
	for _, p := range points {
		rect := Rectangle{Left: p.X, Top: p.Y, Right: p.X, Bottom: p.Y}
		if c.drawnNeighbourBlocks(rect) {
			continue
		}
		if c.intersectsRegistered(rect) {
			continue
		}
		result = append(result, p)
	}
	return result
}

func (c *DependencyCache) intersectsRegistered(rect Rectangle) bool {
	if c.current == nil {
		return false
	}
	inflated := rect.Inflate(marginPixels)
	for _, dep := range c.current.Labels {
		if inflated.Intersects(labelRectangle(dep)) {
			return true
		}
	}
	for _, dep := range c.current.Symbols {
		if inflated.Intersects(symbolRectangle(dep)) {
			return true
		}
	}
	return false
}

// RemoveOverlappingObjectsWithDependencyOnTile is step 4: labels are
// filtered by (text, paintFront, paintBack) identity against the current
// tile's registered labels; symbols are filtered by rectangle intersection
// (inflated by marginPixels) against both registered symbols and labels.
func (c *DependencyCache) RemoveOverlappingObjectsWithDependencyOnTile(
	labels []PointTextContainer, areaLabels []AreaLabelContainer, symbols []SymbolContainer,
) ([]PointTextContainer, []AreaLabelContainer, []SymbolContainer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	outLabels := make([]PointTextContainer, 0, len(labels))
	for _, l := range labels {
		if c.labelIdentityRegistered(l.Text, l.PaintFront, l.PaintBack) {
			continue
		}
		outLabels = append(outLabels, l)
	}

	outAreaLabels := make([]AreaLabelContainer, 0, len(areaLabels))
	for _, a := range areaLabels {
		if c.labelIdentityRegistered(a.Text, "", "") {
			continue
		}
		outAreaLabels = append(outAreaLabels, a)
	}

	outSymbols := make([]SymbolContainer, 0, len(symbols))
	for _, s := range symbols {
		if c.symbolOverlapsRegistered(s) {
			continue
		}
		outSymbols = append(outSymbols, s)
	}

	return outLabels, outAreaLabels, outSymbols
}

func (c *DependencyCache) labelIdentityRegistered(text, front, back string) bool {
	if c.current == nil {
		return false
	}
	for _, dep := range c.current.Labels {
		if dep.Value.Text == text && dep.Value.PaintFront == front && dep.Value.PaintBack == back {
			return true
		}
	}
	return false
}

func (c *DependencyCache) symbolOverlapsRegistered(s SymbolContainer) bool {
	if c.current == nil {
		return false
	}
	rect := s.rectangle().Inflate(marginPixels)
	for _, dep := range c.current.Symbols {
		if rect.Intersects(symbolRectangle(dep)) {
			return true
		}
	}
	for _, dep := range c.current.Labels {
		if rect.Intersects(labelRectangle(dep)) {
			return true
		}
	}
	return false
}

// FillDependencyOnTile is the correct step-6/7 entry point: every item
// whose rectangle crosses a tile border gets a shared dependency value
// attached to this tile and to every crossed neighbour (position
// translated by the crossed side's +/- TileSize offset, creating the
// neighbour's entry if needed), skipping neighbours already drawn; then
// the current tile is marked drawn.
func (c *DependencyCache) FillDependencyOnTile(labels []PointTextContainer, symbols []SymbolContainer, areaLabels []AreaLabelContainer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fillDependencyOnTile(labels, symbols, areaLabels, false)
}

// fillDependencyOnTile2Compat reproduces a known defect carried over
// unchanged from the reference renderer this package's algorithm is
// based on: the "down" branch's spillover is appended using the "up"
// neighbour and its translation instead of "down". It exists only for the
// fidelity test that documents the defect; FillDependencyOnTile is the
// entry point every other caller should use.
func (c *DependencyCache) fillDependencyOnTile2Compat(labels []PointTextContainer, symbols []SymbolContainer, areaLabels []AreaLabelContainer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fillDependencyOnTile(labels, symbols, areaLabels, true)
}

func (c *DependencyCache) fillDependencyOnTile(labels []PointTextContainer, symbols []SymbolContainer, areaLabels []AreaLabelContainer, downBugCompat bool) {
	for _, l := range labels {
		rect := l.rectangle()
		text := &DependencyText{Text: l.Text, PaintFront: l.PaintFront, PaintBack: l.PaintBack, Width: rect.Width(), Height: rect.Height()}
		c.spillLabel(text, Point{X: l.X, Y: l.Y}, rect, downBugCompat)
	}
	for _, a := range areaLabels {
		rect := a.rectangle()
		text := &DependencyText{Text: a.Text, Width: rect.Width(), Height: rect.Height()}
		c.spillLabel(text, Point{X: a.X, Y: a.Y}, rect, downBugCompat)
	}
	for _, s := range symbols {
		rect := s.rectangle()
		sym := &DependencySymbol{Width: s.Width, Height: s.Height}
		c.spillSymbol(sym, Point{X: s.X, Y: s.Y}, rect, downBugCompat)
	}
	c.current.Drawn = true
}

func (c *DependencyCache) spillLabel(text *DependencyText, point Point, rect Rectangle, downBugCompat bool) {
	c.current.Labels = append(c.current.Labels, Dependency[*DependencyText]{Value: text, Point: point})
	c.forEachCrossedNeighbour(rect, downBugCompat, func(n coord.Tile, dx, dy int) {
		neighbour := c.entry(n)
		if neighbour.Drawn {
			return
		}
		neighbour.Labels = append(neighbour.Labels, Dependency[*DependencyText]{
			Value: text,
			Point: Point{X: point.X - dx*TileSize, Y: point.Y - dy*TileSize},
		})
	})
}

func (c *DependencyCache) spillSymbol(sym *DependencySymbol, point Point, rect Rectangle, downBugCompat bool) {
	c.current.Symbols = append(c.current.Symbols, Dependency[*DependencySymbol]{Value: sym, Point: point})
	c.forEachCrossedNeighbour(rect, downBugCompat, func(n coord.Tile, dx, dy int) {
		neighbour := c.entry(n)
		if neighbour.Drawn {
			return
		}
		neighbour.Symbols = append(neighbour.Symbols, Dependency[*DependencySymbol]{
			Value: sym,
			Point: Point{X: point.X - dx*TileSize, Y: point.Y - dy*TileSize},
		})
	})
}

// forEachCrossedNeighbour visits (neighbour tile, dx, dy) for each side
// rect crosses. When downBugCompat is true, the "down" and down-diagonal
// crossings are (mis)handled using the "up" neighbour's offset instead of
// "down", reproducing the documented source defect exactly.
func (c *DependencyCache) forEachCrossedNeighbour(rect Rectangle, downBugCompat bool, visit func(t coord.Tile, dx, dy int)) {
	up, down, left, right := crossesUp(rect), crossesDown(rect), crossesLeft(rect), crossesRight(rect)

	step := func(dx, dy int) { visit(c.currentTile.Neighbour(dx, dy), dx, dy) }

	if up {
		step(0, -1)
	}
	if down {
		if downBugCompat {
			step(0, -1)
		} else {
			step(0, 1)
		}
	}
	if left {
		step(-1, 0)
	}
	if right {
		step(1, 0)
	}
	if up && left {
		step(-1, -1)
	}
	if up && right {
		step(1, -1)
	}
	if down && left {
		if downBugCompat {
			step(-1, -1)
		} else {
			step(-1, 1)
		}
	}
	if down && right {
		if downBugCompat {
			step(1, -1)
		} else {
			step(1, 1)
		}
	}
}
