// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package label

// Engine runs local, single-tile greedy label placement: pixel boundary
// computation, 2/4-point candidate generation around a symbol, and
// first-accepted-wins tie-break in input order. It never fails — a POI
// with no room for any candidate is simply dropped.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// candidateOffsets are the above/below/left/right placements tried around
// a symbol, in priority order; a four-point symbol tries all of them, a
// two-point symbol only the first two (above/below).
var candidateOffsets = [4]Point{
	{X: 0, Y: -1},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
}

// Place runs greedy placement over pois and returns the accepted subset,
// in input order. No two accepted rectangles overlap.
func (e *Engine) Place(pois []PointTextContainer) []PointTextContainer {
	placed := make([]Rectangle, 0, len(pois))
	result := make([]PointTextContainer, 0, len(pois))

	for _, poi := range pois {
		for _, rect := range e.candidatesFor(poi) {
			if overlapsAny(rect, placed) {
				continue
			}
			placed = append(placed, rect)
			accepted := poi
			accepted.Boundary = &rect
			result = append(result, accepted)
			break
		}
	}
	return result
}

// PlaceAreaLabels runs the same greedy placement over area labels, which
// have no attached symbol and therefore a single candidate rectangle.
func (e *Engine) PlaceAreaLabels(areaLabels []AreaLabelContainer) []AreaLabelContainer {
	placed := make([]Rectangle, 0, len(areaLabels))
	result := make([]AreaLabelContainer, 0, len(areaLabels))

	for _, a := range areaLabels {
		rect := a.rectangle()
		if overlapsAny(rect, placed) {
			continue
		}
		placed = append(placed, rect)
		result = append(result, a)
	}
	return result
}

func (e *Engine) candidatesFor(poi PointTextContainer) []Rectangle {
	rect := poi.rectangle()
	width, height := rect.Width(), rect.Height()
	if width == 0 {
		width = len(poi.Text)*6 + 2 // rough glyph-width fallback when no boundary was precomputed
	}
	if height == 0 {
		height = 10
	}

	if poi.Symbol == nil {
		return []Rectangle{{Left: poi.X, Top: poi.Y, Right: poi.X + width, Bottom: poi.Y + height}}
	}

	sym := poi.Symbol.rectangle()
	offsets := candidateOffsets[:2]
	if poi.Symbol.Width > 0 && poi.Symbol.Height > 0 {
		offsets = candidateOffsets[:]
	}

	candidates := make([]Rectangle, 0, len(offsets))
	for _, off := range offsets {
		cx := sym.Left + (sym.Width()-width)/2 + off.X*(width/2+sym.Width()/2+1)
		cy := sym.Top + (sym.Height()-height)/2 + off.Y*(height/2+sym.Height()/2+1)
		candidates = append(candidates, Rectangle{Left: cx, Top: cy, Right: cx + width, Bottom: cy + height})
	}
	return candidates
}

func overlapsAny(r Rectangle, placed []Rectangle) bool {
	for _, p := range placed {
		if r.Intersects(p) {
			return true
		}
	}
	return false
}
