// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package label

// PointTextContainer is one POI label candidate: its text, anchor
// position, the paint identities used for overlap-by-identity checks, an
// optional precomputed boundary, and the symbol it's attached to, if any.
type PointTextContainer struct {
	Text       string
	X, Y       int
	PaintFront string
	PaintBack  string
	Boundary   *Rectangle
	Symbol     *SymbolContainer
}

func (p PointTextContainer) rectangle() Rectangle {
	if p.Boundary != nil {
		return *p.Boundary
	}
	return Rectangle{Left: p.X, Top: p.Y, Right: p.X, Bottom: p.Y}
}

// SymbolContainer is a placed map symbol (icon) with its pixel footprint.
type SymbolContainer struct {
	X, Y          int
	Width, Height int
}

func (s SymbolContainer) rectangle() Rectangle {
	return Rectangle{Left: s.X, Top: s.Y, Right: s.X + s.Width, Bottom: s.Y + s.Height}
}

// AreaLabelContainer is a label anchored to an area feature (e.g. a
// building centroid) rather than a point symbol.
type AreaLabelContainer struct {
	Text     string
	X, Y     int
	Boundary *Rectangle
}

func (a AreaLabelContainer) rectangle() Rectangle {
	if a.Boundary != nil {
		return *a.Boundary
	}
	return Rectangle{Left: a.X, Top: a.Y, Right: a.X, Bottom: a.Y}
}
