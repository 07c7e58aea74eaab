// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package label implements per-tile label/symbol placement and the
// cross-tile dependency cache that keeps labels spanning a tile border
// from being drawn twice or clashing with an already-rendered neighbour.
package label

import "github.com/kelindar/mapsforge-go/internal/coord"

// TileSize is the pixel size of a rendered tile; local pixel coordinates
// used throughout this package run [0, TileSize) on each axis before a
// rectangle crosses a border.
const TileSize = coord.TileSize

// Point is a position in a tile's local pixel coordinate system.
type Point struct {
	X, Y int
}

// Rectangle is an axis-aligned pixel rectangle in local tile coordinates.
type Rectangle struct {
	Left, Top, Right, Bottom int
}

func (r Rectangle) Width() int  { return r.Right - r.Left }
func (r Rectangle) Height() int { return r.Bottom - r.Top }

// Intersects reports whether r and o overlap (edges touching don't count).
func (r Rectangle) Intersects(o Rectangle) bool {
	return r.Left < o.Right && r.Right > o.Left && r.Top < o.Bottom && r.Bottom > o.Top
}

// Inflate grows r by margin pixels on every side.
func (r Rectangle) Inflate(margin int) Rectangle {
	return Rectangle{Left: r.Left - margin, Top: r.Top - margin, Right: r.Right + margin, Bottom: r.Bottom + margin}
}

// Translate shifts r by (dx, dy), used when a dependency spills over into
// a neighbour's coordinate frame.
func (r Rectangle) Translate(dx, dy int) Rectangle {
	return Rectangle{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

func crossesUp(r Rectangle) bool    { return r.Top < 0 }
func crossesDown(r Rectangle) bool  { return r.Bottom > TileSize }
func crossesLeft(r Rectangle) bool  { return r.Left < 0 }
func crossesRight(r Rectangle) bool { return r.Right > TileSize }
