// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package coord holds the tile coordinate and bounding-box types shared
// by the map-file reader and the label-placement engine.
package coord

import "fmt"

// TileSize is the pixel size of a rendered tile. Mapsforge ties this
// value to the header's tilePixelSize field, which is validated to
// equal 256.
const TileSize = 256

// Tile identifies a single cell on the Mercator tile pyramid. Equality
// and hashing are by the (X, Y, Zoom) triple.
type Tile struct {
	X, Y int
	Zoom int
}

// String renders the tile as "z/x/y", the conventional slippy-map form.
func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// Neighbour returns the tile offset by (dx, dy) at the same zoom level.
func (t Tile) Neighbour(dx, dy int) Tile {
	return Tile{X: t.X + dx, Y: t.Y + dy, Zoom: t.Zoom}
}

// Neighbours returns the eight unit-offset tiles surrounding t, in a
// fixed, deterministic order: N, NE, E, SE, S, SW, W, NW.
func (t Tile) Neighbours() [8]Tile {
	return [8]Tile{
		t.Neighbour(0, -1),
		t.Neighbour(1, -1),
		t.Neighbour(1, 0),
		t.Neighbour(1, 1),
		t.Neighbour(0, 1),
		t.Neighbour(-1, 1),
		t.Neighbour(-1, 0),
		t.Neighbour(-1, -1),
	}
}

// BoundingBox is a rectangle in microdegrees (lat/lon * 1e6).
type BoundingBox struct {
	MinLat, MinLon, MaxLat, MaxLon int32
}

// Valid reports whether the box satisfies the ranges required by the
// Mapsforge header: lat in [-90_000_000, 90_000_000], lon in
// [-180_000_000, 180_000_000], and min <= max on both axes.
func (b BoundingBox) Valid() bool {
	const (
		minLat = -90_000_000
		maxLat = 90_000_000
		minLon = -180_000_000
		maxLon = 180_000_000
	)
	switch {
	case b.MinLat < minLat || b.MaxLat > maxLat:
		return false
	case b.MinLon < minLon || b.MaxLon > maxLon:
		return false
	case b.MinLat > b.MaxLat:
		return false
	case b.MinLon > b.MaxLon:
		return false
	default:
		return true
	}
}
