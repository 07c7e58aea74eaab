// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package mock provides lightweight in-memory fakes of mapsforge.Reader
// and mapsforge.Placer for renderer code that wants to test against
// canned tile data without a real .map file on disk.
package mock

import (
	"github.com/kelindar/mapsforge-go"
)

// Reader is an in-memory stand-in for mapsforge.Reader.
type Reader struct {
	Info  *mapsforge.MapFileInfo
	Tiles map[mapsforge.Tile]mapsforge.MapReadResult
}

// New returns an empty mock Reader. Register tile data with Add before use.
func New() *Reader {
	return &Reader{Tiles: make(map[mapsforge.Tile]mapsforge.MapReadResult)}
}

// Open mirrors mapsforge.Open but always returns an empty mock Reader.
func Open(_ string) (*Reader, error) { return New(), nil }

// Add registers the result ReadMapData should return for tile t.
func (r *Reader) Add(t mapsforge.Tile, result mapsforge.MapReadResult) {
	r.Tiles[t] = result
}

// GetMapFileInfo returns the info set on the mock, or a zero-value header
// if none was set.
func (r *Reader) GetMapFileInfo() (*mapsforge.MapFileInfo, error) {
	if r.Info == nil {
		return &mapsforge.MapFileInfo{}, nil
	}
	return r.Info, nil
}

// ReadMapData returns the canned result for t, or an empty result if t
// was never registered (mirroring the real Reader's "outside coverage"
// behavior rather than erroring).
func (r *Reader) ReadMapData(t mapsforge.Tile) (mapsforge.MapReadResult, error) {
	result, ok := r.Tiles[t]
	if !ok {
		return mapsforge.MapReadResult{}, nil
	}
	return result, nil
}

// Close is a no-op for the mock Reader.
func (r *Reader) Close() error { return nil }

// Placer wraps a real mapsforge.Placer: the placement engine and
// dependency cache have no I/O dependency, so the mock reuses the real
// logic instead of re-implementing it, and exists only to give test code
// a construction point independent of a real map file.
type Placer struct {
	*mapsforge.Placer
}

// NewPlacer returns a Placer backed by a fresh dependency cache.
func NewPlacer() *Placer {
	return &Placer{Placer: mapsforge.NewPlacer()}
}
