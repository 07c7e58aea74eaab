// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package mapsforge is the public facade over the map-file reader
// (internal/mapfile) and the label/symbol placement engine with its
// cross-tile dependency cache (internal/label).
package mapsforge

import (
	"time"

	"github.com/kelindar/mapsforge-go/internal/coord"
	"github.com/kelindar/mapsforge-go/internal/mapfile"
	"github.com/kelindar/mapsforge-go/internal/telemetry"
)

// MapFileInfo is the decoded, immutable header of a map file.
type MapFileInfo = mapfile.MapFileInfo

// MapReadResult is the decoded payload for one requested tile.
type MapReadResult = mapfile.MapReadResult

// Tile identifies a (x, y, zoom) cell on the Mercator tile pyramid.
type Tile = coord.Tile

// Reader opens a single Mapsforge binary map file and serves tile data
// from it: Open, GetMapFileInfo, ReadMapData, Close.
type Reader struct {
	mf      *mapfile.MapFile
	metrics *telemetry.Metrics
}

// ReaderOption configures a Reader constructed with Open.
type ReaderOption func(*Reader)

// WithReaderMetrics reports open/read outcomes to m. Pass the Metrics
// returned by a single telemetry.New call shared across every Reader and
// Placer reporting to the same prometheus.Registry.
func WithReaderMetrics(m *telemetry.Metrics) ReaderOption {
	return func(r *Reader) { r.metrics = m }
}

// Open memory-maps path and validates its header.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	r := &Reader{}
	for _, opt := range opts {
		opt(r)
	}

	start := time.Now()
	mf, err := mapfile.Open(path)
	if r.metrics != nil {
		r.metrics.OpenDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	r.mf = mf
	return r, nil
}

// GetMapFileInfo returns the parsed header. Valid only after a successful Open.
func (r *Reader) GetMapFileInfo() (*MapFileInfo, error) {
	return r.mf.GetMapFileInfo()
}

// ReadMapData decodes the tile block for t, or an empty result if t falls
// outside this file's coverage.
func (r *Reader) ReadMapData(t Tile) (MapReadResult, error) {
	result, err := r.mf.ReadMapData(t.X, t.Y, t.Zoom)
	if r.metrics != nil {
		r.metrics.TilesRead.WithLabelValues(tileReadOutcome(result, err)).Inc()
	}
	return result, err
}

func tileReadOutcome(result MapReadResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case result.Water:
		return "water"
	default:
		return "ok"
	}
}

// Close releases the underlying memory mapping.
func (r *Reader) Close() error {
	return r.mf.Close()
}
