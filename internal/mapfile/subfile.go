// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"fmt"
	"io"
	"math"
)

// tileIndexEntry is one 5-byte packed entry from a sub-file's tile
// index: the top bit is the water-tile flag, the remaining 39 bits are
// a byte offset relative to the sub-file's start address.
type tileIndexEntry struct {
	offset int64
	water  bool
}

const tileIndexEntrySize = 5
const subFileIndexHeaderSize = 16 // bytes preceding the packed entry array

// latLonToTile projects a microdegree lat/lon onto the tile grid at the
// given (base) zoom level, matching the Web-Mercator projection this
// format requires (only Web-Mercator-tagged files are accepted).
func latLonToTile(latMicro, lonMicro int32, zoom int) (x, y int) {
	lat := float64(latMicro) / 1e6
	lon := float64(lonMicro) / 1e6
	lat = math.Max(-85.05112878, math.Min(85.05112878, lat))

	n := math.Exp2(float64(zoom))
	x = int(math.Floor((lon + 180.0) / 360.0 * n))
	latRad := lat * math.Pi / 180.0
	y = int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n))
	return x, y
}

// tileTopLeft returns the lat/lon microdegree coordinate of a tile's
// top-left corner, the inverse of latLonToTile and the reference point
// way/POI coordinate deltas within that tile are decoded against.
func tileTopLeft(tileX, tileY, zoom int) Coordinate {
	n := math.Exp2(float64(zoom))
	lon := float64(tileX)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1.0 - 2.0*float64(tileY)/n)))
	lat := latRad * 180.0 / math.Pi
	return Coordinate{Lat: int32(lat * 1e6), Lon: int32(lon * 1e6)}
}

// selectSubFile picks the descriptor whose [zoomMin, zoomMax] covers the
// requested zoom level. Returns nil if no descriptor covers it.
func selectSubFile(info *MapFileInfo, zoom int) *SubFileDescriptor {
	for i := range info.subFiles {
		d := &info.subFiles[i]
		if zoom >= d.ZoomLevelMin && zoom <= d.ZoomLevelMax {
			return d
		}
	}
	return nil
}

// locateBlock projects (tileX, tileY) at the requested zoom onto the
// sub-file's base zoom grid, checks it against the boundary rectangle,
// and loads (memoizing) the tile-index entry for that cell.
func locateBlock(src io.ReaderAt, d *SubFileDescriptor, tileX, tileY, zoom int) (tileIndexEntry, bool, error) {
	shift := d.BaseZoomLevel - zoom
	baseX, baseY := tileX, tileY
	if shift > 0 {
		baseX = tileX << uint(shift)
		baseY = tileY << uint(shift)
	} else if shift < 0 {
		baseX = tileX >> uint(-shift)
		baseY = tileY >> uint(-shift)
	}

	if !d.Boundary.contains(baseX, baseY) {
		return tileIndexEntry{}, false, nil
	}

	if err := ensureIndexLoaded(src, d); err != nil {
		return tileIndexEntry{}, false, err
	}

	row := baseY - d.Boundary.Top
	col := baseX - d.Boundary.Left
	index := row*d.Boundary.width() + col
	if index < 0 || index >= len(d.indexEntries) {
		return tileIndexEntry{}, false, nil
	}

	return d.indexEntries[index], true, nil
}

// ensureIndexLoaded lazily reads and memoizes the sub-file's entire
// packed tile index on first access. Sub-file index segments are
// typically tens of thousands of entries; loading lazily rather than at
// Open time keeps opening a map file with many sub-files cheap when only
// a handful of tiles are ever read.
func ensureIndexLoaded(src io.ReaderAt, d *SubFileDescriptor) error {
	if d.indexEntries != nil {
		return nil
	}

	entryCount := d.Boundary.width() * d.Boundary.height()
	if entryCount < 0 {
		return fmt.Errorf("%w: sub-file boundary produced negative entry count", ErrInvalidBoundingBox)
	}

	raw := make([]byte, entryCount*tileIndexEntrySize)
	indexOffset := d.StartAddress + subFileIndexHeaderSize
	n, err := src.ReadAt(raw, indexOffset)
	if err != nil && !(err == io.EOF && n == len(raw)) {
		return fmt.Errorf("%w: reading tile index at offset %d: %v", ErrIoError, indexOffset, err)
	}
	if n < len(raw) {
		return fmt.Errorf("%w: tile index truncated (wanted %d bytes, got %d)", ErrBufferUnderflow, len(raw), n)
	}

	entries := make([]tileIndexEntry, entryCount)
	for i := 0; i < entryCount; i++ {
		b := raw[i*tileIndexEntrySize : (i+1)*tileIndexEntrySize]
		water := b[0]&0x80 != 0
		var off int64
		off = int64(b[0]&0x7f)
		for k := 1; k < tileIndexEntrySize; k++ {
			off = off<<8 | int64(b[k])
		}
		entries[i] = tileIndexEntry{offset: off, water: water}
	}

	d.indexEntries = entries
	return nil
}
