// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"codeberg.org/go-mmap/mmap"
)

// file state constants, mirroring the lazy open/close lifecycle used
// throughout this module's ambient infrastructure.
const (
	stateNew    int32 = 0
	stateReady  int32 = 1
	stateClosed int32 = 2
)

// ErrFileClosed is returned by any MapFile method called after Close.
var ErrFileClosed = errors.New("mapfile: file is closed")

// maxTileBuffer bounds a single tile payload read. The tile index gives
// no upfront length, so a read is capped generously rather than open-ended.
const maxTileBuffer = 1 << 18 // 256 KiB

// MapFile is a single opened Mapsforge binary map file. It is safe for
// concurrent use: the header is parsed once at Open and is immutable
// thereafter, and each ReadMapData call uses its own reader over the
// shared memory-mapped backing file.
type MapFile struct {
	path  string
	mm    *mmap.File
	info  *MapFileInfo
	size  int64
	state atomic.Int32

	mu sync.Mutex // guards lazy sub-file index population (see ensureIndexLoaded)
}

// Open memory-maps path and parses its header. The sub-file tile indices
// are not read until first needed by ReadMapData.
func Open(path string) (*MapFile, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrIoError, path, err)
	}
	size := stat.Size()

	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIoError, path, err)
	}

	r := newReader(m, maxHeaderBuffer)
	info, err := decodeHeader(r, size)
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	mf := &MapFile{path: path, mm: m, info: info, size: size}
	mf.state.Store(stateReady)
	return mf, nil
}

// GetMapFileInfo returns the parsed, immutable header.
func (mf *MapFile) GetMapFileInfo() (*MapFileInfo, error) {
	if mf.state.Load() == stateClosed {
		return nil, ErrFileClosed
	}
	return mf.info, nil
}

// ReadMapData decodes the tile block for (tileX, tileY) at zoom, or
// returns an empty result if no sub-file covers the requested tile
// (which is not an error: the tile is simply outside this file's extent).
func (mf *MapFile) ReadMapData(tileX, tileY, zoom int) (MapReadResult, error) {
	if mf.state.Load() == stateClosed {
		return MapReadResult{}, ErrFileClosed
	}

	d := selectSubFile(mf.info, zoom)
	if d == nil {
		return MapReadResult{}, nil
	}

	shift := d.BaseZoomLevel - zoom
	baseX, baseY := tileX, tileY
	if shift > 0 {
		baseX = tileX << uint(shift)
		baseY = tileY << uint(shift)
	} else if shift < 0 {
		baseX = tileX >> uint(-shift)
		baseY = tileY >> uint(-shift)
	}

	mf.mu.Lock()
	entry, found, err := locateBlock(mf.mm, d, tileX, tileY, zoom)
	mf.mu.Unlock()
	if err != nil {
		return MapReadResult{}, err
	}
	if !found {
		return MapReadResult{}, nil
	}
	if entry.water {
		return MapReadResult{Water: true}, nil
	}

	blockStart := d.StartAddress + entry.offset
	want := int64(maxTileBuffer)
	if remain := mf.size - blockStart; remain < want {
		want = remain
	}
	if want <= 0 {
		return MapReadResult{}, fmt.Errorf("%w: tile block at offset %d is beyond file size %d", ErrTruncatedTileBlock, blockStart, mf.size)
	}

	r := newReader(mf.mm, maxTileBuffer)
	r.seekFile(blockStart)
	if err := r.readFromFile(int(want)); err != nil {
		return MapReadResult{}, fmt.Errorf("%w: tile block at offset %d: %v", ErrTruncatedTileBlock, blockStart, err)
	}

	topLeft := tileTopLeft(baseX, baseY, d.BaseZoomLevel)

	result, err := decodeTile(r, d, topLeft, tileX, tileY, baseX, baseY, zoom, mf.info.DebugFile)
	if err != nil {
		return MapReadResult{}, err
	}
	result.Water = entry.water
	return result, nil
}

// Close releases the underlying memory mapping. Subsequent calls are
// no-ops; concurrent calls are safe.
func (mf *MapFile) Close() error {
	if prev := mf.state.Swap(stateClosed); prev == stateClosed {
		return nil
	}
	return mf.mm.Close()
}
