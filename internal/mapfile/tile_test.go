// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeUnsignedVarintByte encodes v (< 128) as a single unsigned varint byte.
func encodeUnsignedVarintByte(v byte) byte { return v }

// encodeSignedVarintByte encodes v (|v| < 64) as a single signed varint
// byte: bits 0-5 hold the magnitude, bit 6 the sign, matching readSignedInt's
// single-byte (no continuation) decode path.
func encodeSignedVarintByte(v int32) byte {
	var sign byte
	av := v
	if v < 0 {
		sign = 0x40
		av = -v
	}
	return byte(av&0x3f) | sign
}

// buildMinimalTileBlock assembles a tile payload with exactly one POI and
// one way (a two-vertex single ring), both at zoom level 5, with a
// sub-file descriptor whose base zoom equals the target zoom so the
// subtile bitmap never filters the way out.
func buildMinimalTileBlock() []byte {
	var b bytes.Buffer

	// Zoom table: one row (ZoomLevelMin == ZoomLevelMax == 5), 1 POI, 1 way.
	b.WriteByte(encodeUnsignedVarintByte(1)) // cumulative POIs
	b.WriteByte(encodeUnsignedVarintByte(1)) // cumulative ways
	b.WriteByte(encodeUnsignedVarintByte(0)) // first-way offset, unused

	// POI: latDelta=10, lonDelta=-20, layer=0, no tags, no optional fields.
	b.WriteByte(encodeSignedVarintByte(10))
	b.WriteByte(encodeSignedVarintByte(-20))
	b.WriteByte(0x50) // (layer+5)<<4 | numTags=0
	b.WriteByte(0x00) // flags: no name/house number/elevation

	// Way: no tags, no optional fields, one ring of two vertices.
	b.WriteByte(encodeUnsignedVarintByte(0)) // data size, advisory
	b.WriteByte(0x00)                        // subtile bitmap high byte
	b.WriteByte(0x00)                        // subtile bitmap low byte
	b.WriteByte(0x50)                        // (layer+5)<<4 | numTags=0
	b.WriteByte(0x00)                        // flags: nothing optional, not double-delta
	b.WriteByte(encodeUnsignedVarintByte(1)) // one ring
	b.WriteByte(encodeUnsignedVarintByte(2)) // two vertices
	b.WriteByte(encodeSignedVarintByte(5))   // vertex 0 lat delta
	b.WriteByte(encodeSignedVarintByte(5))   // vertex 0 lon delta
	b.WriteByte(encodeSignedVarintByte(3))   // vertex 1 lat delta
	b.WriteByte(encodeSignedVarintByte(-3))  // vertex 1 lon delta

	return b.Bytes()
}

func TestDecodeTile_DecodesPOIAndWayFromRealBytes(t *testing.T) {
	data := buildMinimalTileBlock()
	r := newReader(bytes.NewReader(data), len(data))
	require.NoError(t, r.readFromFile(len(data)))

	d := &SubFileDescriptor{BaseZoomLevel: 5, ZoomLevelMin: 5, ZoomLevelMax: 5}
	topLeft := Coordinate{Lat: 1_000_000, Lon: 2_000_000}

	result, err := decodeTile(r, d, topLeft, 0, 0, 0, 0, 5, false)
	require.NoError(t, err)

	require.Len(t, result.POIs, 1)
	poi := result.POIs[0]
	assert.Equal(t, Coordinate{Lat: 1_000_010, Lon: 1_999_980}, poi.Position)
	assert.Equal(t, int8(0), poi.Layer)
	assert.Equal(t, 5, poi.Zoom)
	assert.Nil(t, poi.Name)

	require.Len(t, result.Ways, 1)
	way := result.Ways[0]
	assert.Equal(t, 5, way.Zoom)
	require.Len(t, way.DataBlocks, 1)
	require.Len(t, way.DataBlocks[0].Rings, 1)
	assert.Equal(t, []Coordinate{
		{Lat: 1_000_005, Lon: 2_000_005},
		{Lat: 1_000_008, Lon: 2_000_002},
	}, way.DataBlocks[0].Rings[0])
}

func TestDecodeTile_RecordAboveTargetZoomIsDropped(t *testing.T) {
	data := buildMinimalTileBlock()
	r := newReader(bytes.NewReader(data), len(data))
	require.NoError(t, r.readFromFile(len(data)))

	// Same bytes and zoom table shape (min == max == 5), but the request
	// is for a zoom below that: both records are still structurally
	// decoded (never byte-skipped), just filtered out afterward.
	d := &SubFileDescriptor{BaseZoomLevel: 5, ZoomLevelMin: 5, ZoomLevelMax: 5}
	topLeft := Coordinate{Lat: 0, Lon: 0}

	result, err := decodeTile(r, d, topLeft, 0, 0, 0, 0, 4, false)
	require.NoError(t, err)
	assert.Empty(t, result.POIs)
	assert.Empty(t, result.Ways)
}

func TestDecodeTile_TruncatedPayloadReturnsWrappedError(t *testing.T) {
	data := buildMinimalTileBlock()
	truncated := data[:len(data)-5]
	r := newReader(bytes.NewReader(truncated), len(truncated))
	require.NoError(t, r.readFromFile(len(truncated)))

	d := &SubFileDescriptor{BaseZoomLevel: 5, ZoomLevelMin: 5, ZoomLevelMax: 5}
	_, err := decodeTile(r, d, Coordinate{}, 0, 0, 0, 0, 5, false)
	assert.ErrorIs(t, err, ErrTruncatedTileBlock)
}

func TestLatLonToTile_KnownPoints(t *testing.T) {
	tests := []struct {
		name         string
		lat, lon     int32
		zoom         int
		wantX, wantY int
	}{
		{"whole world is one tile at zoom 0", 0, 0, 0, 0, 0},
		{"equator and prime meridian at zoom 1", 0, 0, 1, 1, 1},
		{"equator just east of the antimeridian at zoom 1", 0, -179_999_999, 1, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := latLonToTile(tt.lat, tt.lon, tt.zoom)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestTileTopLeft_InvertsLatLonToTile(t *testing.T) {
	// Tile (1,1) at zoom 1 has its top-left corner exactly at (0, 0).
	top := tileTopLeft(1, 1, 1)
	assert.InDelta(t, 0, top.Lat, 10)
	assert.InDelta(t, 0, top.Lon, 10)

	// Tile (0,0) at zoom 1 starts at the antimeridian and the maximum
	// Web Mercator latitude, 85.05112878 degrees.
	top = tileTopLeft(0, 0, 1)
	assert.InDelta(t, 85_051_128, top.Lat, 10)
	assert.InDelta(t, -180_000_000, top.Lon, 10)
}

func TestSelectSubFile_PicksCoveringZoomInterval(t *testing.T) {
	info := &MapFileInfo{subFiles: []SubFileDescriptor{
		{ZoomLevelMin: 0, ZoomLevelMax: 7},
		{ZoomLevelMin: 8, ZoomLevelMax: 14},
	}}

	d := selectSubFile(info, 10)
	require.NotNil(t, d)
	assert.Equal(t, 8, d.ZoomLevelMin)

	assert.Nil(t, selectSubFile(info, 20))
}

func TestLocateBlock_OutsideBoundaryMisses(t *testing.T) {
	d := &SubFileDescriptor{
		BaseZoomLevel: 5,
		Boundary:      TileBoundary{Left: 0, Top: 0, Right: 1, Bottom: 1},
		StartAddress:  0,
	}
	_, found, err := locateBlock(bytes.NewReader(nil), d, 10, 10, 5)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEnsureIndexLoaded_DecodesPackedEntries(t *testing.T) {
	// Two cells: the first a plain offset, the second flagged as water.
	raw := make([]byte, subFileIndexHeaderSize+2*tileIndexEntrySize)
	entry0 := raw[subFileIndexHeaderSize : subFileIndexHeaderSize+tileIndexEntrySize]
	entry0[0], entry0[1], entry0[2], entry0[3], entry0[4] = 0x00, 0x00, 0x00, 0x01, 0x00 // offset 256
	entry1 := raw[subFileIndexHeaderSize+tileIndexEntrySize : subFileIndexHeaderSize+2*tileIndexEntrySize]
	entry1[0], entry1[1], entry1[2], entry1[3], entry1[4] = 0x80, 0x00, 0x00, 0x00, 0x05 // water flag + offset 5

	d := &SubFileDescriptor{
		BaseZoomLevel: 5,
		Boundary:      TileBoundary{Left: 0, Top: 0, Right: 1, Bottom: 0},
		StartAddress:  0,
	}
	require.NoError(t, ensureIndexLoaded(bytes.NewReader(raw), d))
	require.Len(t, d.indexEntries, 2)
	assert.Equal(t, tileIndexEntry{offset: 256, water: false}, d.indexEntries[0])
	assert.Equal(t, tileIndexEntry{offset: 5, water: true}, d.indexEntries[1])

	// Second call must not re-read the file.
	require.NoError(t, ensureIndexLoaded(bytes.NewReader(nil), d))
	assert.Len(t, d.indexEntries, 2)
}
