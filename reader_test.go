// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapsforge

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalMapFileBuilder assembles just enough of a valid Mapsforge header
// to exercise Open/GetMapFileInfo through the public API, mirroring the
// byte layout internal/mapfile's own header tests build against.
type minimalMapFileBuilder struct {
	buf bytes.Buffer
}

func (b *minimalMapFileBuilder) byte(v byte)   { b.buf.WriteByte(v) }
func (b *minimalMapFileBuilder) short(v int16) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *minimalMapFileBuilder) int32(v int32) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *minimalMapFileBuilder) int64(v int64) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *minimalMapFileBuilder) str(s string) {
	b.unsignedVarint(uint32(len(s)))
	b.buf.WriteString(s)
}
func (b *minimalMapFileBuilder) unsignedVarint(v uint32) {
	for {
		if v < 0x80 {
			b.buf.WriteByte(byte(v))
			return
		}
		b.buf.WriteByte(byte(v&0x7f) | 0x80)
		v >>= 7
	}
}

func writeMinimalMapFile(t *testing.T, path string) {
	t.Helper()

	var rem minimalMapFileBuilder
	rem.int32(3)             // requiredVersion
	rem.int64(0)             // file size placeholder, patched below
	rem.int64(1_300_000_000_000) // map date, comfortably after the format epoch
	rem.int32(-10_000_000)   // minLat
	rem.int32(-10_000_000)   // minLon
	rem.int32(10_000_000)    // maxLat
	rem.int32(10_000_000)    // maxLon
	rem.short(256)           // tile pixel size
	rem.str("Mercator")
	rem.byte(0) // flags
	rem.short(1)
	rem.str("highway")
	rem.short(1)
	rem.str("building")
	rem.byte(1)            // one sub-file
	rem.byte(8)            // baseZoom
	rem.byte(0)            // zoomMin
	rem.byte(8)            // zoomMax
	rem.int64(300)         // startAddress
	rem.int64(1024)        // subFileSize
	remainder := rem.buf.Bytes()

	var full minimalMapFileBuilder
	full.buf.WriteString("mapsforge binary OSM")
	full.int32(int32(len(remainder)))
	full.buf.Write(remainder)
	data := full.buf.Bytes()
	binary.BigEndian.PutUint64(data[28:36], uint64(len(data)))

	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestOpen_DecodesHeaderThroughPublicAPI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "germany.map")
	writeMinimalMapFile(t, path)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	info, err := r.GetMapFileInfo()
	require.NoError(t, err)
	assert.Equal(t, "Mercator", info.ProjectionName)
	assert.Equal(t, []string{"highway"}, info.PoiTags)
	assert.Equal(t, []string{"building"}, info.WayTags)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.map"))
	assert.Error(t, err)
}

func TestReader_GetMapFileInfoAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "germany.map")
	writeMinimalMapFile(t, path)

	r, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.GetMapFileInfo()
	assert.Error(t, err)
}
