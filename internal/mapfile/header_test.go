// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// headerBuilder assembles a minimal, valid Mapsforge header byte stream so
// tests can flip one field at a time instead of hand-editing raw bytes.
type headerBuilder struct {
	buf bytes.Buffer
}

func (b *headerBuilder) byte(v byte)  { b.buf.WriteByte(v) }
func (b *headerBuilder) short(v int16) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *headerBuilder) int32(v int32) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *headerBuilder) int64(v int64) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *headerBuilder) str(s string) {
	b.unsignedVarint(uint32(len(s)))
	b.buf.WriteString(s)
}
func (b *headerBuilder) raw(s string) { b.buf.WriteString(s) }

func (b *headerBuilder) unsignedVarint(v uint32) {
	for {
		if v < 0x80 {
			b.buf.WriteByte(byte(v))
			return
		}
		b.buf.WriteByte(byte(v&0x7f) | 0x80)
		v >>= 7
	}
}

// subFileDescriptor appends one 19-byte descriptor: baseZoom, zoomMin,
// zoomMax, startAddress, subFileSize.
func (b *headerBuilder) subFileDescriptor(baseZoom, zoomMin, zoomMax byte, startAddr, size int64) {
	b.byte(baseZoom)
	b.byte(zoomMin)
	b.byte(zoomMax)
	b.int64(startAddr)
	b.int64(size)
}

// remainder builds everything after the magic bytes and the
// remaining-header-size int, i.e. the part whose byte length that int
// declares.
func buildRemainder(t *testing.T, fileSize int64) []byte {
	t.Helper()
	var b headerBuilder
	b.int32(requiredVersion)
	b.int64(fileSize)
	b.int64(minMapDate + 1)
	b.int32(-10_000_000) // minLat
	b.int32(-10_000_000) // minLon
	b.int32(10_000_000)  // maxLat
	b.int32(10_000_000)  // maxLon
	b.short(requiredTileSize)
	b.str(requiredProjection)
	b.byte(0) // flags: no optional fields, not a debug file
	b.short(1)
	b.str("highway")
	b.short(1)
	b.str("building")
	b.byte(1) // one sub-file
	b.subFileDescriptor(8, 0, 8, 300, 1024)
	return b.buf.Bytes()
}

func buildMapFile(t *testing.T) []byte {
	t.Helper()
	remainder := buildRemainder(t, 0) // patched below once total size is known

	var b headerBuilder
	b.raw(magicBytes)
	b.int32(int32(len(remainder)))
	b.buf.Write(remainder)

	total := int64(b.buf.Len())
	out := b.buf.Bytes()
	// Patch the header file-size field (first int64 after version, at a
	// fixed offset: magic(20) + remainingSize(4) + version(4)).
	binary.BigEndian.PutUint64(out[28:36], uint64(total))
	return out
}

func TestDecodeHeader_ValidMinimal(t *testing.T) {
	data := buildMapFile(t)
	r := newReader(bytes.NewReader(data), maxHeaderBuffer)
	info, err := decodeHeader(r, int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, int32(requiredVersion), info.FileVersion)
	assert.Equal(t, "Mercator", info.ProjectionName)
	assert.Equal(t, []string{"highway"}, info.PoiTags)
	assert.Equal(t, []string{"building"}, info.WayTags)
	require.Len(t, info.SubFiles(), 1)

	sf := info.SubFiles()[0]
	assert.Equal(t, 8, sf.BaseZoomLevel)
	assert.Equal(t, 0, sf.ZoomLevelMin)
	assert.Equal(t, 8, sf.ZoomLevelMax)
	assert.True(t, sf.Boundary.width() > 0)
	assert.True(t, sf.Boundary.height() > 0)
}

func TestDecodeHeader_WrongMagic(t *testing.T) {
	data := buildMapFile(t)
	data[0] = 'X'
	r := newReader(bytes.NewReader(data), maxHeaderBuffer)
	_, err := decodeHeader(r, int64(len(data)))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeHeader_VersionMismatch(t *testing.T) {
	remainder := buildRemainder(t, 0)
	// Corrupt the version field (first four bytes of the remainder).
	binary.BigEndian.PutUint32(remainder[0:4], 99)

	var b headerBuilder
	b.raw(magicBytes)
	b.int32(int32(len(remainder)))
	b.buf.Write(remainder)
	data := b.buf.Bytes()
	binary.BigEndian.PutUint64(data[28:36], uint64(len(data)))

	r := newReader(bytes.NewReader(data), maxHeaderBuffer)
	_, err := decodeHeader(r, int64(len(data)))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeHeader_FileSizeMismatch(t *testing.T) {
	data := buildMapFile(t)
	_, err := decodeHeader(newReader(bytes.NewReader(data), maxHeaderBuffer), int64(len(data))+1)
	assert.ErrorIs(t, err, ErrInvalidFileSize)
}

func TestDecodeHeader_MapDateTooOld(t *testing.T) {
	var b headerBuilder
	b.int32(requiredVersion)
	b.int64(0) // file size placeholder, patched below
	b.int64(1000)
	b.int32(-1)
	b.int32(-1)
	b.int32(1)
	b.int32(1)
	b.short(requiredTileSize)
	b.str(requiredProjection)
	b.byte(0)
	b.short(0)
	b.short(0)
	b.byte(1)
	b.subFileDescriptor(8, 0, 8, 300, 1024)
	remainder := b.buf.Bytes()

	var full headerBuilder
	full.raw(magicBytes)
	full.int32(int32(len(remainder)))
	full.buf.Write(remainder)
	data := full.buf.Bytes()
	binary.BigEndian.PutUint64(data[28:36], uint64(len(data)))

	_, err := decodeHeader(newReader(bytes.NewReader(data), maxHeaderBuffer), int64(len(data)))
	assert.ErrorIs(t, err, ErrInvalidMapDate)
}

func TestDecodeHeader_NullTagRejected(t *testing.T) {
	var b headerBuilder
	b.int32(requiredVersion)
	b.int64(0)
	b.int64(minMapDate + 1)
	b.int32(-1)
	b.int32(-1)
	b.int32(1)
	b.int32(1)
	b.short(requiredTileSize)
	b.str(requiredProjection)
	b.byte(0)
	b.short(1)
	b.str("") // empty tag, should be rejected
	b.buf.Write(make([]byte, 25)) // padding so remainingSize still clears minHeaderSize
	remainder := b.buf.Bytes()

	var full headerBuilder
	full.raw(magicBytes)
	full.int32(int32(len(remainder)))
	full.buf.Write(remainder)
	data := full.buf.Bytes()
	binary.BigEndian.PutUint64(data[28:36], uint64(len(data)))

	_, err := decodeHeader(newReader(bytes.NewReader(data), maxHeaderBuffer), int64(len(data)))
	assert.ErrorIs(t, err, ErrNullTag)
}
