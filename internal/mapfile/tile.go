// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"fmt"
)

const debugSignatureLength = 16

// Coordinate is an absolute (lat, lon) position in microdegrees,
// reconstructed from a tile-relative delta.
type Coordinate struct {
	Lat, Lon int32
}

// POI is a single point-of-interest record decoded from a tile payload.
type POI struct {
	Position    Coordinate
	Layer       int8
	TagIDs      []uint16
	Name        *string
	HouseNumber *string
	Elevation   *int32
	Zoom        int
}

// WayDataBlock is one or more coordinate blocks (polyline/polygon rings)
// belonging to a single way.
type WayDataBlock struct {
	Rings [][]Coordinate
}

// Way is a single way (polyline or polygon) record decoded from a tile
// payload.
type Way struct {
	BoundingBox   *struct{ MinLat, MinLon, MaxLat, MaxLon int32 }
	LabelPosition *Coordinate
	Layer         int8
	TagIDs        []uint16
	Name          *string
	HouseNumber   *string
	Ref           *string
	DataBlocks    []WayDataBlock
	Zoom          int
}

// MapReadResult is the decoded payload for one requested tile.
type MapReadResult struct {
	POIs  []POI
	Ways  []Way
	Water bool
}

type zoomTableRow struct {
	cumulativePOIs int32
	cumulativeWays int32
}

// decodeTile parses one tile block from src's current position,
// reconstructing absolute coordinates from the tile's top-left corner, and
// filters records to those visible at targetZoom per the cumulative zoom
// table. Records that first appear above targetZoom are still structurally
// decoded (never byte-skipped, since records are variable length) and then
// discarded.
func decodeTile(src *reader, d *SubFileDescriptor, topLeft Coordinate, tileX, tileY, baseX, baseY, targetZoom int, debugFile bool) (MapReadResult, error) {
	if debugFile {
		if _, err := src.readBytes(debugSignatureLength); err != nil {
			return MapReadResult{}, fmt.Errorf("%w: debug signature: %v", ErrTruncatedTileBlock, err)
		}
	}

	zoomLevels := d.ZoomLevelMax - d.ZoomLevelMin + 1
	table := make([]zoomTableRow, zoomLevels)
	for i := range table {
		poiCount, err := src.readUnsignedInt()
		if err != nil {
			return MapReadResult{}, fmt.Errorf("%w: zoom table poi count: %v", ErrTruncatedTileBlock, err)
		}
		wayCount, err := src.readUnsignedInt()
		if err != nil {
			return MapReadResult{}, fmt.Errorf("%w: zoom table way count: %v", ErrTruncatedTileBlock, err)
		}
		table[i] = zoomTableRow{cumulativePOIs: poiCount, cumulativeWays: wayCount}
	}

	if _, err := src.readUnsignedInt(); err != nil { // first-way-offset; not needed for full decode
		return MapReadResult{}, fmt.Errorf("%w: first-way offset: %v", ErrTruncatedTileBlock, err)
	}

	totalPOIs := int(table[len(table)-1].cumulativePOIs)
	totalWays := int(table[len(table)-1].cumulativeWays)

	pois := make([]POI, 0, totalPOIs)
	for i := 0; i < totalPOIs; i++ {
		zoom := d.ZoomLevelMin + zoomRowOf(table, i, func(r zoomTableRow) int32 { return r.cumulativePOIs })
		poi, err := decodePOI(src, topLeft, zoom)
		if err != nil {
			return MapReadResult{}, err
		}
		if zoom <= targetZoom {
			pois = append(pois, poi)
		}
	}

	subtileBit := subtileBitIndex(tileX, tileY, baseX, baseY, targetZoom-d.BaseZoomLevel)

	ways := make([]Way, 0, totalWays)
	for i := 0; i < totalWays; i++ {
		zoom := d.ZoomLevelMin + zoomRowOf(table, i, func(r zoomTableRow) int32 { return r.cumulativeWays })
		way, covers, err := decodeWay(src, topLeft, zoom, subtileBit)
		if err != nil {
			return MapReadResult{}, err
		}
		if zoom <= targetZoom && covers {
			ways = append(ways, way)
		}
	}

	return MapReadResult{POIs: pois, Ways: ways}, nil
}

// zoomRowOf returns the zero-based row index whose cumulative count first
// exceeds sequential index i.
func zoomRowOf(table []zoomTableRow, i int, get func(zoomTableRow) int32) int {
	for row, entry := range table {
		if int32(i) < get(entry) {
			return row
		}
	}
	return len(table) - 1
}

func decodePOI(src *reader, topLeft Coordinate, zoom int) (POI, error) {
	latDelta, err := src.readSignedInt()
	if err != nil {
		return POI{}, fmt.Errorf("%w: poi lat delta: %v", ErrTruncatedTileBlock, err)
	}
	lonDelta, err := src.readSignedInt()
	if err != nil {
		return POI{}, fmt.Errorf("%w: poi lon delta: %v", ErrTruncatedTileBlock, err)
	}

	nibble, err := src.readByte()
	if err != nil {
		return POI{}, fmt.Errorf("%w: poi layer/tag nibble: %v", ErrTruncatedTileBlock, err)
	}
	layer := int8((nibble>>4)&0x0f) - 5
	numTags := int(nibble & 0x0f)

	tagIDs := make([]uint16, numTags)
	for i := 0; i < numTags; i++ {
		id, err := src.readUnsignedInt()
		if err != nil {
			return POI{}, fmt.Errorf("%w: poi tag id: %v", ErrTruncatedTileBlock, err)
		}
		tagIDs[i] = uint16(id)
	}

	flags, err := src.readByte()
	if err != nil {
		return POI{}, fmt.Errorf("%w: poi flag byte: %v", ErrTruncatedTileBlock, err)
	}

	poi := POI{
		Position: Coordinate{Lat: topLeft.Lat + latDelta, Lon: topLeft.Lon + lonDelta},
		Layer:    layer,
		TagIDs:   tagIDs,
		Zoom:     zoom,
	}

	const (
		flagHasName        = 1 << 7
		flagHasHouseNumber = 1 << 6
		flagHasElevation   = 1 << 5
	)
	if flags&flagHasName != 0 {
		s, err := src.readUTF8EncodedString()
		if err != nil {
			return POI{}, fmt.Errorf("%w: poi name: %v", ErrTruncatedTileBlock, err)
		}
		s = normalizeString(s)
		poi.Name = &s
	}
	if flags&flagHasHouseNumber != 0 {
		s, err := src.readUTF8EncodedString()
		if err != nil {
			return POI{}, fmt.Errorf("%w: poi house number: %v", ErrTruncatedTileBlock, err)
		}
		poi.HouseNumber = &s
	}
	if flags&flagHasElevation != 0 {
		e, err := src.readSignedInt()
		if err != nil {
			return POI{}, fmt.Errorf("%w: poi elevation: %v", ErrTruncatedTileBlock, err)
		}
		poi.Elevation = &e
	}

	return poi, nil
}

func decodeWay(src *reader, topLeft Coordinate, zoom int, requiredSubtileBit int) (Way, bool, error) {
	if _, err := src.readUnsignedInt(); err != nil { // way data-size, in bytes; advisory only
		return Way{}, false, fmt.Errorf("%w: way data size: %v", ErrTruncatedTileBlock, err)
	}

	subtileBitmap, err := src.readShort()
	if err != nil {
		return Way{}, false, fmt.Errorf("%w: way subtile bitmap: %v", ErrTruncatedTileBlock, err)
	}
	covers := requiredSubtileBit < 0 || subtileBitmap&(1<<uint(requiredSubtileBit)) != 0

	nibble, err := src.readByte()
	if err != nil {
		return Way{}, false, fmt.Errorf("%w: way layer/tag nibble: %v", ErrTruncatedTileBlock, err)
	}
	layer := int8((nibble>>4)&0x0f) - 5
	numTags := int(nibble & 0x0f)

	tagIDs := make([]uint16, numTags)
	for i := 0; i < numTags; i++ {
		id, err := src.readUnsignedInt()
		if err != nil {
			return Way{}, false, fmt.Errorf("%w: way tag id: %v", ErrTruncatedTileBlock, err)
		}
		tagIDs[i] = uint16(id)
	}

	flags, err := src.readByte()
	if err != nil {
		return Way{}, false, fmt.Errorf("%w: way flag byte: %v", ErrTruncatedTileBlock, err)
	}

	const (
		flagHasName             = 1 << 7
		flagHasHouseNumber      = 1 << 6
		flagHasRef              = 1 << 5
		flagHasLabelPosition    = 1 << 4
		flagHasWayDataBlocksByte = 1 << 3
		flagIsDoubleDelta       = 1 << 2
	)

	way := Way{Layer: layer, TagIDs: tagIDs, Zoom: zoom}

	if flags&flagHasName != 0 {
		s, err := src.readUTF8EncodedString()
		if err != nil {
			return Way{}, false, fmt.Errorf("%w: way name: %v", ErrTruncatedTileBlock, err)
		}
		s = normalizeString(s)
		way.Name = &s
	}
	if flags&flagHasHouseNumber != 0 {
		s, err := src.readUTF8EncodedString()
		if err != nil {
			return Way{}, false, fmt.Errorf("%w: way house number: %v", ErrTruncatedTileBlock, err)
		}
		way.HouseNumber = &s
	}
	if flags&flagHasRef != 0 {
		s, err := src.readUTF8EncodedString()
		if err != nil {
			return Way{}, false, fmt.Errorf("%w: way ref: %v", ErrTruncatedTileBlock, err)
		}
		way.Ref = &s
	}
	if flags&flagHasLabelPosition != 0 {
		latDelta, err := src.readSignedInt()
		if err != nil {
			return Way{}, false, fmt.Errorf("%w: way label position lat: %v", ErrTruncatedTileBlock, err)
		}
		lonDelta, err := src.readSignedInt()
		if err != nil {
			return Way{}, false, fmt.Errorf("%w: way label position lon: %v", ErrTruncatedTileBlock, err)
		}
		way.LabelPosition = &Coordinate{Lat: topLeft.Lat + latDelta, Lon: topLeft.Lon + lonDelta}
	}

	numBlocks := 1
	if flags&flagHasWayDataBlocksByte != 0 {
		n, err := src.readUnsignedInt()
		if err != nil {
			return Way{}, false, fmt.Errorf("%w: way data block count: %v", ErrTruncatedTileBlock, err)
		}
		numBlocks = int(n)
	}

	doubleDelta := flags&flagIsDoubleDelta != 0
	way.DataBlocks = make([]WayDataBlock, numBlocks)
	for i := 0; i < numBlocks; i++ {
		block, err := decodeWayDataBlock(src, topLeft, doubleDelta)
		if err != nil {
			return Way{}, false, err
		}
		way.DataBlocks[i] = block
	}

	return way, covers, nil
}

func decodeWayDataBlock(src *reader, topLeft Coordinate, doubleDelta bool) (WayDataBlock, error) {
	numRings, err := src.readUnsignedInt()
	if err != nil {
		return WayDataBlock{}, fmt.Errorf("%w: way data block ring count: %v", ErrTruncatedTileBlock, err)
	}

	rings := make([][]Coordinate, numRings)
	for i := 0; i < int(numRings); i++ {
		ring, err := decodeCoordinateBlock(src, topLeft, doubleDelta)
		if err != nil {
			return WayDataBlock{}, err
		}
		rings[i] = ring
	}
	return WayDataBlock{Rings: rings}, nil
}

func decodeCoordinateBlock(src *reader, topLeft Coordinate, doubleDelta bool) ([]Coordinate, error) {
	numCoords, err := src.readUnsignedInt()
	if err != nil {
		return nil, fmt.Errorf("%w: coordinate block vertex count: %v", ErrTruncatedTileBlock, err)
	}
	if numCoords < 2 {
		return nil, fmt.Errorf("%w: coordinate block needs >= 2 vertices, got %d", ErrTruncatedTileBlock, numCoords)
	}

	coords := make([]Coordinate, numCoords)
	lat, lon := topLeft.Lat, topLeft.Lon
	var prevLatDelta, prevLonDelta int32

	for i := 0; i < int(numCoords); i++ {
		latDelta, err := src.readSignedInt()
		if err != nil {
			return nil, fmt.Errorf("%w: coordinate lat delta: %v", ErrTruncatedTileBlock, err)
		}
		lonDelta, err := src.readSignedInt()
		if err != nil {
			return nil, fmt.Errorf("%w: coordinate lon delta: %v", ErrTruncatedTileBlock, err)
		}

		if doubleDelta && i >= 2 {
			latDelta += prevLatDelta
			lonDelta += prevLonDelta
		}
		prevLatDelta, prevLonDelta = latDelta, lonDelta

		lat += latDelta
		lon += lonDelta
		coords[i] = Coordinate{Lat: lat, Lon: lon}
	}

	return coords, nil
}

// subtileBitIndex computes which of the 16 bits (a 4x4 grid) in a way's
// subtile bitmap corresponds to (tileX, tileY) relative to the base-zoom
// block at (baseX, baseY). zoomShift is targetZoom - baseZoomLevel; for
// zoomShift <= 0 (the request is at or below base zoom) every way in the
// block is relevant and this returns -1, meaning "no subtile filtering".
func subtileBitIndex(tileX, tileY, baseX, baseY, zoomShift int) int {
	if zoomShift <= 0 {
		return -1
	}
	if zoomShift > 2 {
		// the bitmap only encodes a 4x4 (2^2 x 2^2) grid: use the tile's
		// ancestor two levels below the base zoom
		tileX >>= uint(zoomShift - 2)
		tileY >>= uint(zoomShift - 2)
		zoomShift = 2
	}
	span := 1 << uint(zoomShift)
	subX := tileX - (baseX << uint(zoomShift))
	subY := tileY - (baseY << uint(zoomShift))
	if subX < 0 || subX >= span || subY < 0 || subY >= span {
		return -1
	}
	// Scale into the fixed 4x4 grid the bitmap always encodes.
	scale := 4 / span
	gridX := subX * scale
	gridY := subY * scale
	return gridY*4 + gridX
}
