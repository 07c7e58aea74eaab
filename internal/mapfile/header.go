// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/kelindar/mapsforge-go/internal/coord"
)

const (
	magicBytes        = "mapsforge binary OSM"
	magicByteLength   = 20
	minHeaderSize     = 70
	maxHeaderSize     = 1_000_000
	requiredVersion   = 3
	minMapDate        = 1_200_000_000_000
	requiredTileSize  = 256
	requiredProjection = "Mercator"
)

// flag bits in the header's single flag byte.
const (
	flagDebugFile             = 1 << 7
	flagHasStartPosition      = 1 << 6
	flagHasStartZoomLevel     = 1 << 5
	flagHasLanguagePreference = 1 << 4
	flagHasComment            = 1 << 3
	flagHasCreatedBy          = 1 << 2
)

// StartPosition is the header's optional starting lat/lon in microdegrees.
type StartPosition struct {
	Lat, Lon int32
}

// SubFileDescriptor describes one zoom-interval region of the map file.
type SubFileDescriptor struct {
	BaseZoomLevel int
	ZoomLevelMin  int
	ZoomLevelMax  int
	StartAddress  int64
	SubFileSize   int64

	// Boundary is the sub-file's tile grid at BaseZoomLevel, derived from
	// the global bounding box projected onto that zoom level.
	Boundary TileBoundary

	indexEntries []tileIndexEntry // memoized on first lookup
}

// TileBoundary is the inclusive tile-coordinate rectangle a sub-file
// covers at its base zoom level.
type TileBoundary struct {
	Left, Top, Right, Bottom int
}

func (b TileBoundary) width() int  { return b.Right - b.Left + 1 }
func (b TileBoundary) height() int { return b.Bottom - b.Top + 1 }

func (b TileBoundary) contains(x, y int) bool {
	return x >= b.Left && x <= b.Right && y >= b.Top && y <= b.Bottom
}

// MapFileInfo is the decoded, validated header of a Mapsforge map file.
type MapFileInfo struct {
	FileSize        int64
	FileVersion     int32
	MapDate         int64
	ProjectionName  string
	TilePixelSize   int16
	BoundingBox     coord.BoundingBox
	PoiTags         []string
	WayTags         []string
	NumberOfSubFiles int
	DebugFile       bool

	StartPosition      *StartPosition
	StartZoomLevel     *int
	LanguagePreference *string
	Comment            *string
	CreatedBy          *string

	subFiles []SubFileDescriptor
}

// SubFiles returns the decoded sub-file descriptors.
func (m *MapFileInfo) SubFiles() []SubFileDescriptor {
	return m.subFiles
}

// decodeHeader runs the header sequence atomically: the first failing
// clause aborts with a wrapped sentinel naming the offending value.
func decodeHeader(r *reader, actualFileSize int64) (*MapFileInfo, error) {
	// 1. Magic bytes.
	if err := r.readFromFile(magicByteLength); err != nil {
		return nil, err
	}
	magic, err := r.readUTF8EncodedStringN(magicByteLength)
	if err != nil {
		return nil, err
	}
	if magic != magicBytes {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, magic)
	}

	// 2. Remaining header size, then refill the buffer by that many bytes.
	if err := r.readFromFile(4); err != nil {
		return nil, err
	}
	remainingSize, err := r.readInt()
	if err != nil {
		return nil, err
	}
	if remainingSize < minHeaderSize || remainingSize > maxHeaderSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHeaderSize, remainingSize)
	}
	if err := r.readFromFile(int(remainingSize)); err != nil {
		return nil, err
	}

	info := &MapFileInfo{}

	// 3. File version.
	version, err := r.readInt()
	if err != nil {
		return nil, err
	}
	if version != requiredVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	info.FileVersion = version

	// 4. Header file size must equal the actual file length.
	headerFileSize, err := r.readLong()
	if err != nil {
		return nil, err
	}
	if headerFileSize != actualFileSize {
		return nil, fmt.Errorf("%w: header says %d, file is %d bytes", ErrInvalidFileSize, headerFileSize, actualFileSize)
	}
	info.FileSize = headerFileSize

	// 5. Map date.
	mapDate, err := r.readLong()
	if err != nil {
		return nil, err
	}
	if mapDate < minMapDate {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMapDate, mapDate)
	}
	info.MapDate = mapDate

	// 6. Bounding box.
	minLat, err := r.readInt()
	if err != nil {
		return nil, err
	}
	minLon, err := r.readInt()
	if err != nil {
		return nil, err
	}
	maxLat, err := r.readInt()
	if err != nil {
		return nil, err
	}
	maxLon, err := r.readInt()
	if err != nil {
		return nil, err
	}
	bbox := coord.BoundingBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	if !bbox.Valid() {
		return nil, fmt.Errorf("%w: (%d, %d, %d, %d)", ErrInvalidBoundingBox, minLat, minLon, maxLat, maxLon)
	}
	info.BoundingBox = bbox

	// 7. Tile pixel size.
	tileSize, err := r.readShort()
	if err != nil {
		return nil, err
	}
	if tileSize != requiredTileSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTilePixelSize, tileSize)
	}
	info.TilePixelSize = tileSize

	// 8. Projection name.
	projection, err := r.readUTF8EncodedString()
	if err != nil {
		return nil, err
	}
	if projection != requiredProjection {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProjection, projection)
	}
	info.ProjectionName = projection

	// 9. Flag byte.
	flags, err := r.readByte()
	if err != nil {
		return nil, err
	}
	info.DebugFile = flags&flagDebugFile != 0

	// 10. Optional strings/values, only when their flag bit is set.
	if flags&flagHasStartPosition != 0 {
		lat, err := r.readInt()
		if err != nil {
			return nil, err
		}
		lon, err := r.readInt()
		if err != nil {
			return nil, err
		}
		info.StartPosition = &StartPosition{Lat: lat, Lon: lon}
	}
	if flags&flagHasStartZoomLevel != 0 {
		b, err := r.readByte()
		if err != nil {
			return nil, err
		}
		zoom := int(b)
		info.StartZoomLevel = &zoom
	}
	if flags&flagHasLanguagePreference != 0 {
		s, err := r.readUTF8EncodedString()
		if err != nil {
			return nil, err
		}
		s = normalizeString(s)
		info.LanguagePreference = &s
	}
	if flags&flagHasComment != 0 {
		s, err := r.readUTF8EncodedString()
		if err != nil {
			return nil, err
		}
		s = normalizeString(s)
		info.Comment = &s
	}
	if flags&flagHasCreatedBy != 0 {
		s, err := r.readUTF8EncodedString()
		if err != nil {
			return nil, err
		}
		s = normalizeString(s)
		info.CreatedBy = &s
	}

	// 11. POI tag vocabulary.
	poiTagCount, err := r.readShort()
	if err != nil {
		return nil, err
	}
	if poiTagCount < 0 {
		return nil, fmt.Errorf("%w: poi tag count %d", ErrInvalidTagCount, poiTagCount)
	}
	info.PoiTags, err = readTagList(r, int(poiTagCount))
	if err != nil {
		return nil, err
	}

	// 12. Way tag vocabulary.
	wayTagCount, err := r.readShort()
	if err != nil {
		return nil, err
	}
	if wayTagCount < 0 {
		return nil, fmt.Errorf("%w: way tag count %d", ErrInvalidTagCount, wayTagCount)
	}
	info.WayTags, err = readTagList(r, int(wayTagCount))
	if err != nil {
		return nil, err
	}

	// 13. Sub-file descriptors.
	numSubFiles, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if numSubFiles < 1 {
		return nil, fmt.Errorf("%w: number of sub-files %d", ErrInvalidHeaderSize, numSubFiles)
	}
	info.NumberOfSubFiles = int(numSubFiles)

	descriptors := make([]SubFileDescriptor, numSubFiles)
	for i := range descriptors {
		d, err := readSubFileDescriptor(r)
		if err != nil {
			return nil, err
		}
		descriptors[i] = d
	}

	// Each descriptor's boundary rectangle is a pure function of the
	// already-decoded global bounding box and that descriptor's own base
	// zoom; none of the N (at most 255) descriptors depend on another,
	// so they're derived concurrently instead of in the sequential loop
	// above that has to follow the byte stream in order.
	if err := deriveBoundaries(descriptors, bbox); err != nil {
		return nil, err
	}
	info.subFiles = descriptors

	return info, nil
}

func readTagList(r *reader, count int) ([]string, error) {
	tags := make([]string, count)
	for i := 0; i < count; i++ {
		s, err := r.readUTF8EncodedString()
		if err != nil {
			return nil, err
		}
		if s == "" {
			return nil, fmt.Errorf("%w: tag index %d", ErrNullTag, i)
		}
		tags[i] = s
	}
	return tags, nil
}

func readSubFileDescriptor(r *reader) (SubFileDescriptor, error) {
	baseZoom, err := r.readByte()
	if err != nil {
		return SubFileDescriptor{}, err
	}
	zoomMin, err := r.readByte()
	if err != nil {
		return SubFileDescriptor{}, err
	}
	zoomMax, err := r.readByte()
	if err != nil {
		return SubFileDescriptor{}, err
	}
	startAddress, err := r.readLong()
	if err != nil {
		return SubFileDescriptor{}, err
	}
	subFileSize, err := r.readLong()
	if err != nil {
		return SubFileDescriptor{}, err
	}

	return SubFileDescriptor{
		BaseZoomLevel: int(baseZoom),
		ZoomLevelMin:  int(zoomMin),
		ZoomLevelMax:  int(zoomMax),
		StartAddress:  startAddress,
		SubFileSize:   subFileSize,
	}, nil
}

// deriveBoundaries fills in each descriptor's Boundary rectangle from the
// global bounding box. Every descriptor's projection is independent, so
// they run concurrently, one goroutine per descriptor.
func deriveBoundaries(descriptors []SubFileDescriptor, global coord.BoundingBox) error {
	g, _ := errgroup.WithContext(context.Background())
	for i := range descriptors {
		i := i
		g.Go(func() error {
			d := &descriptors[i]
			left, top := latLonToTile(global.MaxLat, global.MinLon, d.BaseZoomLevel)
			right, bottom := latLonToTile(global.MinLat, global.MaxLon, d.BaseZoomLevel)
			d.Boundary = TileBoundary{Left: left, Top: top, Right: right, Bottom: bottom}
			return nil
		})
	}
	return g.Wait()
}

// normalizeString applies Unicode NFC normalization to decoded strings
// (POI/way names, header comment/createdBy/languagePreference) so that
// canonically-equal-but-byte-distinct strings compare equal downstream.
func normalizeString(s string) string {
	return norm.NFC.String(s)
}
