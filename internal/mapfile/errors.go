// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import "errors"

// Sentinel errors for the map-file reader. Call sites wrap these with
// fmt.Errorf("%w: ...", Err...) so errors.Is matching keeps working while
// the message still names the offending value.
var (
	ErrInvalidMagic         = errors.New("invalid magic byte")
	ErrUnsupportedVersion   = errors.New("unsupported file version")
	ErrInvalidHeaderSize    = errors.New("invalid remaining header size")
	ErrInvalidFileSize      = errors.New("invalid file size")
	ErrInvalidMapDate       = errors.New("invalid map date")
	ErrInvalidBoundingBox   = errors.New("invalid bounding box")
	ErrInvalidTilePixelSize = errors.New("invalid tile pixel size")
	ErrUnsupportedProjection = errors.New("unsupported projection")
	ErrInvalidTagCount      = errors.New("invalid tag count")
	ErrNullTag              = errors.New("null tag")
	ErrBufferUnderflow      = errors.New("buffer underflow")
	ErrTruncatedTileBlock   = errors.New("truncated tile block")
	ErrIoError              = errors.New("i/o error")
)
