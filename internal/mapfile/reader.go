// Copyright (c) the mapsforge-go contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package mapfile

import (
	"fmt"
	"io"
)

// maxHeaderBuffer bounds the in-memory region readFromFile is allowed to
// pull in for header parsing; per-tile payloads are bounded by the caller
// to maxTileBuffer or the bytes left in the file, whichever is smaller.
const maxHeaderBuffer = 1 << 20 // 1 MiB

// reader is a bounded, endian-aware byte buffer with file-backed refill.
// It carries both a file position (via the backing io.ReaderAt and
// fileOffset) and an in-memory buffer with its own cursor: header and
// tile payloads both benefit from a bounded in-memory view distinct from
// the file-level cursor.
type reader struct {
	src        io.ReaderAt
	fileOffset int64 // next unread byte in the backing file
	buf        []byte
	pos        int // cursor within buf
	maxBuffer  int // largest readFromFile is allowed to request
}

func newReader(src io.ReaderAt, maxBuffer int) *reader {
	return &reader{src: src, maxBuffer: maxBuffer}
}

// seekFile repositions the file cursor without touching the in-memory
// buffer; the next readFromFile call pulls bytes starting at offset. Used
// to jump to a tile-index entry's offset before reading its payload.
func (r *reader) seekFile(offset int64) {
	r.fileOffset = offset
}

// readFromFile replaces the buffer with the next n bytes from the file
// starting at the current file offset, and resets the cursor to 0.
func (r *reader) readFromFile(n int) error {
	if n < 0 || n > r.maxBuffer {
		return fmt.Errorf("%w: requested %d bytes exceeds max buffer %d", ErrBufferUnderflow, n, r.maxBuffer)
	}

	buf := make([]byte, n)
	read, err := r.src.ReadAt(buf, r.fileOffset)
	if err != nil && !(err == io.EOF && read == n) {
		return fmt.Errorf("%w: reading %d bytes at offset %d: %v", ErrIoError, n, r.fileOffset, err)
	}
	if read < n {
		return fmt.Errorf("%w: requested %d bytes, file yielded %d", ErrBufferUnderflow, n, read)
	}

	r.buf = buf
	r.pos = 0
	r.fileOffset += int64(n)
	return nil
}

// remaining reports how many unread bytes are left in the active buffer.
func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) need(n int) error {
	if r.remaining() < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrBufferUnderflow, n, r.remaining())
	}
	return nil
}

func (r *reader) readByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readShort() (int16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := int16(r.buf[r.pos])<<8 | int16(r.buf[r.pos+1])
	r.pos += 2
	return v, nil
}

func (r *reader) readInt() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := int32(r.buf[r.pos])<<24 | int32(r.buf[r.pos+1])<<16 | int32(r.buf[r.pos+2])<<8 | int32(r.buf[r.pos+3])
	r.pos += 4
	return v, nil
}

func (r *reader) readLong() (int64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	var v int64
	for i := 0; i < 8; i++ {
		v = v<<8 | int64(r.buf[r.pos+i])
	}
	r.pos += 8
	return v, nil
}

// readUnsignedInt decodes a variable-length, 7-bits-per-byte integer
// where the high bit of each byte marks continuation. Result is >= 0.
func (r *reader) readUnsignedInt() (int32, error) {
	var result int32
	var shift uint
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		if shift == 28 && b&0x78 != 0 {
			return 0, fmt.Errorf("%w: unsigned varint overflows int32", ErrBufferUnderflow)
		}
		result |= int32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift > 28 {
			return 0, fmt.Errorf("%w: unsigned varint too long", ErrBufferUnderflow)
		}
	}
}

// readSignedInt decodes the same 7-bit continuation framing, but the
// sign bit lives in bit 6 of the final byte (before the continuation bit
// is stripped): bytes before the last one contribute 7 data bits each;
// the last byte contributes 6 data bits plus a sign bit.
func (r *reader) readSignedInt() (int32, error) {
	var result int32
	var shift uint
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		if b&0x80 == 0 {
			// Final byte: bit 6 is the sign, bits 0-5 are data.
			result |= int32(b&0x3f) << shift
			if b&0x40 != 0 {
				result = -result
			}
			return result, nil
		}
		result |= int32(b&0x7f) << shift
		shift += 7
		if shift > 28 {
			return 0, fmt.Errorf("%w: signed varint too long", ErrBufferUnderflow)
		}
	}
}

// readUTF8EncodedString reads a readUnsignedInt()-prefixed UTF-8 string.
func (r *reader) readUTF8EncodedString() (string, error) {
	n, err := r.readUnsignedInt()
	if err != nil {
		return "", err
	}
	return r.readUTF8EncodedStringN(int(n))
}

// readUTF8EncodedStringN reads a fixed-length UTF-8 string, used for the
// 20-byte magic-byte prefix.
func (r *reader) readUTF8EncodedStringN(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("%w: negative string length %d", ErrBufferUnderflow, n)
	}
	if err := r.need(n); err != nil {
		return "", err
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s, nil
}

func (r *reader) skipBytes(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
