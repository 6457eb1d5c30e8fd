// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package core

import (
	"encoding/binary"
	"io"
)

// Reader is the synchronous random-access reader over a file handle that
// every box/element decoder reads through. It wraps an
// io.ReadSeeker; there is no buffering layer beyond the small scratch slice
// used to avoid an allocation per fixed-width read. Not safe for concurrent
// use — the parser is single-threaded.
type Reader struct {
	r   io.ReadSeeker
	buf [8]byte
}

// NewReader wraps r for big-endian fixed-width reads, typed slices, and
// position get/set. Both BMFF and EBML fixed-width integers are big-endian,
// so there is no little-endian mode — unlike the teacher's streamReader,
// which supports both because TIFF/RAW image formats can be either.
func NewReader(r io.ReadSeeker) *Reader {
	return &Reader{r: r}
}

// Position returns the current read offset.
func (rd *Reader) Position() (int64, error) {
	n, err := rd.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, NewFormatError(ErrReadError, err)
	}
	return n, nil
}

// SetPosition seeks to an absolute offset.
func (rd *Reader) SetPosition(pos int64) error {
	if _, err := rd.r.Seek(pos, io.SeekStart); err != nil {
		return NewFormatError(ErrReadError, err)
	}
	return nil
}

// Size returns the total size of the underlying stream, restoring the
// current position afterwards.
func (rd *Reader) Size() (int64, error) {
	cur, err := rd.Position()
	if err != nil {
		return 0, err
	}
	size, err := rd.r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, NewFormatError(ErrReadError, err)
	}
	if err := rd.SetPosition(cur); err != nil {
		return 0, err
	}
	return size, nil
}

func (rd *Reader) fill(n int) error {
	_, err := io.ReadFull(rd.r, rd.buf[:n])
	if err != nil {
		return WrapReadError(err)
	}
	return nil
}

// ReadU8 reads one unsigned byte.
func (rd *Reader) ReadU8() (uint8, error) {
	if err := rd.fill(1); err != nil {
		return 0, err
	}
	return rd.buf[0], nil
}

// ReadU16 reads a big-endian uint16.
func (rd *Reader) ReadU16() (uint16, error) {
	if err := rd.fill(2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(rd.buf[:2]), nil
}

// ReadU32 reads a big-endian uint32.
func (rd *Reader) ReadU32() (uint32, error) {
	if err := rd.fill(4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(rd.buf[:4]), nil
}

// ReadU64 reads a big-endian uint64.
func (rd *Reader) ReadU64() (uint64, error) {
	if err := rd.fill(8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(rd.buf[:8]), nil
}

// ReadI32 reads a big-endian two's-complement int32.
func (rd *Reader) ReadI32() (int32, error) {
	v, err := rd.ReadU32()
	return int32(v), err
}

// ReadI64 reads a big-endian two's-complement int64.
func (rd *Reader) ReadI64() (int64, error) {
	v, err := rd.ReadU64()
	return int64(v), err
}

// ReadSlice reads exactly n bytes into a freshly allocated, owned slice.
// Every caller in this module reads a length it already derived from a
// declared size (a box/element's PayloadSize, a string's declared byte
// count), so a short final read always means the stream is truncated
// relative to what was declared — not a legitimate "read up to EOF" —
// and is surfaced as an error rather than silently returning fewer bytes
// than asked for.
func (rd *Reader) ReadSlice(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rd.r, b); err != nil {
		return nil, WrapReadError(err)
	}
	return b, nil
}

// PeekU8 reads one byte and restores the position.
func (rd *Reader) PeekU8() (uint8, error) {
	pos, err := rd.Position()
	if err != nil {
		return 0, err
	}
	v, err := rd.ReadU8()
	if serr := rd.SetPosition(pos); serr != nil {
		return 0, serr
	}
	return v, err
}

// PeekU32 reads a big-endian uint32 and restores the position.
func (rd *Reader) PeekU32() (uint32, error) {
	pos, err := rd.Position()
	if err != nil {
		return 0, err
	}
	v, err := rd.ReadU32()
	if serr := rd.SetPosition(pos); serr != nil {
		return 0, serr
	}
	return v, err
}

// Skip advances n bytes from the current position without reading them.
func (rd *Reader) Skip(n int64) error {
	if n == 0 {
		return nil
	}
	if _, err := rd.r.Seek(n, io.SeekCurrent); err != nil {
		return NewFormatError(ErrReadError, err)
	}
	return nil
}
