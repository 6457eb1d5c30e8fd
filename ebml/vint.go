// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package ebml implements a from-scratch reader for the Extensible Binary
// Meta Language (IETF RFC 8794), the envelope format for Matroska and
// WebM, including Matroska-specific schema interpretation via the
// sibling matroska package.
package ebml

import "github.com/tmelisma/boxtree/core"

// VINT is a decoded EBML variable-length integer: Value
// is the numeric payload (marker stripped for lengths, marker retained
// for IDs — see ReadVIntID vs ReadVIntLength), Length is the VINT's total byte
// count.
type VINT struct {
	Value  uint64
	Length int
}

// leadingZeroWidth returns w, the number of leading zero bits in b
// (counted from the MSB — a 1 in the top bit means w==0), and ok==false
// if b has no 1 bit at all (the VINT would need more than 8 bytes,
// VIntOutOfRange).
func leadingZeroWidth(b byte) (w int, ok bool) {
	for i := 0; i < 8; i++ {
		if b&(0x80>>uint(i)) != 0 {
			return i, true
		}
	}
	return 0, false
}

// readVINT reads a VINT from r, returning both the marker-stripped data
// value (dataValue) and the marker-retained raw value (rawValue) so
// callers can pick whichever one they need. Validating all-zero/all-one
// data is each caller's job, not this shared decode: the two reserved
// values only carry meaning for element sizes (RFC 8794 §6), and
// rejecting them for IDs too would make real, schema-defined IDs like
// Matroska's ChapterDisplay (length-1 ID 0x80, all-zero data) unreadable.
func readVINT(r *core.Reader) (rawValue uint64, dataValue uint64, length int, err error) {
	first, err := r.ReadU8()
	if err != nil {
		return 0, 0, 0, err
	}
	w, ok := leadingZeroWidth(first)
	if !ok {
		return 0, 0, 0, core.NewFormatError(core.ErrVIntOutOfRange, nil)
	}
	length = w + 1

	raw := uint64(first)
	dataMask := byte(0xFF >> uint(w+1))
	data := uint64(first & dataMask)

	for i := 1; i < length; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return 0, 0, 0, err
		}
		raw = raw<<8 | uint64(b)
		data = data<<8 | uint64(b)
	}

	return raw, data, length, nil
}

// ReadVIntID reads a variable-length ID, keeping the marker bits intact.
// Callers compare the result to known IDs or surface it as unknown;
// real Matroska IDs are allowed to carry all-zero data (ChapterDisplay
// is 0x80), so no reserved-value rejection happens here.
func ReadVIntID(r *core.Reader) (VINT, error) {
	raw, _, length, err := readVINT(r)
	if err != nil {
		return VINT{}, err
	}
	return VINT{Value: raw, Length: length}, nil
}

// ReadVIntLength reads a variable-length size, returning the numeric
// payload with the marker bit stripped. All-zero is a legitimate
// zero-length element and is returned as-is; all-one is RFC 8794's
// "unknown size" marker, which has no meaning for a single-pass walk
// over a fixed file and is rejected as VIntAllOne. Bounding the result
// to the document's max-size-length is the schema layer's job, not the
// codec's.
func ReadVIntLength(r *core.Reader) (VINT, error) {
	_, data, length, err := readVINT(r)
	if err != nil {
		return VINT{}, err
	}
	dataBits := uint(7 * length)
	allOnes := uint64(1)<<dataBits - 1
	if data == allOnes {
		return VINT{}, core.NewFormatError(core.ErrVIntAllOne, nil)
	}
	return VINT{Value: data, Length: length}, nil
}
