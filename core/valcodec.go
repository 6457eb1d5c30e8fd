// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package core

import (
	"math"
	"time"

	"golang.org/x/text/language"
)

// DecodeUnsigned interprets b (0..8 bytes) as a big-endian unsigned
// integer; an empty slice decodes to 0.
func DecodeUnsigned(b []byte) (uint64, error) {
	if len(b) > 8 {
		return 0, NewFormatErrorf(ErrUnsignedInvalidLength, "unsigned int length %d exceeds 8", len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// DecodeSigned interprets b (0..8 bytes) as a big-endian two's-complement
// signed integer, sign-extending from the top bit of the first byte; an
// empty slice decodes to 0.
func DecodeSigned(b []byte) (int64, error) {
	if len(b) > 8 {
		return 0, NewFormatErrorf(ErrSignedInvalidLength, "signed int length %d exceeds 8", len(b))
	}
	if len(b) == 0 {
		return 0, nil
	}
	var v int64
	if b[0]&0x80 != 0 {
		v = -1 // all-ones sign extension
	}
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v, nil
}

// DecodeFloat interprets b as a big-endian IEEE-754 single (4 bytes),
// double (8 bytes), or 0.0 for an empty slice. Any other length is
// rejected.
func DecodeFloat(b []byte) (float64, error) {
	switch len(b) {
	case 0:
		return 0, nil
	case 4:
		bits := beUint32(b)
		return float64(math.Float32frombits(bits)), nil
	case 8:
		bits := beUint64(b)
		return math.Float64frombits(bits), nil
	default:
		return 0, NewFormatErrorf(ErrFloatInvalidLength, "float length %d not in {0,4,8}", len(b))
	}
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// truncateAtNUL returns the prefix of b up to (not including) the first
// 0x00 byte, or all of b if there is none.
func truncateAtNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// DecodePrintableString reads bytes, truncates at the first NUL, and
// requires every remaining byte to be in {0x20..0x7E, NUL}.
func DecodePrintableString(b []byte) (string, error) {
	s := truncateAtNUL(b)
	for _, c := range s {
		if c < 0x20 || c > 0x7E {
			return "", NewFormatErrorf(ErrUnprintableString, "byte 0x%02x outside printable ASCII range", c)
		}
	}
	return string(s), nil
}

// DecodeUTF8String reads bytes and truncates at the first NUL, without
// validating the remaining codepoints.
func DecodeUTF8String(b []byte) string {
	return string(truncateAtNUL(b))
}

// DecodeUUID unpacks exactly 16 bytes into a UUID. Any other length is
// reported as SegmentUIDInvalidLength; a caller that needs a different
// kind re-wraps it (matroska.DecodeUID surfaces
// Matroska_SegmentUID_Invalid_Length instead).
func DecodeUUID(b []byte) (UUID, error) {
	var u UUID
	if len(b) != 16 {
		return u, NewFormatErrorf(ErrSegmentUIDInvalidLength, "UUID length %d != 16", len(b))
	}
	copy(u[:], b)
	return u, nil
}

// matroskaEpochBiasNanos is the offset, in nanoseconds, from the Matroska
// DateUTC epoch (2001-01-01T00:00:00 UTC) to the Unix epoch.
const matroskaEpochBiasNanos = 978307200 * int64(time.Second)

// DecodeMatroskaTime interprets b as signed nanoseconds since
// 2001-01-01T00:00:00 UTC and rebases it to the Unix epoch.
func DecodeMatroskaTime(b []byte) (time.Time, error) {
	ns, err := DecodeSigned(b)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, ns+matroskaEpochBiasNanos).UTC(), nil
}

// bmffEpochOffsetSeconds rebases BMFF's 1904-01-01 UTC epoch to the Unix
// epoch. Computed from the leap-year arithmetic rather than hardcoding
// the well-known -2082844800 constant, so the derivation is traceable:
// 66 years back from 1970, with 1904/1908/.../1968 as the 17 leap years,
// less one day for the boundary.
var bmffEpochOffsetSeconds = int64(-66*365+(-66/4)-(-66/100)+(-66/400)-1) * 86400

// DecodeBMFFDate interprets b (4 or 8 bytes) as seconds since 1904-01-01
// UTC and rebases it to the Unix epoch.
func DecodeBMFFDate(b []byte) (time.Time, error) {
	var secs uint64
	switch len(b) {
	case 4:
		secs = uint64(beUint32(b))
	case 8:
		secs = beUint64(b)
	default:
		return time.Time{}, NewFormatErrorf(ErrReadError, "BMFF date length %d not in {4,8}", len(b))
	}
	return time.Unix(int64(secs)+bmffEpochOffsetSeconds, 0).UTC(), nil
}

// DecodeFixedPoint8_8 decodes a 2-byte unsigned Q8.8 fixed-point value.
func DecodeFixedPoint8_8(b []byte) (FixedPoint, error) {
	if len(b) != 2 {
		return FixedPoint{}, NewFormatErrorf(ErrReadError, "Fixed_8_8 length %d != 2", len(b))
	}
	return FixedPoint{Raw: uint32(b[0])<<8 | uint32(b[1]), FracBits: 8}, nil
}

// DecodeFixedPoint16_16 decodes a 4-byte unsigned Q16.16 fixed-point value
// (used for BMFF's Fixed_16_16, e.g. mvhd's rate).
func DecodeFixedPoint16_16(b []byte) (FixedPoint, error) {
	if len(b) != 4 {
		return FixedPoint{}, NewFormatErrorf(ErrReadError, "Fixed_16_16 length %d != 4", len(b))
	}
	return FixedPoint{Raw: beUint32(b), FracBits: 16}, nil
}

// DecodeFixedPoint2_30 decodes a 4-byte unsigned Q2.30 fixed-point value
// (used for BMFF matrix entries).
func DecodeFixedPoint2_30(b []byte) (FixedPoint, error) {
	if len(b) != 4 {
		return FixedPoint{}, NewFormatErrorf(ErrReadError, "Fixed_2_30 length %d != 4", len(b))
	}
	return FixedPoint{Raw: beUint32(b), FracBits: 30}, nil
}

// DecodePackedLanguage unpacks BMFF's 15-bit packed ISO-639-2 language
// code: three 5-bit letters biased by 0x60 each, and resolves it
// through golang.org/x/text/language for a validated BCP-47 Tag.
func DecodePackedLanguage(code uint16) Language {
	letter := func(k uint) byte {
		return byte(0x60 + ((code >> (5 * (2 - k))) & 31))
	}
	s := string([]byte{letter(0), letter(1), letter(2)})
	return newLanguage(s)
}

// DecodeLanguageString wraps a plain ISO-639-2/BCP-47 string (Matroska's
// Language or LanguageBCP47 elements) into a Language, resolving it
// through golang.org/x/text/language the same way DecodePackedLanguage
// does.
func DecodeLanguageString(s string) Language {
	return newLanguage(s)
}

func newLanguage(s string) Language {
	tag, err := language.Parse(s)
	if err != nil {
		// Malformed or non-BCP-47 codes (legacy 3-letter codes
		// language.Parse rejects) are retained verbatim in Code; Tag stays
		// the zero value (language.Und).
		return Language{Code: s}
	}
	return Language{Code: s, Tag: tag}
}
