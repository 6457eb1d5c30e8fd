// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package core

import (
	"time"

	"golang.org/x/text/language"
)

// PayloadKind discriminates the tagged union a Node's Payload carries. This is
// modelled as a closed sum with a discriminant field rather than an
// interface hierarchy of leaf types; the Extra field is the one place
// polymorphism is allowed in, for the box/element-specific structured
// payloads (ftyp, elst, chpl, iTunes tags, EBML DocTypeExtension lists) that
// don't fit a single scalar slot.
type PayloadKind uint8

const (
	// KindNone is the zero value: no payload interned (containers, skipped
	// or unknown leaves).
	KindNone PayloadKind = iota
	KindUnsigned
	KindSigned
	KindFloat
	KindPrintableString
	KindUTF8String
	KindBinary
	KindUUID
	KindTime
	KindFixedPoint
	KindLanguage
	KindEnum
	// KindExtra holds a box/element-specific struct in Extra; see the
	// concrete types in bmff and ebml for what they can be.
	KindExtra
)

// UUID is an unpacked RFC 4122 UUID, used for BMFF's extended "uuid" box
// type and Matroska's 16-byte UID elements (SegmentUID, PrevUID, NextUID,
// SegmentFamily).
type UUID [16]byte

// FixedPoint is an unsigned Q-fractional fixed-point value:
// Fixed_8_8 (8 integer bits, 8 fractional bits, backed by a u16) or
// Fixed_16_16 / Fixed_2_30 (backed by a u32).
type FixedPoint struct {
	Raw      uint32
	FracBits uint8
}

// Float returns the fixed-point value as a float64.
func (f FixedPoint) Float() float64 {
	return float64(f.Raw) / float64(uint32(1)<<f.FracBits)
}

// Language is an ISO-639-2 three-letter language code, decoded either from
// BMFF's packed 15-bit triplet or a Matroska Language/LanguageBCP47
// string. Tag is populated when golang.org/x/text/language accepts Code as
// a valid BCP-47 tag; Tag.IsRoot() when it does not (malformed or
// non-BCP-47 codes are retained in Code regardless, never rejected).
type Language struct {
	Code string
	Tag  language.Tag
}

// Payload is the tagged-union value a Node carries. Kind selects which
// field is meaningful; all others are zero. A Node with Kind == KindNone
// has no interned payload — either it is a container (Master types never
// populate Payload) or its bytes were deliberately skipped.
type Payload struct {
	Kind PayloadKind

	Unsigned uint64
	Signed   int64
	Float    float64
	Str      string // PrintableString or UTF8String
	Bytes    []byte
	UUID     UUID
	Time     time.Time
	Fixed    FixedPoint
	Language Language
	Enum     uint32

	// Extra carries a box/element-specific struct for payloads that don't
	// reduce to one of the scalar slots above (FTYPData, ELSTData, etc.).
	Extra any
}
