// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package bmff implements a from-scratch reader for the ISO Base Media
// File Format (ISO/IEC 14496-12 fifth edition), the container underlying
// MP4, M4A, HEIF and JPEG 2000, including the non-standard Apple iTunes
// metadata extension under moov.udta.meta.ilst.
package bmff

import "github.com/tmelisma/boxtree/core"

// FourCC is BMFF's four-byte type tag.
type FourCC [4]byte

func (f FourCC) String() string {
	return string(f[:])
}

// TypeID packs a FourCC into the uint64 core.Node.TypeID carries, so both
// BMFF and EBML nodes share one field width.
func (f FourCC) TypeID() uint64 {
	return uint64(f[0])<<24 | uint64(f[1])<<16 | uint64(f[2])<<8 | uint64(f[3])
}

func fourCCFromTypeID(id uint64) FourCC {
	return FourCC{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
}

func fcc(s string) FourCC {
	var f FourCC
	copy(f[:], s)
	return f
}

// Recognised box types.
var (
	FourCCFtyp = fcc("ftyp")
	fourCCMoov = fcc("moov")
	fourCCTrak = fcc("trak")
	fourCCEdts = fcc("edts")
	fourCCMdia = fcc("mdia")
	fourCCMinf = fcc("minf")
	fourCCUdta = fcc("udta")
	fourCCMoof = fcc("moof")
	fourCCTraf = fcc("traf")
	fourCCMeco = fcc("meco")
	fourCCMvhd = fcc("mvhd")
	fourCCTkhd = fcc("tkhd")
	fourCCMdhd = fcc("mdhd")
	fourCCElst = fcc("elst")
	fourCCHdlr = fcc("hdlr")
	fourCCMeta = fcc("meta")
	fourCCIlst = fcc("ilst")
	fourCCChpl = fcc("chpl")
	fourCCMdat = fcc("mdat")
	fourCCFree = fcc("free")
	fourCCUUID = fcc("uuid")
)

// NameResolver resolves a box-type name ("moov", "trak", ...) to the
// core.Node.TypeID a GetValueByName path hop should match against.
func NameResolver(name string) (uint64, bool) {
	if len(name) != 4 {
		return 0, false
	}
	return fcc(name).TypeID(), true
}

// FindByType is FourCC-typed sugar over core.FindByType.
func FindByType(root *core.Node, t FourCC) []*core.Node {
	return core.FindByType(root, t.TypeID())
}

// GetValueByName is FourCC-typed sugar over core.GetValueByName.
func GetValueByName(node *core.Node, path []string) (*core.Payload, bool) {
	return core.GetValueByName(node, path, NameResolver)
}

// FTYPData is the decoded payload of a "ftyp" box.
type FTYPData struct {
	MajorBrand       FourCC
	MinorVersion     uint32
	CompatibleBrands []FourCC
}

// fullBoxHeader is the decoded version/flags prefix every "Full Box"
// (mvhd, tkhd, mdhd, elst, hdlr, meta) starts with.
type fullBoxHeader struct {
	Version uint8
	Flags   uint32 // 24-bit flags, stored in the low 24 bits
}

// MVHDData is the decoded payload of an "mvhd" box.
type MVHDData struct {
	Version          uint8
	CreationTime     uint64
	ModificationTime uint64
	TimeScale        uint32
	Duration         uint64
	Rate             core.FixedPoint
	Volume           core.FixedPoint
	NextTrackID      uint32
}

// TKHDData is the decoded payload of a "tkhd" box.
type TKHDData struct {
	Version          uint8
	CreationTime     uint64
	ModificationTime uint64
	TrackID          uint32
	Duration         uint64
	Layer            int16
	AlternateGroup   int16
	Volume           core.FixedPoint
	Width            core.FixedPoint
	Height           core.FixedPoint
}

// MDHDData is the decoded payload of an "mdhd" box.
type MDHDData struct {
	Version          uint8
	CreationTime     uint64
	ModificationTime uint64
	TimeScale        uint32
	Duration         uint64
	Language         core.Language
}

// ELSTEntry is one edit-list entry inside an "elst" box.
type ELSTEntry struct {
	SegmentDuration uint64
	MediaTime       int64
	MediaRateFixed  core.FixedPoint // rate_integer.rate_fraction, Q16.16
}

// ELSTData is the decoded payload of an "elst" box.
type ELSTData struct {
	Version uint8
	Entries []ELSTEntry
}

// HDLRData is the decoded payload of an "hdlr" box.
type HDLRData struct {
	HandlerType FourCC
	Name        string
}

// CHPLEntry is one chapter entry inside a "chpl" box.
type CHPLEntry struct {
	Timestamp int64
	Title     string
}

// CHPLData is the decoded payload of a "chpl" box.
type CHPLData struct {
	Version uint8
	Entries []CHPLEntry
}
