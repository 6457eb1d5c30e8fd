// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package bmff

import (
	"fmt"

	"github.com/tmelisma/boxtree/core"
)

// Verbose gates verbose parse tracing to stdout. Off by default.
var Verbose = false

func trace(format string, args ...any) {
	if Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// Options configures Parse.
type Options struct {
	// ParseMetadata triggers the iTunes ilst sub-parser under
	// moov.udta.meta.ilst; when false, ilst is skipped like an unknown box.
	ParseMetadata bool
}

// Summary collects the file-level nodes worth keeping a direct handle on
// after a walk: the ftyp, moov, mvhd, mdat and itunes_metadata nodes, and
// mvhd's time scale.
type Summary struct {
	FTYP           *core.Node
	Moov           *core.Node
	Mvhd           *core.Node
	Mdat           *core.Node
	ItunesMetadata *core.Node
	TimeScale      uint32
}

// File pairs a core.File with the BMFF-specific Summary captured while
// parsing it.
type File struct {
	*core.File
	Summary Summary
}

// Open opens path as a BMFF file, ready for Parse.
func Open(path string) (*File, error) {
	f, err := core.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{File: f}, nil
}

type boxHandler func(ctx *parseCtx, node *core.Node) (childrenStart int64, isContainer bool, err error)

func handlers() map[FourCC]boxHandler {
	return map[FourCC]boxHandler{
		FourCCFtyp: handleFtyp,
		fourCCMoov: handleMoov,
		fourCCTrak: containerHandler(nil),
		fourCCEdts: containerHandler(nil),
		fourCCMdia: containerHandler(nil),
		fourCCMinf: containerHandler(nil),
		fourCCUdta: containerHandler(requireUdtaParent),
		fourCCMoof: containerHandler(nil),
		fourCCTraf: containerHandler(nil),
		fourCCMeco: containerHandler(nil),
		fourCCMvhd: handleMvhd,
		fourCCTkhd: handleTkhd,
		fourCCMdhd: handleMdhd,
		fourCCElst: handleElst,
		fourCCHdlr: handleHdlr,
		fourCCMeta: handleMeta,
		fourCCIlst: handleIlst,
		fourCCChpl: handleChpl,
		fourCCMdat: handleMdat,
		fourCCFree: handleSkip,
	}
}

// parseCtx threads the reader, options, and running summary through every
// box handler.
type parseCtx struct {
	r    *core.Reader
	root *core.Node
	opts Options
	sum  *Summary
}

// Parse walks f start to end, discovering parent/child links by byte
// range and dispatching on box type. It returns the file-level Summary
// accumulated as a side effect of dispatch.
func Parse(f *File, opts Options) (Summary, error) {
	var sum Summary
	var retErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(error); ok {
					retErr = e
				} else {
					retErr = core.NewFormatErrorf(core.ErrReadError, "panic during BMFF parse: %v", r)
				}
			}
		}()
		retErr = parse(f, opts, &sum)
	}()
	return sum, retErr
}

func parse(f *File, opts Options, sum *Summary) error {
	ctx := &parseCtx{r: f.Reader, root: f.Root, opts: opts, sum: sum}
	table := handlers()

	if err := ctx.r.SetPosition(0); err != nil {
		return err
	}

	firstType, ok, err := peekFirstBoxType(ctx.r, f.Root.End)
	if err != nil {
		return err
	}
	last := f.Root
	if ok && firstType != FourCCFtyp {
		synth := synthesizeFtyp()
		f.Root.AppendChild(synth)
		sum.FTYP = synth
		last = synth
	}

	for {
		pos, err := ctx.r.Position()
		if err != nil {
			return err
		}
		if pos > f.Root.End {
			break
		}
		if pos == f.Root.End {
			// Exactly one byte left can't hold a valid header; treat as
			// end of stream the same as running off it.
			break
		}

		node, fcc, err := readBoxHeader(ctx.r, pos)
		if err != nil {
			return err
		}
		if node.End > f.Root.End {
			return core.NewFormatError(core.ErrFileEndedEarly, nil)
		}

		parent := core.FindAncestorContaining(last, node.Offset)
		parent.AppendChild(node)
		node.TypeID = fcc.TypeID()

		trace("bmff: offset=%d size=%d type=%s parent_offset=%d", node.Offset, node.Size, fcc, parent.Offset)

		handler, known := table[fcc]
		if !known {
			handler = handleUnknown
		}
		childrenStart, isContainer, err := handler(ctx, node)
		if err != nil {
			return err
		}
		if isContainer {
			if err := ctx.r.SetPosition(childrenStart); err != nil {
				return err
			}
		} else {
			if err := ctx.r.SetPosition(node.End + 1); err != nil {
				return err
			}
		}
		last = node
	}
	return nil
}

// peekFirstBoxType reads the type of the very first box without consuming
// any bytes, to decide whether a default ftyp needs synthesizing. ok is
// false if the file is too short to contain even a minimal header (an
// empty-body edge case, not an error — the main loop will simply find
// nothing to iterate).
func peekFirstBoxType(r *core.Reader, rootEnd int64) (FourCC, bool, error) {
	if rootEnd < 7 {
		return FourCC{}, false, nil
	}
	pos, err := r.Position()
	if err != nil {
		return FourCC{}, false, err
	}
	defer r.SetPosition(pos)

	if err := r.Skip(4); err != nil {
		return FourCC{}, false, err
	}
	tb, err := r.ReadSlice(4)
	if err != nil || len(tb) != 4 {
		return FourCC{}, false, nil
	}
	var f FourCC
	copy(f[:], tb)
	return f, true, nil
}

// synthesizeFtyp builds the default ftyp node used when the stream's
// first box isn't one: major brand "mp41", minor version 0, compatible
// brands {"mp41"}, Size 0 as the synthetic marker. End is set to -1
// (consistent with Offset 0, Size 0) rather than left at Go's zero
// value of 0 — otherwise FindAncestorContaining would see the real
// first box's Offset 0 as "contained" by the synthetic node (0 < 0 is
// false, so the walk-up never happens) and nest it as ftyp's child
// instead of the root's.
func synthesizeFtyp() *core.Node {
	mp41 := fcc("mp41")
	n := &core.Node{
		End:       -1,
		TypeID:    FourCCFtyp.TypeID(),
		Synthetic: true,
		Payload: core.Payload{
			Kind: core.KindExtra,
			Extra: FTYPData{
				MajorBrand:       mp41,
				MinorVersion:     0,
				CompatibleBrands: []FourCC{mp41},
			},
		},
	}
	return n
}

// readBoxHeader decodes the box header wire format: size:u32be,
// type:FourCC, optional u64be extended size when size==1, optional
// 16-byte extended type when type=="uuid". Returns a Node with
// Offset/Size/End/PayloadOffset/PayloadSize populated (TypeID is set by
// the caller once parent discovery has run).
func readBoxHeader(r *core.Reader, startPos int64) (*core.Node, FourCC, error) {
	size, err := r.ReadU32()
	if err != nil {
		return nil, FourCC{}, err
	}
	typeBytes, err := r.ReadSlice(4)
	if err != nil || len(typeBytes) != 4 {
		return nil, FourCC{}, core.NewFormatError(core.ErrFileEndedEarly, err)
	}
	var fourcc FourCC
	copy(fourcc[:], typeBytes)

	totalSize := uint64(size)
	if size == 1 {
		ext, err := r.ReadU64()
		if err != nil {
			return nil, FourCC{}, err
		}
		totalSize = ext
	}

	var uuidPtr *core.UUID
	if fourcc == fourCCUUID {
		ub, err := r.ReadSlice(16)
		if err != nil || len(ub) != 16 {
			return nil, FourCC{}, core.NewFormatError(core.ErrFileEndedEarly, err)
		}
		var u core.UUID
		copy(u[:], ub)
		uuidPtr = &u
	}

	payloadOffset, err := r.Position()
	if err != nil {
		return nil, FourCC{}, err
	}

	var end int64
	if size == 0 {
		size64, err := r.Size()
		if err != nil {
			return nil, FourCC{}, err
		}
		end = size64 - 1
	} else {
		end = startPos + int64(totalSize) - 1
		// A declared size smaller than the header bytes already consumed
		// (e.g. size==1 with an extended size of 0) would put end before
		// payloadOffset, and before startPos itself — the caller's
		// "advance past node.End" step would then seek backward into the
		// header it just read, re-reading the same box forever.
		if end < payloadOffset-1 {
			return nil, FourCC{}, core.NewFormatError(core.ErrBoxInvalidSize, nil)
		}
	}

	node := &core.Node{
		Offset:        startPos,
		Size:          end - startPos + 1,
		End:           end,
		PayloadOffset: payloadOffset,
		PayloadSize:   end - payloadOffset + 1,
		UUIDPtr:       uuidPtr,
	}
	return node, fourcc, nil
}

func handleUnknown(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	return node.End + 1, false, nil
}

func handleSkip(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	return node.End + 1, false, nil
}

func handleMdat(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if ctx.sum.Mdat == nil {
		ctx.sum.Mdat = node
	}
	return node.End + 1, false, nil
}

func handleMoov(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if ctx.sum.Moov == nil {
		ctx.sum.Moov = node
	}
	return node.PayloadOffset, true, nil
}

func containerHandler(guard func(ctx *parseCtx, node *core.Node) error) boxHandler {
	return func(ctx *parseCtx, node *core.Node) (int64, bool, error) {
		if guard != nil {
			if err := guard(ctx, node); err != nil {
				return 0, false, err
			}
		}
		return node.PayloadOffset, true, nil
	}
}

func requireUdtaParent(ctx *parseCtx, node *core.Node) error {
	switch fourCCFromTypeID(node.Parent.TypeID) {
	case fourCCMoov, fourCCMoof, fourCCTrak, fourCCTraf:
		return nil
	default:
		return core.NewFormatError(core.ErrWrongFileFormat, nil)
	}
}

func handleFtyp(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if ctx.sum.FTYP != nil {
		return 0, false, core.NewFormatError(core.ErrFTYPDuplicated, nil)
	}
	if node.PayloadSize < 8 || node.PayloadSize%4 != 0 {
		return 0, false, core.NewFormatError(core.ErrFTYPInvalidSize, nil)
	}
	if err := ctx.r.SetPosition(node.PayloadOffset); err != nil {
		return 0, false, err
	}
	majorBytes, err := ctx.r.ReadSlice(4)
	if err != nil {
		return 0, false, err
	}
	var major FourCC
	copy(major[:], majorBytes)
	minor, err := ctx.r.ReadU32()
	if err != nil {
		return 0, false, err
	}
	n := int((node.PayloadSize - 8) / 4)
	brands := make([]FourCC, 0, n)
	for i := 0; i < n; i++ {
		b, err := ctx.r.ReadSlice(4)
		if err != nil {
			return 0, false, err
		}
		var f FourCC
		copy(f[:], b)
		brands = append(brands, f)
	}
	node.Payload = core.Payload{Kind: core.KindExtra, Extra: FTYPData{
		MajorBrand:       major,
		MinorVersion:     minor,
		CompatibleBrands: brands,
	}}
	ctx.sum.FTYP = node
	return node.End + 1, false, nil
}

func readFullBoxHeader(r *core.Reader) (fullBoxHeader, error) {
	version, err := r.ReadU8()
	if err != nil {
		return fullBoxHeader{}, err
	}
	flagsHi, err := r.ReadU8()
	if err != nil {
		return fullBoxHeader{}, err
	}
	flagsMid, err := r.ReadU8()
	if err != nil {
		return fullBoxHeader{}, err
	}
	flagsLo, err := r.ReadU8()
	if err != nil {
		return fullBoxHeader{}, err
	}
	flags := uint32(flagsHi)<<16 | uint32(flagsMid)<<8 | uint32(flagsLo)
	return fullBoxHeader{Version: version, Flags: flags}, nil
}

func handleMvhd(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if err := ctx.r.SetPosition(node.PayloadOffset); err != nil {
		return 0, false, err
	}
	hdr, err := readFullBoxHeader(ctx.r)
	if err != nil {
		return 0, false, err
	}
	data := MVHDData{Version: hdr.Version}
	switch hdr.Version {
	case 0:
		if node.PayloadSize != 100 {
			return 0, false, core.NewFormatError(core.ErrMVHDInvalidSize, nil)
		}
		ct, _ := ctx.r.ReadU32()
		mt, _ := ctx.r.ReadU32()
		data.CreationTime, data.ModificationTime = uint64(ct), uint64(mt)
		ts, err := ctx.r.ReadU32()
		if err != nil {
			return 0, false, err
		}
		data.TimeScale = ts
		dur, _ := ctx.r.ReadU32()
		data.Duration = uint64(dur)
	case 1:
		if node.PayloadSize != 112 {
			return 0, false, core.NewFormatError(core.ErrMVHDInvalidSize, nil)
		}
		ct, _ := ctx.r.ReadU64()
		mt, _ := ctx.r.ReadU64()
		data.CreationTime, data.ModificationTime = ct, mt
		ts, err := ctx.r.ReadU32()
		if err != nil {
			return 0, false, err
		}
		data.TimeScale = ts
		dur, _ := ctx.r.ReadU64()
		data.Duration = dur
	default:
		return 0, false, core.NewFormatError(core.ErrMVHDUnknownVersion, nil)
	}
	rateBytes, _ := ctx.r.ReadSlice(4)
	data.Rate, _ = core.DecodeFixedPoint16_16(rateBytes)
	volBytes, _ := ctx.r.ReadSlice(2)
	data.Volume, _ = core.DecodeFixedPoint8_8(volBytes)
	if err := ctx.r.Skip(2 + 8); err != nil { // reserved
		return 0, false, err
	}
	if err := ctx.r.Skip(36); err != nil { // matrix
		return 0, false, err
	}
	if err := ctx.r.Skip(24); err != nil { // pre_defined
		return 0, false, err
	}
	nextTrackID, err := ctx.r.ReadU32()
	if err != nil {
		return 0, false, err
	}
	data.NextTrackID = nextTrackID

	node.Payload = core.Payload{Kind: core.KindExtra, Extra: data}
	ctx.sum.Mvhd = node
	ctx.sum.TimeScale = data.TimeScale
	return node.End + 1, false, nil
}

func handleTkhd(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if err := ctx.r.SetPosition(node.PayloadOffset); err != nil {
		return 0, false, err
	}
	hdr, err := readFullBoxHeader(ctx.r)
	if err != nil {
		return 0, false, err
	}
	data := TKHDData{Version: hdr.Version}
	var trackID uint32
	switch hdr.Version {
	case 0:
		if node.PayloadSize != 84 {
			return 0, false, core.NewFormatError(core.ErrTKHDInvalidSize, nil)
		}
		ct, _ := ctx.r.ReadU32()
		mt, _ := ctx.r.ReadU32()
		data.CreationTime, data.ModificationTime = uint64(ct), uint64(mt)
		trackID, err = ctx.r.ReadU32()
		if err != nil {
			return 0, false, err
		}
		if err := ctx.r.Skip(4); err != nil { // reserved
			return 0, false, err
		}
		dur, _ := ctx.r.ReadU32()
		data.Duration = uint64(dur)
	case 1:
		if node.PayloadSize != 96 {
			return 0, false, core.NewFormatError(core.ErrTKHDInvalidSize, nil)
		}
		ct, _ := ctx.r.ReadU64()
		mt, _ := ctx.r.ReadU64()
		data.CreationTime, data.ModificationTime = ct, mt
		trackID, err = ctx.r.ReadU32()
		if err != nil {
			return 0, false, err
		}
		if err := ctx.r.Skip(4); err != nil { // reserved
			return 0, false, err
		}
		dur, _ := ctx.r.ReadU64()
		data.Duration = dur
	default:
		return 0, false, core.NewFormatError(core.ErrTKHDUnknownVersion, nil)
	}
	data.TrackID = trackID
	if err := ctx.r.Skip(8); err != nil { // reserved[2]
		return 0, false, err
	}
	layer, err := ctx.r.ReadU16()
	if err != nil {
		return 0, false, err
	}
	data.Layer = int16(layer)
	altGroup, err := ctx.r.ReadU16()
	if err != nil {
		return 0, false, err
	}
	data.AlternateGroup = int16(altGroup)
	volBytes, _ := ctx.r.ReadSlice(2)
	data.Volume, _ = core.DecodeFixedPoint8_8(volBytes)
	if err := ctx.r.Skip(2); err != nil { // reserved
		return 0, false, err
	}
	if err := ctx.r.Skip(36); err != nil { // matrix
		return 0, false, err
	}
	widthBytes, _ := ctx.r.ReadSlice(4)
	data.Width, _ = core.DecodeFixedPoint16_16(widthBytes)
	heightBytes, _ := ctx.r.ReadSlice(4)
	data.Height, _ = core.DecodeFixedPoint16_16(heightBytes)

	node.Payload = core.Payload{Kind: core.KindExtra, Extra: data}
	return node.End + 1, false, nil
}

func handleMdhd(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if err := ctx.r.SetPosition(node.PayloadOffset); err != nil {
		return 0, false, err
	}
	hdr, err := readFullBoxHeader(ctx.r)
	if err != nil {
		return 0, false, err
	}
	data := MDHDData{Version: hdr.Version}
	switch hdr.Version {
	case 0:
		if node.PayloadSize != 24 {
			return 0, false, core.NewFormatError(core.ErrMDHDInvalidSize, nil)
		}
		ct, _ := ctx.r.ReadU32()
		mt, _ := ctx.r.ReadU32()
		data.CreationTime, data.ModificationTime = uint64(ct), uint64(mt)
		ts, err := ctx.r.ReadU32()
		if err != nil {
			return 0, false, err
		}
		data.TimeScale = ts
		dur, _ := ctx.r.ReadU32()
		data.Duration = uint64(dur)
	case 1:
		if node.PayloadSize != 36 {
			return 0, false, core.NewFormatError(core.ErrMDHDInvalidSize, nil)
		}
		ct, _ := ctx.r.ReadU64()
		mt, _ := ctx.r.ReadU64()
		data.CreationTime, data.ModificationTime = ct, mt
		ts, err := ctx.r.ReadU32()
		if err != nil {
			return 0, false, err
		}
		data.TimeScale = ts
		dur, _ := ctx.r.ReadU64()
		data.Duration = dur
	default:
		return 0, false, core.NewFormatError(core.ErrMDHDUnknownVersion, nil)
	}
	langCode, err := ctx.r.ReadU16()
	if err != nil {
		return 0, false, err
	}
	data.Language = core.DecodePackedLanguage(langCode)
	if err := ctx.r.Skip(2); err != nil { // pre_defined
		return 0, false, err
	}
	node.Payload = core.Payload{Kind: core.KindExtra, Extra: data}
	return node.End + 1, false, nil
}

func handleElst(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if err := ctx.r.SetPosition(node.PayloadOffset); err != nil {
		return 0, false, err
	}
	hdr, err := readFullBoxHeader(ctx.r)
	if err != nil {
		return 0, false, err
	}
	count, err := ctx.r.ReadU32()
	if err != nil {
		return 0, false, err
	}
	var entrySize int64
	if hdr.Version == 1 {
		entrySize = 20
	} else {
		entrySize = 12
	}
	if node.PayloadSize != 8+entrySize*int64(count) {
		return 0, false, core.NewFormatError(core.ErrELSTInvalidSize, nil)
	}
	entries := make([]ELSTEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var e ELSTEntry
		if hdr.Version == 1 {
			dur, _ := ctx.r.ReadU64()
			mt, _ := ctx.r.ReadI64()
			e.SegmentDuration, e.MediaTime = dur, mt
		} else {
			dur, _ := ctx.r.ReadU32()
			mt, _ := ctx.r.ReadI32()
			e.SegmentDuration, e.MediaTime = uint64(dur), int64(mt)
		}
		rateBytes, err := ctx.r.ReadSlice(4)
		if err != nil {
			return 0, false, err
		}
		e.MediaRateFixed, _ = core.DecodeFixedPoint16_16(rateBytes)
		entries = append(entries, e)
	}
	node.Payload = core.Payload{Kind: core.KindExtra, Extra: ELSTData{Version: hdr.Version, Entries: entries}}
	return node.End + 1, false, nil
}

func handleHdlr(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	p := node.Parent
	pt := fourCCFromTypeID(p.TypeID)
	if pt != fourCCMdia && pt != fourCCMeta {
		return 0, false, core.NewFormatError(core.ErrHDLRUnexpectedParent, nil)
	}
	if node.PayloadSize < 24 {
		return 0, false, core.NewFormatError(core.ErrHDLRInvalidSize, nil)
	}
	if err := ctx.r.SetPosition(node.PayloadOffset); err != nil {
		return 0, false, err
	}
	if _, err := readFullBoxHeader(ctx.r); err != nil {
		return 0, false, err
	}
	if err := ctx.r.Skip(4); err != nil { // pre_defined
		return 0, false, err
	}
	htBytes, err := ctx.r.ReadSlice(4)
	if err != nil {
		return 0, false, err
	}
	var ht FourCC
	copy(ht[:], htBytes)
	if err := ctx.r.Skip(12); err != nil { // reserved
		return 0, false, err
	}
	nameLen := node.PayloadSize - 24
	nameBytes, err := ctx.r.ReadSlice(int(nameLen))
	if err != nil {
		return 0, false, err
	}
	name, err := core.DecodePrintableString(nameBytes)
	if err != nil {
		return 0, false, err
	}
	node.Payload = core.Payload{Kind: core.KindExtra, Extra: HDLRData{HandlerType: ht, Name: name}}
	return node.End + 1, false, nil
}

func handleMeta(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if node.PayloadSize < 4 {
		return 0, false, core.NewFormatError(core.ErrMetaInvalidSize, nil)
	}
	if err := ctx.r.SetPosition(node.PayloadOffset); err != nil {
		return 0, false, err
	}
	if _, err := readFullBoxHeader(ctx.r); err != nil {
		return 0, false, err
	}
	childrenStart := node.PayloadOffset + 4
	return childrenStart, true, nil
}

func handleIlst(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if !ctx.opts.ParseMetadata {
		return node.End + 1, false, nil
	}
	if err := parseILST(ctx, node); err != nil {
		return 0, false, err
	}
	ctx.sum.ItunesMetadata = node
	return node.End + 1, false, nil
}

func handleChpl(ctx *parseCtx, node *core.Node) (int64, bool, error) {
	if err := ctx.r.SetPosition(node.PayloadOffset); err != nil {
		return 0, false, err
	}
	version, err := ctx.r.ReadU8()
	if err != nil {
		return 0, false, err
	}
	var count uint32
	if version == 1 {
		if err := ctx.r.Skip(1); err != nil { // reserved
			return 0, false, err
		}
		count, err = ctx.r.ReadU32()
		if err != nil {
			return 0, false, err
		}
	} else {
		c, err := ctx.r.ReadU8()
		if err != nil {
			return 0, false, err
		}
		count = uint32(c)
	}
	// count is an untrusted 8/32-bit field read straight from the box;
	// bound the preallocation by what the box's own remaining payload
	// could possibly hold (each entry needs at least 9 bytes: an 8-byte
	// timestamp and a 1-byte title length) rather than trusting it
	// directly, so a crafted huge count on a tiny box can't force a
	// multi-gigabyte allocation before a single byte is even read.
	pos, err := ctx.r.Position()
	if err != nil {
		return 0, false, err
	}
	const minCHPLEntrySize = 9
	maxEntries := (node.End - pos + 1) / minCHPLEntrySize
	capHint := int64(count)
	if capHint > maxEntries {
		capHint = maxEntries
	}
	if capHint < 0 {
		capHint = 0
	}
	entries := make([]CHPLEntry, 0, capHint)
	for i := uint32(0); i < count; i++ {
		ts, err := ctx.r.ReadI64()
		if err != nil {
			return 0, false, err
		}
		titleLen, err := ctx.r.ReadU8()
		if err != nil {
			return 0, false, err
		}
		titleBytes, err := ctx.r.ReadSlice(int(titleLen))
		if err != nil {
			return 0, false, err
		}
		entries = append(entries, CHPLEntry{Timestamp: ts, Title: core.DecodeUTF8String(titleBytes)})
	}
	pos, err = ctx.r.Position()
	if err != nil {
		return 0, false, err
	}
	if pos != node.End+1 {
		return 0, false, core.NewFormatError(core.ErrCHPLInvalidSize, nil)
	}
	node.Payload = core.Payload{Kind: core.KindExtra, Extra: CHPLData{Version: version, Entries: entries}}
	return node.End + 1, false, nil
}
