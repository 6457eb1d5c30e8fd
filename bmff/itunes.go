// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package bmff

import "github.com/tmelisma/boxtree/core"

// iTunes metadata "data" atom type codes.
const (
	ITunesDataBinary uint32 = 0
	ITunesDataText   uint32 = 1
	ITunesDataJPEG   uint32 = 13
	ITunesDataPNG    uint32 = 14
)

var (
	fourCCData = fcc("data")
	fourCCMean = fcc("mean")
	fourCCName = fcc("name")
	fourCCTrkn = fcc("trkn")
	fourCCDisk = fcc("disk")
	fourCCCovr = fcc("covr")
	fourCCDash = fcc("----")
)

// ITunesData is the decoded (type, subtype, value) triple of a "data"
// atom, folded onto its parent tag.
type ITunesData struct {
	Type    uint32
	SubType uint32
	Value   []byte // raw bytes; Text tags also populate Payload.Str
}

// TrackNumber is the decoded value of a "trkn" or "disk" tag: (reserved,
// current, total, reserved).
type TrackNumber struct {
	Current uint16
	Total   uint16
}

// ExtendedTag is the decoded value of a "----" (freeform) tag: the
// mean/name/data triple, folded onto the "----" node in addition to its
// mean/name/data children remaining in the tree for navigation.
type ExtendedTag struct {
	Mean string
	Name string
	Data ITunesData
}

// parseILST walks ilst's children as four-character tags,
// terminating when the next header's offset passes ilst.End. Each tag
// either wraps a single "data" atom (folded onto the tag node) or, for
// "----", a mean/name/data triple (kept as real children and also folded
// onto the "----" node as an ExtendedTag).
func parseILST(ctx *parseCtx, ilst *core.Node) error {
	if err := ctx.r.SetPosition(ilst.PayloadOffset); err != nil {
		return err
	}
	for {
		pos, err := ctx.r.Position()
		if err != nil {
			return err
		}
		if pos > ilst.End {
			break
		}
		tagNode, tagType, err := readBoxHeader(ctx.r, pos)
		if err != nil {
			return err
		}
		if tagNode.End > ilst.End {
			break
		}
		tagNode.TypeID = tagType.TypeID()
		ilst.AppendChild(tagNode)

		if tagType == fourCCDash {
			if err := parseExtendedTag(ctx, tagNode); err != nil {
				return err
			}
		} else {
			if err := parseSimpleTag(ctx, tagNode, tagType); err != nil {
				return err
			}
		}
		if err := ctx.r.SetPosition(tagNode.End + 1); err != nil {
			return err
		}
	}
	return nil
}

// parseSimpleTag reads the single "data" child of a standard tag box and
// folds its (type, subtype, value) triple onto tagNode.
func parseSimpleTag(ctx *parseCtx, tagNode *core.Node, tagType FourCC) error {
	pos, err := ctx.r.Position()
	if err != nil {
		return err
	}
	if pos > tagNode.End {
		return nil // empty tag, no data atom present
	}
	dataNode, dataType, err := readBoxHeader(ctx.r, pos)
	if err != nil {
		return err
	}
	if dataNode.End > tagNode.End {
		return core.NewFormatError(core.ErrITunesDataInvalidSize, nil)
	}
	if dataType != fourCCData {
		// Not the expected shape; skip to end of tag without interning.
		return nil
	}
	data, err := decodeITunesData(ctx, dataNode)
	if err != nil {
		return err
	}
	tagNode.Payload = tagPayloadFor(tagType, data)
	return nil
}

// parseExtendedTag reads a "----" tag's mean, name and data children as
// real siblings under tagNode, folding the triple onto tagNode as an
// ExtendedTag.
func parseExtendedTag(ctx *parseCtx, tagNode *core.Node) error {
	var ext ExtendedTag
	for {
		pos, err := ctx.r.Position()
		if err != nil {
			return err
		}
		if pos > tagNode.End {
			break
		}
		child, childType, err := readBoxHeader(ctx.r, pos)
		if err != nil {
			return err
		}
		if child.End > tagNode.End {
			break
		}
		child.TypeID = childType.TypeID()
		tagNode.AppendChild(child)

		switch childType {
		case fourCCMean:
			b, err := ctx.r.ReadSlice(int(child.PayloadSize))
			if err != nil {
				return err
			}
			str := core.DecodeUTF8String(b)
			child.Payload = core.Payload{Kind: core.KindUTF8String, Str: str}
			ext.Mean = str
		case fourCCName:
			b, err := ctx.r.ReadSlice(int(child.PayloadSize))
			if err != nil {
				return err
			}
			str := core.DecodeUTF8String(b)
			child.Payload = core.Payload{Kind: core.KindUTF8String, Str: str}
			ext.Name = str
		case fourCCData:
			data, err := decodeITunesData(ctx, child)
			if err != nil {
				return err
			}
			ext.Data = data
			child.Payload = core.Payload{Kind: core.KindExtra, Extra: data}
		}
		if err := ctx.r.SetPosition(child.End + 1); err != nil {
			return err
		}
	}
	tagNode.Payload = core.Payload{Kind: core.KindExtra, Extra: ext}
	return nil
}

// decodeITunesData reads a "data" atom's (type, subtype, value) triple
// without appending it as a tree node — callers fold the result onto
// whichever node owns it.
func decodeITunesData(ctx *parseCtx, dataNode *core.Node) (ITunesData, error) {
	if dataNode.PayloadSize < 8 {
		return ITunesData{}, core.NewFormatError(core.ErrITunesDataInvalidSize, nil)
	}
	if err := ctx.r.SetPosition(dataNode.PayloadOffset); err != nil {
		return ITunesData{}, err
	}
	typ, err := ctx.r.ReadU32()
	if err != nil {
		return ITunesData{}, err
	}
	subtype, err := ctx.r.ReadU32()
	if err != nil {
		return ITunesData{}, err
	}
	valueLen := dataNode.PayloadSize - 8
	value, err := ctx.r.ReadSlice(int(valueLen))
	if err != nil {
		return ITunesData{}, err
	}
	return ITunesData{Type: typ, SubType: subtype, Value: value}, nil
}

// tagPayloadFor builds the Payload a simple tag folds its data atom into,
// specialising trkn/disk into a TrackNumber and covr into raw bytes, and
// Text data into an interned UTF-8 string.
func tagPayloadFor(tagType FourCC, data ITunesData) core.Payload {
	switch tagType {
	case fourCCTrkn, fourCCDisk:
		var tn TrackNumber
		if len(data.Value) >= 6 {
			tn.Current = uint16(data.Value[2])<<8 | uint16(data.Value[3])
			tn.Total = uint16(data.Value[4])<<8 | uint16(data.Value[5])
		}
		return core.Payload{Kind: core.KindExtra, Extra: tn}
	case fourCCCovr:
		return core.Payload{Kind: core.KindBinary, Bytes: data.Value}
	}
	switch data.Type {
	case ITunesDataText:
		return core.Payload{Kind: core.KindUTF8String, Str: core.DecodeUTF8String(data.Value)}
	case ITunesDataJPEG, ITunesDataPNG:
		return core.Payload{Kind: core.KindBinary, Bytes: data.Value}
	default:
		return core.Payload{Kind: core.KindBinary, Bytes: data.Value}
	}
}
