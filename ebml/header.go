// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ebml

import "github.com/tmelisma/boxtree/core"

// Well-known top-level and header-child EBML IDs. These are the generic
// IDs defined by the EBML specification itself (RFC 8794), not part of
// any doctype's schema, so they live here rather than in matroska.
const (
	idEBML                 uint64 = 0x1A45DFA3
	idEBMLVersion          uint64 = 0x4286
	idEBMLReadVersion      uint64 = 0x42F7
	idEBMLMaxIDLength      uint64 = 0x42F2
	idEBMLMaxSizeLength    uint64 = 0x42F3
	idDocType              uint64 = 0x4282
	idDocTypeVersion       uint64 = 0x4287
	idDocTypeReadVersion   uint64 = 0x4285
	idDocTypeExtension     uint64 = 0x4281
	idDocTypeExtensionName uint64 = 0x4283
	idDocTypeExtensionVer  uint64 = 0x4284
)

// DocTypeExtension is one DocTypeExtension entry: a doctype's declared
// use of a named, versioned schema extension.
type DocTypeExtension struct {
	Name    string
	Version uint64
}

// parseHeader reads the fixed EBML master element starting at pos,
// populating a new Document's header-derived fields. The header's own
// children (EBMLVersion, DocType, an optional Void or CRC-32, a nested
// DocTypeExtension, and so on) are walked with the same flat
// parent-discovery engine the body uses — DocTypeExtensionName/Version
// are found nested under DocTypeExtension the same way mvhd or tkhd end
// up nested under moov.trak in the BMFF tree, with no separate recursive
// call needed.
func parseHeader(r *core.Reader, parentTree *core.Node, pos int64) (*core.Document, error) {
	node, rawID, err := readElementHeader(r, pos)
	if err != nil {
		return nil, err
	}
	if rawID != idEBML {
		return nil, core.NewFormatError(core.ErrEBMLHeaderMissingOrCorrupt, nil)
	}
	if node.End > parentTree.End {
		return nil, core.NewFormatError(core.ErrFileEndedEarly, nil)
	}
	parent := core.FindAncestorContaining(parentTree, node.Offset)
	parent.AppendChild(node)
	node.TypeID = rawID

	doc := &core.Document{
		Header:             node,
		Version:            1,
		ReadVersion:        1,
		MaxIDLength:        4,
		MaxSizeLength:      8,
		DocTypeVersion:     1,
		DocTypeReadVersion: 1,
	}

	handle := func(r *core.Reader, child *core.Node, id uint64) (int64, bool, error) {
		switch id {
		case idEBMLVersion:
			v, err := readUnsignedPayload(r, child)
			if err != nil {
				return 0, false, err
			}
			if v != 1 {
				return 0, false, core.NewFormatError(core.ErrUnsupportedEBMLVersion, nil)
			}
			doc.Version = v
		case idEBMLReadVersion:
			v, err := readUnsignedPayload(r, child)
			if err != nil {
				return 0, false, err
			}
			if v > 1 {
				return 0, false, core.NewFormatError(core.ErrUnsupportedEBMLVersion, nil)
			}
			doc.ReadVersion = v
		case idEBMLMaxIDLength:
			v, err := readUnsignedPayload(r, child)
			if err != nil {
				return 0, false, err
			}
			if v < 4 || v > 8 {
				return 0, false, core.NewFormatError(core.ErrMaxIDLengthInvalid, nil)
			}
			doc.MaxIDLength = v
		case idEBMLMaxSizeLength:
			v, err := readUnsignedPayload(r, child)
			if err != nil {
				return 0, false, err
			}
			if v < 1 || v > 8 {
				return 0, false, core.NewFormatError(core.ErrMaxSizeInvalid, nil)
			}
			doc.MaxSizeLength = v
		case idDocType:
			s, err := readStringPayload(r, child)
			if err != nil {
				return 0, false, err
			}
			if len(s) == 0 {
				return 0, false, core.NewFormatError(core.ErrDocTypeEmpty, nil)
			}
			if len(s) > 1024 {
				return 0, false, core.NewFormatError(core.ErrDocTypeTooLong, nil)
			}
			doc.DocType = s
		case idDocTypeVersion:
			v, err := readUnsignedPayload(r, child)
			if err != nil {
				return 0, false, err
			}
			if v < 1 {
				return 0, false, core.NewFormatError(core.ErrDocTypeVersionInvalid, nil)
			}
			doc.DocTypeVersion = v
		case idDocTypeReadVersion:
			v, err := readUnsignedPayload(r, child)
			if err != nil {
				return 0, false, err
			}
			if v < 1 {
				return 0, false, core.NewFormatError(core.ErrDocTypeReadVersionInvalid, nil)
			}
			doc.DocTypeReadVersion = v
		case idDocTypeExtension:
			return child.PayloadOffset, true, nil
		case idDocTypeExtensionName:
			if _, err := readStringPayload(r, child); err != nil {
				return 0, false, err
			}
		case idDocTypeExtensionVer:
			if _, err := readUnsignedPayload(r, child); err != nil {
				return 0, false, err
			}
		case IDCRC32:
			// Checksum already interned by walkChildren before this
			// handler ran; nothing header-specific to do for it.
		case IDVoid:
			// padding, no payload interned
		}
		return 0, false, nil
	}

	if err := walkChildren(r, node, handle, nil); err != nil {
		return nil, err
	}

	var extensions []DocTypeExtension
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.TypeID != idDocTypeExtension {
			continue
		}
		var ext DocTypeExtension
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			switch gc.TypeID {
			case idDocTypeExtensionName:
				ext.Name = gc.Payload.Str
			case idDocTypeExtensionVer:
				ext.Version = gc.Payload.Unsigned
			}
		}
		extensions = append(extensions, ext)
	}
	if len(extensions) > 0 {
		node.Payload = core.Payload{Kind: core.KindExtra, Extra: extensions}
	}
	if doc.DocType == "" {
		return nil, core.NewFormatError(core.ErrDocTypeEmpty, nil)
	}
	if doc.DocTypeReadVersion > doc.DocTypeVersion {
		return nil, core.NewFormatError(core.ErrDocTypeReadVersionInvalid, nil)
	}
	return doc, nil
}

func readUnsignedPayload(r *core.Reader, node *core.Node) (uint64, error) {
	b, err := r.ReadSlice(int(node.PayloadSize))
	if err != nil {
		return 0, err
	}
	v, err := core.DecodeUnsigned(b)
	if err != nil {
		return 0, err
	}
	node.Payload = core.Payload{Kind: core.KindUnsigned, Unsigned: v}
	return v, nil
}

func readStringPayload(r *core.Reader, node *core.Node) (string, error) {
	b, err := r.ReadSlice(int(node.PayloadSize))
	if err != nil {
		return "", err
	}
	s, err := core.DecodePrintableString(b)
	if err != nil {
		return "", err
	}
	node.Payload = core.Payload{Kind: core.KindPrintableString, Str: s}
	return s, nil
}
