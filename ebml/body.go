// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ebml

import (
	"github.com/tmelisma/boxtree/core"
	"github.com/tmelisma/boxtree/matroska"
)

// Options configures Parse.
type Options struct {
	// ParseMetadata triggers decoding of Tags/SimpleTag values under a
	// Matroska body; when false, Tags is skipped like any other unknown
	// element, mirroring bmff.Options.ParseMetadata for ilst.
	ParseMetadata bool
	// SkipClusters skips every Cluster's children without decoding them —
	// the media payload itself is rarely wanted by a metadata reader.
	SkipClusters bool
	// ReturnAfterCluster stops the body walk once the cursor is
	// positioned one byte past the end of the first completed Cluster —
	// independent of SkipClusters, so a caller can hold back everything
	// after the first cluster while still choosing whether that
	// cluster's own children were decoded or skipped.
	ReturnAfterCluster bool
}

// File pairs a core.File with the documents discovered while parsing it.
type File struct {
	*core.File
}

// Open opens path as an EBML file, ready for Parse.
func Open(path string) (*File, error) {
	f, err := core.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{File: f}, nil
}

// Parse walks f from its first byte, reading one or more concatenated
// (header, body) documents until the stream is exhausted. It returns the
// same slice it assigns to f.Documents, wrapping any panic raised deep in
// the walk into a returned error the same way bmff.Parse does.
func Parse(f *File, opts Options) (docs []*core.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = core.NewFormatErrorf(core.ErrEBMLHeaderMissingOrCorrupt, "panic: %v", r)
			}
		}
	}()

	r := f.Reader
	pos := int64(0)
	for pos <= f.Root.End {
		doc, err := parseHeader(r, f.Root, pos)
		if err != nil {
			return nil, err
		}
		bodyPos := doc.Header.End + 1
		if bodyPos > f.Root.End {
			return nil, core.NewFormatError(core.ErrFileEndedEarly, nil)
		}
		body, err := parseBody(r, f.Root, bodyPos, doc, opts)
		if err != nil {
			return nil, err
		}
		doc.Body = body
		f.Documents = append(f.Documents, doc)
		pos = body.End + 1
	}
	return f.Documents, nil
}

// parseBody reads the single top-level element following an EBML header
// and dispatches on DocType: "matroska"/"webm" get the Matroska schema
// walk (with the body-root ID enforced), anything else gets a flat,
// schema-less walk that still builds a correct tree shape but interns no
// payloads, since no schema is known for an arbitrary doctype.
func parseBody(r *core.Reader, parentTree *core.Node, pos int64, doc *core.Document, opts Options) (*core.Node, error) {
	node, rawID, err := readElementHeader(r, pos)
	if err != nil {
		return nil, err
	}
	if node.End > parentTree.End {
		return nil, core.NewFormatError(core.ErrFileEndedEarly, nil)
	}
	parent := core.FindAncestorContaining(parentTree, node.Offset)
	parent.AppendChild(node)
	node.TypeID = rawID

	switch doc.DocType {
	case "matroska", "webm":
		if rawID != matroska.IDSegment {
			return nil, core.NewFormatError(core.ErrMatroskaBodyRootWrongID, nil)
		}
		if err := walkMatroska(r, node, opts); err != nil {
			return nil, err
		}
	default:
		if err := walkGeneric(r, node); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// walkGeneric builds a flat tree of node's direct children without
// descending into any of them, since an unrecognised doctype carries no
// schema telling us which elements are masters. Each child's Kind is left
// at KindNone — except a CRC-32 child, whose checksum walkChildren itself
// already interned before calling this handler — but its byte range
// remains navigable.
func walkGeneric(r *core.Reader, root *core.Node) error {
	return walkChildren(r, root, func(r *core.Reader, child *core.Node, id uint64) (int64, bool, error) {
		return 0, false, nil
	}, nil)
}

// walkMatroska runs the Matroska-schema-aware walk over a Segment body.
// segmentPayloadOffset anchors CueTrackPositions.CueClusterPosition, whose
// value is stored relative to it rather than as an absolute file offset,
// and with segment.End bounds both rebased positions; Seek.SeekPosition
// itself is rebased against its enclosing SeekHead's offset.
func walkMatroska(r *core.Reader, segment *core.Node, opts Options) error {
	segmentPayloadOffset := segment.PayloadOffset
	// stopAfter is set to the first Cluster's End+1 once ReturnAfterCluster
	// fires on it; it is independent of SkipClusters, so a caller can ask
	// for the first cluster's own children while still holding back
	// whatever top-level siblings follow it.
	stopAfter := int64(-1)
	stopBefore := func(pos int64) bool {
		return stopAfter >= 0 && pos >= stopAfter
	}

	handle := func(r *core.Reader, node *core.Node, id uint64) (int64, bool, error) {
		if id == IDCRC32 {
			// Checksum already interned by walkChildren before this handler
			// ran; nothing schema-specific to do for it.
			return 0, false, nil
		}

		def, known := matroska.Lookup(id)
		if !known {
			return 0, false, nil
		}

		if id == matroska.IDCluster {
			if opts.ReturnAfterCluster {
				stopAfter = node.End + 1
			}
			if opts.SkipClusters {
				return 0, false, nil
			}
		}
		if id == matroska.IDTags && !opts.ParseMetadata {
			return 0, false, nil
		}

		switch def.Disposition {
		case matroska.DispositionMaster:
			return node.PayloadOffset, true, nil
		case matroska.DispositionUnsignedInt:
			b, err := r.ReadSlice(int(node.PayloadSize))
			if err != nil {
				return 0, false, err
			}
			v, err := core.DecodeUnsigned(b)
			if err != nil {
				return 0, false, err
			}
			node.Payload = core.Payload{Kind: core.KindUnsigned, Unsigned: v}
		case matroska.DispositionSignedInt:
			b, err := r.ReadSlice(int(node.PayloadSize))
			if err != nil {
				return 0, false, err
			}
			v, err := core.DecodeSigned(b)
			if err != nil {
				return 0, false, err
			}
			node.Payload = core.Payload{Kind: core.KindSigned, Signed: v}
		case matroska.DispositionFloat:
			b, err := r.ReadSlice(int(node.PayloadSize))
			if err != nil {
				return 0, false, err
			}
			v, err := core.DecodeFloat(b)
			if err != nil {
				return 0, false, err
			}
			node.Payload = core.Payload{Kind: core.KindFloat, Float: v}
		case matroska.DispositionString:
			b, err := r.ReadSlice(int(node.PayloadSize))
			if err != nil {
				return 0, false, err
			}
			s, err := core.DecodePrintableString(b)
			if err != nil {
				return 0, false, err
			}
			node.Payload = core.Payload{Kind: core.KindPrintableString, Str: s}
		case matroska.DispositionUTF8:
			b, err := r.ReadSlice(int(node.PayloadSize))
			if err != nil {
				return 0, false, err
			}
			node.Payload = core.Payload{Kind: core.KindUTF8String, Str: core.DecodeUTF8String(b)}
		case matroska.DispositionDate:
			b, err := r.ReadSlice(int(node.PayloadSize))
			if err != nil {
				return 0, false, err
			}
			t, err := core.DecodeMatroskaTime(b)
			if err != nil {
				return 0, false, err
			}
			node.Payload = core.Payload{Kind: core.KindTime, Time: t}
		case matroska.DispositionBinary:
			// Left unread: binary payloads (Block/SimpleBlock media data,
			// CodecPrivate, attachment bytes) are addressed by byte range,
			// not materialized into memory by the tree walk.
		case matroska.DispositionSpecial:
			b, err := r.ReadSlice(int(node.PayloadSize))
			if err != nil {
				return 0, false, err
			}
			payload, err := matroska.DecodeSpecialPayload(id, b, node, segmentPayloadOffset, segment.End)
			if err != nil {
				return 0, false, err
			}
			node.Payload = payload
		}
		return 0, false, nil
	}

	return walkChildren(r, segment, handle, stopBefore)
}
