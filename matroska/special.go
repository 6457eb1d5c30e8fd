// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package matroska

import "github.com/tmelisma/boxtree/core"

// TrackType enumerates Tracks.TrackEntry.TrackType's known values.
type TrackType uint8

const (
	TrackTypeVideo    TrackType = 1
	TrackTypeAudio    TrackType = 2
	TrackTypeComplex  TrackType = 3
	TrackTypeLogo     TrackType = 16
	TrackTypeSubtitle TrackType = 17
	TrackTypeButtons  TrackType = 18
	TrackTypeControl  TrackType = 32
	TrackTypeMetadata TrackType = 33
)

// DecodeTrackType interprets b as a TrackType. Matroska's TrackType is a
// one-byte enum in every file seen in practice; anything else is
// rejected rather than silently widened, so a malformed track entry
// surfaces instead of producing a nonsense TrackType.
func DecodeTrackType(b []byte) (TrackType, error) {
	if len(b) != 1 {
		return 0, core.NewFormatError(core.ErrMatroskaTrackTypeInvalidLength, nil)
	}
	return TrackType(b[0]), nil
}

// DecodeUID unpacks a 16-byte UID field (SegmentUID, PrevUID, NextUID,
// SegmentFamily), surfacing the Matroska-specific length error
// Matroska_SegmentUID_Invalid_Length rather than the SegmentUIDInvalidLength
// kind core.DecodeUUID reports.
func DecodeUID(b []byte) (core.UUID, error) {
	u, err := core.DecodeUUID(b)
	if err != nil {
		return core.UUID{}, core.NewFormatError(core.ErrMatroskaSegmentUIDInvalidLength, nil)
	}
	return u, nil
}

// DecodeSeekPosition rebases Seek.SeekPosition's raw value, which is
// stored relative to the start of the enclosing SeekHead element (not its
// payload — the element's own first byte), into an absolute file offset.
func DecodeSeekPosition(b []byte, seekHeadOffset int64) (int64, error) {
	raw, err := core.DecodeUnsigned(b)
	if err != nil {
		return 0, err
	}
	return seekHeadOffset + int64(raw), nil
}

// enclosingSeekHead walks up from a SeekPosition node to confirm it sits
// where SeekPosition is only ever valid — directly under Seek, directly
// under SeekHead — and returns that SeekHead node. Any other nesting is
// the broken-position case the schema fails on.
func enclosingSeekHead(node *core.Node) (*core.Node, bool) {
	seek := node.Parent
	if seek == nil || seek.TypeID != idSeek {
		return nil, false
	}
	seekHead := seek.Parent
	if seekHead == nil || seekHead.TypeID != idSeekHead {
		return nil, false
	}
	return seekHead, true
}

// DecodeCueClusterPosition rebases CueTrackPositions.CueClusterPosition
// relative to the first byte of the enclosing Segment's payload — unlike
// SeekPosition, Cues carries no SeekHead-style anchor of its own.
func DecodeCueClusterPosition(b []byte, segmentPayloadOffset int64) (int64, error) {
	raw, err := core.DecodeUnsigned(b)
	if err != nil {
		return 0, err
	}
	return segmentPayloadOffset + int64(raw), nil
}

// DecodeLanguage wraps a Language/LanguageBCP47/ChapLanguage/TagLanguage
// string the same way for every element that carries one.
func DecodeLanguage(s string) core.Language {
	return core.DecodeLanguageString(s)
}

// DecodeSpecialPayload decodes the payload of any element whose
// ElementDef.Disposition is DispositionSpecial. node is the element
// itself, used to locate the enclosing SeekHead for SeekPosition;
// segmentPayloadOffset and segmentEnd anchor CueClusterPosition and
// bound both rebased offsets' validity. id values outside the special
// set return a zero Payload and a nil error — callers only reach this
// function after confirming DispositionSpecial from Lookup.
func DecodeSpecialPayload(id uint64, b []byte, node *core.Node, segmentPayloadOffset, segmentEnd int64) (core.Payload, error) {
	switch id {
	case idSeekPosition:
		seekHead, ok := enclosingSeekHead(node)
		if !ok {
			return core.Payload{}, core.NewFormatError(core.ErrMatroskaBrokenSeekPosition, nil)
		}
		abs, err := DecodeSeekPosition(b, seekHead.Offset)
		if err != nil {
			return core.Payload{}, err
		}
		if abs < segmentPayloadOffset || abs > segmentEnd {
			return core.Payload{}, core.NewFormatError(core.ErrMatroskaBrokenSeekPosition, nil)
		}
		return core.Payload{Kind: core.KindUnsigned, Unsigned: uint64(abs)}, nil
	case idCueClusterPosition:
		abs, err := DecodeCueClusterPosition(b, segmentPayloadOffset)
		if err != nil {
			return core.Payload{}, err
		}
		if abs < segmentPayloadOffset || abs > segmentEnd {
			return core.Payload{}, core.NewFormatError(core.ErrMatroskaBrokenSeekPosition, nil)
		}
		return core.Payload{Kind: core.KindUnsigned, Unsigned: uint64(abs)}, nil
	case idSegmentUID, idPrevUID, idNextUID, idSegmentFamily:
		u, err := DecodeUID(b)
		if err != nil {
			return core.Payload{}, err
		}
		return core.Payload{Kind: core.KindUUID, UUID: u}, nil
	case idTrackType:
		tt, err := DecodeTrackType(b)
		if err != nil {
			return core.Payload{}, err
		}
		return core.Payload{Kind: core.KindEnum, Enum: uint32(tt)}, nil
	case idLanguage, idLanguageBCP47, idChapLanguage, idTagLanguage:
		s, err := core.DecodePrintableString(b)
		if err != nil {
			return core.Payload{}, err
		}
		return core.Payload{Kind: core.KindLanguage, Language: DecodeLanguage(s)}, nil
	}
	return core.Payload{}, nil
}
