// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package matroska_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/tmelisma/boxtree/core"
	"github.com/tmelisma/boxtree/matroska"
)

func TestDecodeTrackType(t *testing.T) {
	c := qt.New(t)

	tt, err := matroska.DecodeTrackType([]byte{1})
	c.Assert(err, qt.IsNil)
	c.Assert(tt, qt.Equals, matroska.TrackTypeVideo)

	_, err = matroska.DecodeTrackType([]byte{1, 2})
	c.Assert(err, qt.ErrorMatches, ".*matroska_track_type_invalid_length.*")
}

func TestDecodeUID(t *testing.T) {
	c := qt.New(t)

	b := make([]byte, 16)
	for i := range b {
		b[i] = byte(i)
	}
	u, err := matroska.DecodeUID(b)
	c.Assert(err, qt.IsNil)
	c.Assert(u[0], qt.Equals, byte(0))
	c.Assert(u[15], qt.Equals, byte(15))

	_, err = matroska.DecodeUID(b[:10])
	c.Assert(err, qt.ErrorMatches, ".*matroska_segment_uid_invalid_length.*")
}

func TestDecodeSeekPositionRebasesToAbsolute(t *testing.T) {
	c := qt.New(t)

	seekHeadOffset := int64(1000)
	abs, err := matroska.DecodeSeekPosition([]byte{0x00, 0x64}, seekHeadOffset) // 100
	c.Assert(err, qt.IsNil)
	c.Assert(abs, qt.Equals, int64(1100))
}

func TestDecodeCueClusterPositionRebasesToAbsolute(t *testing.T) {
	c := qt.New(t)

	segmentPayloadOffset := int64(500)
	abs, err := matroska.DecodeCueClusterPosition([]byte{0x0A}, segmentPayloadOffset) // 10
	c.Assert(err, qt.IsNil)
	c.Assert(abs, qt.Equals, int64(510))
}

func TestDecodeLanguage(t *testing.T) {
	c := qt.New(t)

	lang := matroska.DecodeLanguage("en")
	c.Assert(lang.Code, qt.Equals, "en")
	c.Assert(lang.Tag.String(), qt.Equals, "en")
}

// seekPositionNode builds the Seek/SeekHead parent chain
// DecodeSpecialPayload requires to accept a SeekPosition value, anchored
// at seekHeadOffset. The raw IDs mirror matroska's own unexported
// idSeekHead/idSeek, duplicated here since this file lives outside the
// package.
func seekPositionNode(seekHeadOffset int64) *core.Node {
	seekHead := &core.Node{TypeID: 0x114D9B74, Offset: seekHeadOffset}
	seek := &core.Node{TypeID: 0x4DBB, Parent: seekHead}
	return &core.Node{TypeID: 0x53AC, Parent: seek}
}

func TestDecodeSpecialPayloadDispatch(t *testing.T) {
	c := qt.New(t)

	segmentPayloadOffset := int64(100)
	segmentEnd := int64(10000)

	id, ok := matroska.NameResolver("SeekPosition")
	c.Assert(ok, qt.IsTrue)
	node := seekPositionNode(segmentPayloadOffset)
	payload, err := matroska.DecodeSpecialPayload(id, []byte{0x00, 0x32}, node, segmentPayloadOffset, segmentEnd) // 50
	c.Assert(err, qt.IsNil)
	c.Assert(payload.Kind, qt.Equals, core.KindUnsigned)
	c.Assert(payload.Unsigned, qt.Equals, uint64(150))

	id, ok = matroska.NameResolver("SegmentUID")
	c.Assert(ok, qt.IsTrue)
	uidBytes := make([]byte, 16)
	payload, err = matroska.DecodeSpecialPayload(id, uidBytes, nil, segmentPayloadOffset, segmentEnd)
	c.Assert(err, qt.IsNil)
	c.Assert(payload.Kind, qt.Equals, core.KindUUID)

	id, ok = matroska.NameResolver("TrackType")
	c.Assert(ok, qt.IsTrue)
	payload, err = matroska.DecodeSpecialPayload(id, []byte{2}, nil, segmentPayloadOffset, segmentEnd)
	c.Assert(err, qt.IsNil)
	c.Assert(payload.Kind, qt.Equals, core.KindEnum)
	c.Assert(payload.Enum, qt.Equals, uint32(matroska.TrackTypeAudio))

	id, ok = matroska.NameResolver("Language")
	c.Assert(ok, qt.IsTrue)
	payload, err = matroska.DecodeSpecialPayload(id, []byte("eng"), nil, segmentPayloadOffset, segmentEnd)
	c.Assert(err, qt.IsNil)
	c.Assert(payload.Kind, qt.Equals, core.KindLanguage)
	c.Assert(payload.Language.Code, qt.Equals, "eng")
}

func TestDecodeSpecialPayloadRejectsOutOfBoundsSeekPosition(t *testing.T) {
	c := qt.New(t)

	segmentPayloadOffset := int64(100)
	segmentEnd := int64(200)

	id, ok := matroska.NameResolver("SeekPosition")
	c.Assert(ok, qt.IsTrue)
	node := seekPositionNode(segmentPayloadOffset)
	// 1000 rebased puts the absolute offset far past segmentEnd.
	_, err := matroska.DecodeSpecialPayload(id, []byte{0x03, 0xE8}, node, segmentPayloadOffset, segmentEnd)
	c.Assert(err, qt.ErrorMatches, ".*matroska_broken_seek_position.*")
}

func TestDecodeSpecialPayloadRejectsSeekPositionWithoutSeekHeadParent(t *testing.T) {
	c := qt.New(t)

	id, ok := matroska.NameResolver("SeekPosition")
	c.Assert(ok, qt.IsTrue)
	orphan := &core.Node{TypeID: 0x53AC}
	_, err := matroska.DecodeSpecialPayload(id, []byte{0x00, 0x32}, orphan, 100, 10000)
	c.Assert(err, qt.ErrorMatches, ".*matroska_broken_seek_position.*")
}
