// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package bmff_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/tmelisma/boxtree/bmff"
	"github.com/tmelisma/boxtree/core"
)

func buildDataAtom(typ uint32, value []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, typ)
	binary.Write(&buf, binary.BigEndian, uint32(0)) // locale/subtype, unused here
	buf.Write(value)
	return buildBox("data", buf.Bytes())
}

func buildIlstStream(withExtendedTag bool) []byte {
	nam := buildBox("\xa9nam", buildDataAtom(bmff.ITunesDataText, []byte("Title")))
	ilstPayload := nam
	if withExtendedTag {
		mean := buildBox("mean", []byte("com.apple.iTunes"))
		name := buildBox("name", []byte("iTunSMPB"))
		data := buildDataAtom(bmff.ITunesDataBinary, []byte{0x01, 0x02})
		dash := buildBox("----", append(append(mean, name...), data...))
		ilstPayload = append(ilstPayload, dash...)
	}
	ilst := buildBox("ilst", ilstPayload)
	meta := buildBox("meta", append([]byte{0, 0, 0, 0}, ilst...))
	udta := buildBox("udta", meta)
	moov := buildBox("moov", append(buildMvhd(1000, 0, 1), udta...))
	return append(buildFtyp("mp41", 0, "mp41"), moov...)
}

func TestParseIlstMetadata(t *testing.T) {
	c := qt.New(t)

	f := openBMFFBytes(c, buildIlstStream(true))
	defer f.Close()

	sum, err := bmff.Parse(f, bmff.Options{ParseMetadata: true})
	c.Assert(err, qt.IsNil)
	c.Assert(sum.ItunesMetadata, qt.IsNotNil)

	var nameTag, dashTag *core.Node
	for n := sum.ItunesMetadata.FirstChild; n != nil; n = n.NextSibling {
		switch bmffTypeName(n.TypeID) {
		case "\xa9nam":
			nameTag = n
		case "----":
			dashTag = n
		}
	}
	c.Assert(nameTag, qt.IsNotNil)
	c.Assert(nameTag.Payload.Kind, qt.Equals, core.KindUTF8String)
	c.Assert(nameTag.Payload.Str, qt.Equals, "Title")

	c.Assert(dashTag, qt.IsNotNil)
	ext, ok := dashTag.Payload.Extra.(bmff.ExtendedTag)
	c.Assert(ok, qt.IsTrue)
	c.Assert(ext.Mean, qt.Equals, "com.apple.iTunes")
	c.Assert(ext.Name, qt.Equals, "iTunSMPB")
	// The triple is also kept navigable as real child nodes.
	c.Assert(len(dashTag.Children()), qt.Equals, 3)
}

func TestParseIlstRejectsUndersizedDataAtom(t *testing.T) {
	c := qt.New(t)

	malformedData := buildBox("data", []byte{0x01, 0x02, 0x03, 0x04}) // payload < 8
	nam := buildBox("\xa9nam", malformedData)
	ilst := buildBox("ilst", nam)
	meta := buildBox("meta", append([]byte{0, 0, 0, 0}, ilst...))
	udta := buildBox("udta", meta)
	moov := buildBox("moov", append(buildMvhd(1000, 0, 1), udta...))
	stream := append(buildFtyp("mp41", 0, "mp41"), moov...)

	f := openBMFFBytes(c, stream)
	defer f.Close()

	_, err := bmff.Parse(f, bmff.Options{ParseMetadata: true})
	c.Assert(err, qt.ErrorMatches, ".*itunes_data_invalid_size.*")
}

func TestParseIlstRejectsDataAtomSizeOverrunningTag(t *testing.T) {
	c := qt.New(t)

	// A data atom declaring a size far larger than the tag box actually
	// containing it: the declared size must be rejected before
	// decodeITunesData tries to allocate a buffer for it.
	var oversizedData bytes.Buffer
	binary.Write(&oversizedData, binary.BigEndian, uint32(1000))
	oversizedData.WriteString("data")
	binary.Write(&oversizedData, binary.BigEndian, uint32(bmff.ITunesDataText))
	binary.Write(&oversizedData, binary.BigEndian, uint32(0))
	oversizedData.WriteString("hi")

	nam := buildBox("\xa9nam", oversizedData.Bytes())
	ilst := buildBox("ilst", nam)
	meta := buildBox("meta", append([]byte{0, 0, 0, 0}, ilst...))
	udta := buildBox("udta", meta)
	moov := buildBox("moov", append(buildMvhd(1000, 0, 1), udta...))
	stream := append(buildFtyp("mp41", 0, "mp41"), moov...)

	f := openBMFFBytes(c, stream)
	defer f.Close()

	_, err := bmff.Parse(f, bmff.Options{ParseMetadata: true})
	c.Assert(err, qt.ErrorMatches, ".*itunes_data_invalid_size.*")
}

func TestParseIlstSkippedWhenMetadataOff(t *testing.T) {
	c := qt.New(t)

	f := openBMFFBytes(c, buildIlstStream(false))
	defer f.Close()

	sum, err := bmff.Parse(f, bmff.Options{ParseMetadata: false})
	c.Assert(err, qt.IsNil)
	c.Assert(sum.ItunesMetadata, qt.IsNil)
}
