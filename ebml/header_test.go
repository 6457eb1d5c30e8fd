// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ebml

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/tmelisma/boxtree/core"
)

// elem builds one EBML element: a marker-retained ID of idLen bytes, a
// one-byte size VINT (so payload must stay under 127 bytes), and payload.
func elem(id uint64, idLen int, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Write(encodeVint(id, idLen))
	buf.Write(encodeVint(uint64(len(payload)), 1))
	buf.Write(payload)
	return buf.Bytes()
}

func buildHeader(children ...[]byte) []byte {
	var body bytes.Buffer
	for _, c := range children {
		body.Write(c)
	}
	return elemAuto(idEBML, 4, body.Bytes())
}

func parseHeaderFixture(c *qt.C, data []byte) (*core.Document, error) {
	r := core.NewReader(bytes.NewReader(data))
	root := &core.Node{Offset: 0, End: int64(len(data)) - 1, PayloadOffset: 0, PayloadSize: int64(len(data))}
	root.Parent = root
	return parseHeader(r, root, 0)
}

func TestParseHeaderBasicFields(t *testing.T) {
	c := qt.New(t)

	data := buildHeader(
		elem(idEBMLVersion, 2, []byte{1}),
		elem(idDocType, 2, []byte("webm")),
		elem(idDocTypeVersion, 2, []byte{2}),
		elem(idDocTypeReadVersion, 2, []byte{2}),
	)

	doc, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.IsNil)
	c.Assert(doc.Version, qt.Equals, uint64(1))
	c.Assert(doc.DocType, qt.Equals, "webm")
	c.Assert(doc.DocTypeVersion, qt.Equals, uint64(2))
	c.Assert(doc.DocTypeReadVersion, qt.Equals, uint64(2))
}

func TestParseHeaderRejectsWrongRootID(t *testing.T) {
	c := qt.New(t)
	data := elem(idDocType, 2, []byte("webm"))
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*ebml_header_missing_or_corrupt.*")
}

func TestParseHeaderRejectsDeclaredSizePastRootEnd(t *testing.T) {
	c := qt.New(t)
	data := append(encodeVint(idEBML, 4), encodeVint(500, 2)...)
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*file_ended_early.*")
}

func TestParseHeaderRejectsUnsupportedReadVersion(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idEBMLReadVersion, 2, []byte{2}),
	)
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*unsupported_ebml_version.*")
}

func TestParseHeaderAcceptsReadVersionZero(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idEBMLReadVersion, 2, []byte{0}),
	)
	doc, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.IsNil)
	c.Assert(doc.ReadVersion, qt.Equals, uint64(0))
}

func TestParseHeaderRejectsUnsupportedVersion(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idEBMLVersion, 2, []byte{2}),
	)
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*unsupported_ebml_version.*")
}

func TestParseHeaderRejectsBadMaxIDLength(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idEBMLMaxIDLength, 2, []byte{9}),
	)
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*max_id_length_invalid.*")
}

func TestParseHeaderRejectsMaxIDLengthBelowFour(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idEBMLMaxIDLength, 2, []byte{2}),
	)
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*max_id_length_invalid.*")
}

func TestParseHeaderRejectsBadMaxSizeLength(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idEBMLMaxSizeLength, 2, []byte{0}),
	)
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*max_size_invalid.*")
}

func TestParseHeaderRejectsMissingDocType(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(elem(idEBMLVersion, 2, []byte{1}))
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*doctype_empty.*")
}

func TestParseHeaderAcceptsDocTypeUpToOneKiB(t *testing.T) {
	c := qt.New(t)
	long := bytes.Repeat([]byte("x"), 1000)
	data := buildHeader(elemAuto(idDocType, 2, long))
	doc, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.IsNil)
	c.Assert(doc.DocType, qt.Equals, string(long))
}

func TestParseHeaderRejectsTooLongDocType(t *testing.T) {
	c := qt.New(t)
	long := bytes.Repeat([]byte("x"), 1025)
	data := buildHeader(elemAuto(idDocType, 2, long))
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*doctype_too_long.*")
}

func TestParseHeaderRejectsBadDocTypeVersion(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idDocTypeVersion, 2, []byte{0}),
	)
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*doctype_version_invalid.*")
}

func TestParseHeaderRejectsBadDocTypeReadVersion(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idDocTypeReadVersion, 2, []byte{0}),
	)
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*doctype_read_version_invalid.*")
}

func TestParseHeaderRejectsReadVersionAboveDocTypeVersion(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idDocTypeVersion, 2, []byte{1}),
		elem(idDocTypeReadVersion, 2, []byte{2}),
	)
	_, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.ErrorMatches, ".*doctype_read_version_invalid.*")
}

func TestParseHeaderDefaultsDocTypeVersionWhenOmitted(t *testing.T) {
	c := qt.New(t)
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		elem(idDocTypeReadVersion, 2, []byte{1}),
	)
	doc, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.IsNil)
	c.Assert(doc.DocTypeVersion, qt.Equals, uint64(1))
	c.Assert(doc.DocTypeReadVersion, qt.Equals, uint64(1))
}

func TestParseHeaderDocTypeExtension(t *testing.T) {
	c := qt.New(t)

	ext := elem(idDocTypeExtension, 2, append(
		elem(idDocTypeExtensionName, 2, []byte("extA")),
		elem(idDocTypeExtensionVer, 2, []byte{1})...,
	))
	data := buildHeader(
		elem(idDocType, 2, []byte("webm")),
		ext,
	)

	doc, err := parseHeaderFixture(c, data)
	c.Assert(err, qt.IsNil)

	exts, ok := doc.Header.Payload.Extra.([]DocTypeExtension)
	c.Assert(ok, qt.IsTrue)
	c.Assert(exts, qt.HasLen, 1)
	c.Assert(exts[0].Name, qt.Equals, "extA")
	c.Assert(exts[0].Version, qt.Equals, uint64(1))
}
