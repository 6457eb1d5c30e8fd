// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ebml

import (
	"bytes"
	"hash/crc32"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/tmelisma/boxtree/core"
)

func buildCRCFixture(covered []byte) (*core.Reader, *core.Node, *core.Node, uint32) {
	// CRC element occupies bytes [0,5]: 2-byte header, 4-byte payload. The
	// declared CRC value itself is supplied directly on the node rather
	// than encoded into these placeholder payload bytes.
	header := []byte{0xBF, 0x84} // ID 0xBF, size VINT for length 4
	stream := append(header, append(make([]byte, 4), covered...)...)

	r := core.NewReader(bytes.NewReader(stream))
	crcChild := &core.Node{Offset: 0, End: 5, PayloadOffset: 2, PayloadSize: 4}
	parent := &core.Node{Offset: 0, End: int64(5 + len(covered))}
	parent.FirstChild = crcChild
	crcChild.Parent = parent
	return r, parent, crcChild, crc32.ChecksumIEEE(covered)
}

func TestVerifyCRC32Matches(t *testing.T) {
	c := qt.New(t)
	covered := []byte{1, 2, 3, 4, 5}
	r, parent, crcChild, sum := buildCRCFixture(covered)
	crcChild.Payload = core.Payload{Kind: core.KindUnsigned, Unsigned: uint64(sum)}

	err := VerifyCRC32(r, parent, crcChild)
	c.Assert(err, qt.IsNil)
}

func TestVerifyCRC32Mismatch(t *testing.T) {
	c := qt.New(t)
	covered := []byte{1, 2, 3, 4, 5}
	r, parent, crcChild, sum := buildCRCFixture(covered)
	crcChild.Payload = core.Payload{Kind: core.KindUnsigned, Unsigned: uint64(sum ^ 1)}

	err := VerifyCRC32(r, parent, crcChild)
	c.Assert(err, qt.ErrorMatches, ".*invalid_crc.*")
}

func TestVerifyCRC32RequiresFirstChild(t *testing.T) {
	c := qt.New(t)
	covered := []byte{1, 2, 3}
	r, parent, crcChild, sum := buildCRCFixture(covered)
	crcChild.Payload = core.Payload{Kind: core.KindUnsigned, Unsigned: uint64(sum)}
	// Not the parent's first child.
	sibling := &core.Node{}
	parent.FirstChild = sibling

	err := VerifyCRC32(r, parent, crcChild)
	c.Assert(err, qt.ErrorMatches, ".*invalid_crc.*")
}
