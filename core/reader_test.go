// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package core

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestReadSliceRejectsShortRead(t *testing.T) {
	c := qt.New(t)

	r := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03}))
	_, err := r.ReadSlice(8)
	c.Assert(err, qt.ErrorMatches, ".*file_ended_early.*")
}

func TestReadSliceReturnsExactBytes(t *testing.T) {
	c := qt.New(t)

	r := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04}))
	b, err := r.ReadSlice(4)
	c.Assert(err, qt.IsNil)
	c.Assert(b, qt.DeepEquals, []byte{0x01, 0x02, 0x03, 0x04})
}

func TestReadSliceZeroLengthIsNoop(t *testing.T) {
	c := qt.New(t)

	r := NewReader(bytes.NewReader([]byte{0x01}))
	b, err := r.ReadSlice(0)
	c.Assert(err, qt.IsNil)
	c.Assert(b, qt.IsNil)
}
