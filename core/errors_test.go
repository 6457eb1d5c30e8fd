// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package core

import (
	"errors"
	"io"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFormatErrorIsAndUnwrap(t *testing.T) {
	c := qt.New(t)

	err := NewFormatError(ErrFileEmpty, nil)
	c.Assert(errors.Is(err, ErrInvalidFormat), qt.IsTrue)
	c.Assert(IsInvalidFormat(err), qt.IsTrue)

	var fe *FormatError
	c.Assert(errors.As(err, &fe), qt.IsTrue)
	c.Assert(fe.Kind, qt.Equals, ErrFileEmpty)

	other := NewFormatError(ErrFTYPDuplicated, nil)
	c.Assert(errors.Is(err, other), qt.Equals, false)
	c.Assert(errors.Is(err, NewFormatError(ErrFileEmpty, nil)), qt.IsTrue)
}

func TestFormatErrorMessage(t *testing.T) {
	c := qt.New(t)

	bare := NewFormatError(ErrFileEmpty, nil)
	c.Assert(bare.Error(), qt.Equals, "file_empty")

	wrapped := NewFormatErrorf(ErrReadError, "short read of %d bytes", 3)
	c.Assert(wrapped.Error(), qt.Equals, "read_error: short read of 3 bytes")
}

func TestWrapReadError(t *testing.T) {
	c := qt.New(t)

	c.Assert(WrapReadError(nil), qt.IsNil)

	var fe *FormatError
	err := WrapReadError(io.ErrUnexpectedEOF)
	c.Assert(errors.As(err, &fe), qt.IsTrue)
	c.Assert(fe.Kind, qt.Equals, ErrFileEndedEarly)

	err = WrapReadError(errors.New("disk on fire"))
	c.Assert(errors.As(err, &fe), qt.IsTrue)
	c.Assert(fe.Kind, qt.Equals, ErrReadError)
}
