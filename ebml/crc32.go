// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ebml

import (
	"hash/crc32"
	"io"

	"github.com/tmelisma/boxtree/core"
)

// IDCRC32 and IDVoid are the two EBML-generic element IDs, independent of
// the Matroska schema: Void is padding to be skipped, CRC-32 is the
// optional first-child checksum of its parent. walkChildren recognises
// IDCRC32 in every walk; IDVoid is named only by the header walk, and the
// body walks skip it like any other ID they have no schema entry for.
const (
	IDCRC32 uint64 = 0xBF
	IDVoid  uint64 = 0xEC
)

const crcBlockSize = 4096

// VerifyCRC32 checks a CRC-32 element against the bytes it covers:
// crcChild is the (already-read) CRC-32 element, required to be parent's
// first child. Its 4-byte payload is
// compared against the IEEE-802.3 CRC-32 of every byte from
// crcChild.End+1 through parent.End. The file position is restored
// before returning.
func VerifyCRC32(r *core.Reader, parent, crcChild *core.Node) error {
	if crcChild.PayloadSize != 4 {
		return core.NewFormatError(core.ErrInvalidCRCSize, nil)
	}
	if parent.FirstChild != crcChild {
		return core.NewFormatError(core.ErrInvalidCRC, nil)
	}

	declared := crcChild.Payload.Unsigned

	savedPos, err := r.Position()
	if err != nil {
		return err
	}
	defer r.SetPosition(savedPos)

	if err := r.SetPosition(crcChild.End + 1); err != nil {
		return err
	}

	table := crc32.IEEETable
	acc := uint32(0)
	remaining := parent.End - crcChild.End
	for remaining > 0 {
		n := int64(crcBlockSize)
		if remaining < n {
			n = remaining
		}
		block, err := r.ReadSlice(int(n))
		if err != nil {
			return err
		}
		if int64(len(block)) != n {
			return core.NewFormatError(core.ErrFileEndedEarly, io.ErrUnexpectedEOF)
		}
		acc = crc32.Update(acc, table, block)
		remaining -= n
	}

	if uint64(acc) != declared {
		return core.NewFormatError(core.ErrInvalidCRC, nil)
	}
	return nil
}
