// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package ebml

import (
	"fmt"

	"github.com/tmelisma/boxtree/core"
)

// Verbose gates verbose parse tracing to stdout. Off by default.
var Verbose = false

func trace(format string, args ...any) {
	if Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// ElementHandler decodes node's payload (node's header is already read
// and linked into the tree) and reports where the next sibling/child scan
// should resume: childrenStart when isContainer, otherwise node.End+1.
type ElementHandler func(r *core.Reader, node *core.Node, rawID uint64) (childrenStart int64, isContainer bool, err error)

// readElementHeader decodes the EBML element wire format at startPos: a
// marker-retained VINT ID followed by a marker-stripped VINT length. The
// node's Offset/Size/End/PayloadOffset/PayloadSize are populated; TypeID
// is left to the caller.
func readElementHeader(r *core.Reader, startPos int64) (*core.Node, uint64, error) {
	idVint, err := ReadVIntID(r)
	if err != nil {
		return nil, 0, err
	}
	lenVint, err := ReadVIntLength(r)
	if err != nil {
		return nil, 0, err
	}
	payloadOffset, err := r.Position()
	if err != nil {
		return nil, 0, err
	}
	end := payloadOffset + int64(lenVint.Value) - 1
	node := &core.Node{
		Offset:        startPos,
		Size:          end - startPos + 1,
		End:           end,
		PayloadOffset: payloadOffset,
		PayloadSize:   end - payloadOffset + 1,
	}
	return node, idVint.Value, nil
}

// readCRC32Payload interns a CRC-32 element's declared checksum into its
// own node, so walkChildren's VerifyCRC32 call (which reads
// node.Payload.Unsigned) has a real value to compare against rather than
// Go's zero value.
func readCRC32Payload(r *core.Reader, node *core.Node) error {
	b, err := r.ReadSlice(int(node.PayloadSize))
	if err != nil {
		return err
	}
	v, err := core.DecodeUnsigned(b)
	if err != nil {
		return err
	}
	node.Payload = core.Payload{Kind: core.KindUnsigned, Unsigned: v}
	return nil
}

// walkChildren runs the shared recursive-descent loop over root's byte
// range [root.PayloadOffset, root.End], dispatching each discovered
// element through handle. It is the one engine both the EBML header
// parser and every EBML body doctype walk (generic and Matroska) share,
// mirroring how bmff.parse walks box headers.
//
// A CRC-32 child's declared checksum is interned into its own node, and
// verification run the moment a first child with ID IDCRC32 is seen, both
// here rather than in any per-doctype handler — the rule ("first child of
// its parent") is a property of tree shape the engine already tracks, not
// of any one element type, and every walkChildren caller gets it uniformly
// without having to special-case IDCRC32 itself.
//
// stopBefore, when non-nil, is consulted with the position the next
// element header would be read from; returning true ends the walk
// there without reading, appending, or handling that element at all.
// walkMatroska uses this to let ReturnAfterCluster hold a following
// top-level sibling out of the tree entirely, rather than merely
// leaving it unhandled.
func walkChildren(r *core.Reader, root *core.Node, handle ElementHandler, stopBefore func(pos int64) bool) error {
	if err := r.SetPosition(root.PayloadOffset); err != nil {
		return err
	}
	last := root
	for {
		pos, err := r.Position()
		if err != nil {
			return err
		}
		if pos > root.End {
			break
		}
		if stopBefore != nil && stopBefore(pos) {
			break
		}

		node, rawID, err := readElementHeader(r, pos)
		if err != nil {
			return err
		}
		if node.End > root.End {
			return core.NewFormatError(core.ErrFileEndedEarly, nil)
		}

		parent := core.FindAncestorContaining(last, node.Offset)
		parent.AppendChild(node)
		node.TypeID = rawID

		trace("ebml: offset=%d size=%d id=0x%X parent_offset=%d", node.Offset, node.Size, rawID, parent.Offset)

		if rawID == IDCRC32 {
			if err := readCRC32Payload(r, node); err != nil {
				return err
			}
		}

		childrenStart, isContainer, err := handle(r, node, rawID)
		if err != nil {
			return err
		}

		if rawID == IDCRC32 && parent.FirstChild == node {
			if err := VerifyCRC32(r, parent, node); err != nil {
				return err
			}
		}

		if isContainer {
			if err := r.SetPosition(childrenStart); err != nil {
				return err
			}
		} else {
			if err := r.SetPosition(node.End + 1); err != nil {
				return err
			}
		}
		last = node
	}
	return nil
}
