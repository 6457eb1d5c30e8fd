// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package core

import (
	"io"
	"os"
)

// Node is a single box (BMFF) or element (EBML).
//
// Offset is the byte offset of the header's first byte in the source file.
// Size is the total size in bytes, header included; End is
// Offset+Size-1, inclusive. PayloadOffset/PayloadSize bound the payload
// sub-range [PayloadOffset, End]. TypeID is a FourCC for BMFF or a
// (marker-retained) VINT for EBML. UUIDPtr is non-nil only for a BMFF box
// whose type equals "uuid". Level is zero for the synthetic root, one for
// header/body roots, deeper below that.
type Node struct {
	Offset        int64
	Size          int64
	End           int64
	PayloadOffset int64
	PayloadSize   int64
	TypeID        uint64
	UUIDPtr       *UUID
	Level         int

	Parent      *Node
	NextSibling *Node
	FirstChild  *Node

	// lastChild caches AppendChild's tail so appending the next sibling
	// stays O(1); a container with thousands of flat children (a long
	// Cues table, a deep ilst) would otherwise walk the whole chain on
	// every single append.
	lastChild *Node

	Payload Payload

	// Synthetic marks a node the parser fabricated rather than read from
	// the stream: the file-covering root, and BMFF's injected default
	// ftyp when the stream doesn't open with one. Synthetic nodes carry
	// Size == 0 as the fabrication marker, except the root, whose Size
	// is the real file size.
	Synthetic bool
}

// LastChild returns n's last child in file order, or nil if n has none
// yet. Backed by the cache AppendChild maintains, not a chain walk.
func (n *Node) LastChild() *Node {
	return n.lastChild
}

// AppendChild links child as n's new last child in file order: directly
// as FirstChild if n has none yet, otherwise via the cached tail pointer
// so repeated appends under one parent (a long Cues table, a deep ilst)
// stay O(1) each rather than re-walking the sibling chain every time.
// child.Parent and child.Level are set here.
func (n *Node) AppendChild(child *Node) {
	child.Parent = n
	child.Level = n.Level + 1
	if n.FirstChild == nil {
		n.FirstChild = child
	} else {
		n.lastChild.NextSibling = child
	}
	n.lastChild = child
}

// Children returns the node's direct children in file order as a slice,
// for callers that prefer iteration to chain-walking.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// FindAncestorContaining starts at n and walks Parent links until it finds
// a node whose End >= offset — the parent-discovery trick used identically
// by the BMFF tree engine and the EBML header/body engines. It correctly
// handles several containers closing at once without an explicit stack.
func FindAncestorContaining(from *Node, offset int64) *Node {
	n := from
	for n.Parent != nil && n.End < offset {
		n = n.Parent
	}
	return n
}

// Document pairs an EBML header element with its body element and the
// seven header-derived fields every Matroska/WebM/generic-EBML document
// carries. A stream may hold more than one concatenated
// Document; File.Documents preserves their order.
type Document struct {
	Header *Node
	Body   *Node

	Version            uint64
	ReadVersion        uint64
	MaxIDLength        uint64
	MaxSizeLength      uint64
	DocType            string
	DocTypeVersion     uint64
	DocTypeReadVersion uint64
}

// File is the shared handle both parsers open, parse through, and close.
// It owns the underlying stream, a cached size, the Reader, and a
// synthetic root covering [0, Size-1]. EBML additionally populates
// Documents; BMFF leaves it empty.
type File struct {
	Stream io.ReadSeeker
	Closer io.Closer // nil if Stream was not opened by us (adopted handle)

	Reader *Reader
	Size   int64
	Root   *Node

	Documents []*Document

	closed bool
}

// Open opens path and returns a File with an empty synthetic root; callers
// then invoke a format-specific Parse.
func Open(path string) (*File, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, NewFormatError(ErrFileNotFound, err)
	}
	return adopt(f, f)
}

// Adopt builds a File around an already-open handle. If r also implements
// io.Closer, Close on the resulting File closes it too; the caller is
// otherwise free to manage r's lifetime separately.
func Adopt(r io.ReadSeeker) (*File, error) {
	closer, _ := r.(io.Closer)
	return adopt(r, closer)
}

func openFile(path string) (*os.File, error) {
	return os.Open(path)
}

func adopt(r io.ReadSeeker, closer io.Closer) (*File, error) {
	reader := NewReader(r)
	size, err := reader.Size()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, NewFormatError(ErrFileEmpty, nil)
	}
	root := &Node{
		Offset:        0,
		Size:          size,
		End:           size - 1,
		PayloadOffset: 0,
		PayloadSize:   size,
		Level:         0,
		Synthetic:     true,
	}
	root.Parent = root // a root is its own parent, so ancestor walks always terminate.
	return &File{
		Stream: r,
		Closer: closer,
		Reader: reader,
		Size:   size,
		Root:   root,
	}, nil
}

// Close is idempotent: calling it on an already-closed or nil File is a
// no-op. It frees the root (drops the tree's references so the garbage
// collector can reclaim owned payloads), the document list, and the
// underlying descriptor.
func (f *File) Close() error {
	if f == nil || f.closed {
		return nil
	}
	f.closed = true
	FreeTree(f.Root)
	f.Root = nil
	f.Documents = nil
	if f.Closer != nil {
		return f.Closer.Close()
	}
	return nil
}

// FreeTree walks root post-order, dropping owned payload memory (byte
// slices and strings live on the Go heap already and need no help, but
// Extra structs holding their own slices are cleared) before clearing the
// node's own links. The walk over a node's sibling chain is iterative, not
// recursive, so a container with many thousands of flat siblings (a long
// Matroska Cues table, a deep iTunes ilst) does not grow the call stack
// proportional to sibling count; only Parent/FirstChild depth recurses.
func FreeTree(root *Node) {
	for n := root; n != nil; {
		next := n.NextSibling
		freeNode(n)
		n = next
	}
}

func freeNode(n *Node) {
	if n == nil {
		return
	}
	FreeTree(n.FirstChild)
	n.FirstChild = nil
	n.lastChild = nil
	n.Payload = Payload{}
	n.Parent = nil
	n.NextSibling = nil
}
