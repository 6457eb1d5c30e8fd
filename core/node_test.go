// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package core

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestAppendChildAndChildren(t *testing.T) {
	c := qt.New(t)

	parent := &Node{}
	a := &Node{Offset: 0}
	b := &Node{Offset: 10}
	parent.AppendChild(a)
	parent.AppendChild(b)

	c.Assert(parent.FirstChild, qt.Equals, a)
	c.Assert(a.NextSibling, qt.Equals, b)
	c.Assert(a.Parent, qt.Equals, parent)
	c.Assert(a.Level, qt.Equals, 1)
	children := parent.Children()
	c.Assert(children, qt.HasLen, 2)
	c.Assert(children[0], qt.Equals, a)
	c.Assert(children[1], qt.Equals, b)
	c.Assert(parent.LastChild(), qt.Equals, b)
}

func TestFindAncestorContaining(t *testing.T) {
	c := qt.New(t)

	root := &Node{Offset: 0, End: 99}
	root.Parent = root
	child := &Node{Offset: 10, End: 50}
	root.AppendChild(child)
	grandchild := &Node{Offset: 20, End: 30}
	child.AppendChild(grandchild)

	// An offset past grandchild's End but still inside child walks up to
	// child, not past it.
	found := FindAncestorContaining(grandchild, 40)
	c.Assert(found, qt.Equals, child)

	// An offset past both grandchild and child walks all the way to root.
	found = FindAncestorContaining(grandchild, 60)
	c.Assert(found, qt.Equals, root)
}

func TestOpenAdoptClose(t *testing.T) {
	c := qt.New(t)

	data := bytes.Repeat([]byte{0x00}, 32)
	f, err := Adopt(bytes.NewReader(data))
	c.Assert(err, qt.IsNil)
	c.Assert(f.Size, qt.Equals, int64(32))
	c.Assert(f.Root.Synthetic, qt.IsTrue)
	c.Assert(f.Root.End, qt.Equals, int64(31))
	c.Assert(f.Root.Parent, qt.Equals, f.Root)

	c.Assert(f.Close(), qt.IsNil)
	// Idempotent: a second Close on an already-closed File is a no-op.
	c.Assert(f.Close(), qt.IsNil)
}

func TestAdoptEmptyStream(t *testing.T) {
	c := qt.New(t)
	_, err := Adopt(bytes.NewReader(nil))
	c.Assert(err, qt.ErrorMatches, ".*file_empty.*")
}

func TestFreeTree(t *testing.T) {
	c := qt.New(t)

	root := &Node{}
	child := &Node{}
	root.AppendChild(child)
	grandchild := &Node{}
	child.AppendChild(grandchild)

	FreeTree(root)
	c.Assert(root.FirstChild, qt.IsNil)
	c.Assert(root.Parent, qt.IsNil)
}
