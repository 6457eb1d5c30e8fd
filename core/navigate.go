// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package core

// FindByType performs a depth-first search over root's subtree and
// appends every node whose TypeID equals id, in file order. root itself
// is included if it matches.
func FindByType(root *Node, id uint64) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.TypeID == id {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// NameResolver maps a path component to the TypeID it denotes; BMFF
// resolves FourCC names ("moov", "trak", ...), Matroska resolves element
// names ("Segment", "TrackEntry", ...). It returns ok == false for an
// unrecognised name.
type NameResolver func(name string) (id uint64, ok bool)

// GetValueByName walks a string path of compound (container) element
// names starting at node's children and returns the terminal node's
// Payload if every hop resolves: each
// intermediate hop must name a child that exists, and the last hop's
// matching child is the result, regardless of whether it is itself a
// container. Returns ok == false as soon as a hop's name doesn't resolve
// via resolve, or no child with that TypeID exists at that level.
func GetValueByName(node *Node, path []string, resolve NameResolver) (*Payload, bool) {
	cur := node
	for _, name := range path {
		id, ok := resolve(name)
		if !ok {
			return nil, false
		}
		var next *Node
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.TypeID == id {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return &cur.Payload, true
}
