// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package attribute implements the typed hierarchical key/value tree
// used to expose statistics gathered by the state engine: a recursive
// tree supporting path-based lookup and get-or-create subdirectories.
package attribute

import "github.com/efficios/lttv-go/ttime"

// LeafKind is the type tag of a Tree leaf value.
type LeafKind int

const (
	LeafInt32 LeafKind = iota
	LeafUint32
	LeafInt64
	LeafUint64
	LeafFloat
	LeafDouble
	LeafTime
	LeafPointer
	LeafString
	LeafObject
)

// Leaf is a single typed value stored at a path in the tree.
type Leaf struct {
	Kind LeafKind

	i32 int32
	u32 uint32
	i64 int64
	u64 uint64
	f32 float32
	f64 float64
	t   ttime.Timestamp
	ptr uintptr
	str string
	obj interface{}
}

func (l Leaf) Int32() int32              { return l.i32 }
func (l Leaf) Uint32() uint32            { return l.u32 }
func (l Leaf) Int64() int64              { return l.i64 }
func (l Leaf) Uint64() uint64            { return l.u64 }
func (l Leaf) Float() float32            { return l.f32 }
func (l Leaf) Double() float64           { return l.f64 }
func (l Leaf) Time() ttime.Timestamp     { return l.t }
func (l Leaf) Pointer() uintptr          { return l.ptr }
func (l Leaf) String() string            { return l.str }
func (l Leaf) Object() interface{}       { return l.obj }

// node is one entry in a Tree: either a leaf value or another Tree.
type node struct {
	leaf *Leaf
	sub  *Tree
}

// Tree is one node of the attribute tree: a mapping from interned
// names to either a typed leaf or another Tree. The zero value is an
// empty, usable Tree. A Tree has no cycles, and FindSubdir creating a
// node never affects siblings.
type Tree struct {
	children map[string]node
}

func newTree() *Tree { return &Tree{children: make(map[string]node)} }

// FindSubdir returns the subdirectory at path, creating any missing
// components along the way. It is idempotent: two calls with the same
// path return the same *Tree.
func (t *Tree) FindSubdir(path ...string) *Tree {
	cur := t
	for _, name := range path {
		if cur.children == nil {
			cur.children = make(map[string]node)
		}
		n, ok := cur.children[name]
		if !ok || n.sub == nil {
			sub := newTree()
			cur.children[name] = node{sub: sub}
			cur = sub
			continue
		}
		cur = n.sub
	}
	return cur
}

// Subdir returns the subdirectory at path without creating it,
// reporting false if any component is missing or is a leaf.
func (t *Tree) Subdir(path ...string) (*Tree, bool) {
	cur := t
	for _, name := range path {
		n, ok := cur.children[name]
		if !ok || n.sub == nil {
			return nil, false
		}
		cur = n.sub
	}
	return cur, true
}

// Leaf returns the leaf at path, if any.
func (t *Tree) Leaf(path ...string) (Leaf, bool) {
	if len(path) == 0 {
		return Leaf{}, false
	}
	dir, ok := t.Subdir(path[:len(path)-1]...)
	if !ok {
		return Leaf{}, false
	}
	n, ok := dir.children[path[len(path)-1]]
	if !ok || n.leaf == nil {
		return Leaf{}, false
	}
	return *n.leaf, true
}

func (t *Tree) setLeaf(name string, l Leaf) {
	if t.children == nil {
		t.children = make(map[string]node)
	}
	t.children[name] = node{leaf: &l}
}

func (t *Tree) SetInt32(name string, v int32)   { t.setLeaf(name, Leaf{Kind: LeafInt32, i32: v}) }
func (t *Tree) SetUint32(name string, v uint32) { t.setLeaf(name, Leaf{Kind: LeafUint32, u32: v}) }
func (t *Tree) SetInt64(name string, v int64)   { t.setLeaf(name, Leaf{Kind: LeafInt64, i64: v}) }
func (t *Tree) SetUint64(name string, v uint64) { t.setLeaf(name, Leaf{Kind: LeafUint64, u64: v}) }
func (t *Tree) SetFloat(name string, v float32) { t.setLeaf(name, Leaf{Kind: LeafFloat, f32: v}) }
func (t *Tree) SetDouble(name string, v float64) { t.setLeaf(name, Leaf{Kind: LeafDouble, f64: v}) }
func (t *Tree) SetTime(name string, v ttime.Timestamp) { t.setLeaf(name, Leaf{Kind: LeafTime, t: v}) }
func (t *Tree) SetPointer(name string, v uintptr) { t.setLeaf(name, Leaf{Kind: LeafPointer, ptr: v}) }
func (t *Tree) SetString(name string, v string) { t.setLeaf(name, Leaf{Kind: LeafString, str: v}) }
func (t *Tree) SetObject(name string, v interface{}) { t.setLeaf(name, Leaf{Kind: LeafObject, obj: v}) }

// AddUint64 adds delta to the uint64 leaf at name, creating it at
// zero if absent. This is the common case for accumulating
// cpu_time/elapsed_time/event-count statistics.
func (t *Tree) AddUint64(name string, delta uint64) {
	if t.children == nil {
		t.children = make(map[string]node)
	}
	n := t.children[name]
	var cur uint64
	if n.leaf != nil {
		cur = n.leaf.u64
	}
	t.setLeaf(name, Leaf{Kind: LeafUint64, u64: cur + delta})
}

// Names returns the child names of t in unspecified order.
func (t *Tree) Names() []string {
	names := make([]string, 0, len(t.children))
	for name := range t.children {
		names = append(names, name)
	}
	return names
}

// Walk calls fn for every leaf reachable from t, with its full path
// from t.
func (t *Tree) Walk(fn func(path []string, l Leaf)) {
	t.walk(nil, fn)
}

func (t *Tree) walk(prefix []string, fn func(path []string, l Leaf)) {
	for name, n := range t.children {
		path := append(append([]string{}, prefix...), name)
		if n.leaf != nil {
			fn(path, *n.leaf)
		}
		if n.sub != nil {
			n.sub.walk(path, fn)
		}
	}
}
