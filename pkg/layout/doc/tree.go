package doc

import (
	"errors"
	"slices"
	"sort"
)

// RootTag is the tag of document roots and of the synthetic root produced by
// the merger.
const RootTag = "layout"

// NameAttr is the attribute that makes a node addressable by directives and
// by post-build lookup.
const NameAttr = "name"

var (
	// ErrInvalidNode is returned when an operation receives an id that does
	// not belong to the tree.
	ErrInvalidNode = errors.New("invalid node id")

	// ErrCycle is returned by [Tree.Append] when the child is an ancestor of
	// (or the same node as) the new parent.
	ErrCycle = errors.New("append would create a cycle")

	// SkipChildren can be returned from a [Tree.Walk] callback to skip the
	// subtree of the current node.
	SkipChildren = errors.New("skip children")
)

// NodeID addresses a node inside one [Tree]. Ids are not portable between
// trees; use [Tree.Graft] to copy nodes across.
type NodeID int

// None is the null node id, used as the parent of roots and detached nodes.
const None NodeID = -1

// Attr is a single attribute of a node.
type Attr struct {
	Key   string
	Value string
}

type node struct {
	tag      string
	attrs    []Attr
	text     string
	parent   NodeID
	children []NodeID
}

// Tree is an arena-backed document tree.
//
// The zero value is not usable; create trees with [New] or one of the
// parsers. A Tree is not safe for concurrent mutation.
type Tree struct {
	nodes []node
	root  NodeID
}

// New creates a tree holding a single root node with the given tag.
func New(rootTag string) *Tree {
	t := &Tree{}
	t.root = t.NewNode(rootTag)
	return t
}

// Root returns the id of the root node.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes in the arena, including detached ones.
func (t *Tree) Len() int { return len(t.nodes) }

// Valid reports whether id addresses a node of this tree.
func (t *Tree) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// NewNode allocates a detached node. Attach it with [Tree.Append].
func (t *Tree) NewNode(tag string) NodeID {
	t.nodes = append(t.nodes, node{tag: tag, parent: None})
	return NodeID(len(t.nodes) - 1)
}

// Tag returns the tag of id, or "" for an invalid id.
func (t *Tree) Tag(id NodeID) string {
	if !t.Valid(id) {
		return ""
	}
	return t.nodes[id].tag
}

// Text returns the inline text of id.
func (t *Tree) Text(id NodeID) string {
	if !t.Valid(id) {
		return ""
	}
	return t.nodes[id].text
}

// SetText replaces the inline text of id.
func (t *Tree) SetText(id NodeID, text string) {
	if t.Valid(id) {
		t.nodes[id].text = text
	}
}

// Attr returns the value of attribute key on id.
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	if !t.Valid(id) {
		return "", false
	}
	for _, a := range t.nodes[id].attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns a copy of the attributes of id.
func (t *Tree) Attrs(id NodeID) []Attr {
	if !t.Valid(id) {
		return nil
	}
	return slices.Clone(t.nodes[id].attrs)
}

// SetAttr sets attribute key on id, replacing an existing value.
func (t *Tree) SetAttr(id NodeID, key, value string) {
	if !t.Valid(id) {
		return
	}
	n := &t.nodes[id]
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Key: key, Value: value})
}

// Name returns the name attribute of id, or "" when the node is unnamed.
func (t *Tree) Name(id NodeID) string {
	v, _ := t.Attr(id, NameAttr)
	return v
}

// Children returns a copy of the child ids of id in document order. The copy
// stays valid while the tree is mutated.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.Valid(id) {
		return nil
	}
	return slices.Clone(t.nodes[id].children)
}

// Parent returns the parent of id, or [None] for roots and detached nodes.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.Valid(id) {
		return None
	}
	return t.nodes[id].parent
}

// Append moves child to the end of parent's children. A child that already
// has a parent is detached from it first.
func (t *Tree) Append(parent, child NodeID) error {
	if !t.Valid(parent) || !t.Valid(child) {
		return ErrInvalidNode
	}
	if t.IsAncestor(child, parent) {
		return ErrCycle
	}
	t.Detach(child)
	t.nodes[child].parent = parent
	t.nodes[parent].children = append(t.nodes[parent].children, child)
	return nil
}

// Detach removes id from its parent's child list. The node and its subtree
// remain in the arena, unreachable from the root. Detaching the root or an
// already detached node is a no-op.
func (t *Tree) Detach(id NodeID) {
	if !t.Valid(id) {
		return
	}
	p := t.nodes[id].parent
	if p == None {
		return
	}
	siblings := t.nodes[p].children
	if i := slices.Index(siblings, id); i >= 0 {
		t.nodes[p].children = slices.Delete(siblings, i, i+1)
	}
	t.nodes[id].parent = None
}

// Attached reports whether id is reachable from the root.
func (t *Tree) Attached(id NodeID) bool {
	return t.IsAncestor(t.root, id)
}

// IsAncestor reports whether a is b or one of b's ancestors.
func (t *Tree) IsAncestor(a, b NodeID) bool {
	if !t.Valid(a) || !t.Valid(b) {
		return false
	}
	for cur := b; cur != None; cur = t.nodes[cur].parent {
		if cur == a {
			return true
		}
	}
	return false
}

// Walk visits every node reachable from the root depth-first in document
// order. Returning [SkipChildren] skips the subtree of the current node; any
// other error stops the walk and is returned. Child lists are snapshotted, so
// fn may detach or append nodes.
func (t *Tree) Walk(fn func(id NodeID, depth int) error) error {
	return t.WalkFrom(t.root, fn)
}

// WalkFrom is [Tree.Walk] starting at an arbitrary node.
func (t *Tree) WalkFrom(start NodeID, fn func(id NodeID, depth int) error) error {
	if !t.Valid(start) {
		return ErrInvalidNode
	}
	err := t.walk(start, 0, fn)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) error) error {
	if err := fn(id, depth); err != nil {
		return err
	}
	for _, c := range t.Children(id) {
		if err := t.walk(c, depth+1, fn); err != nil && !errors.Is(err, SkipChildren) {
			return err
		}
	}
	return nil
}

// Graft deep-copies the subtree rooted at srcID of src and appends the copy
// to parent. It returns the id of the copy in t.
func (t *Tree) Graft(parent NodeID, src *Tree, srcID NodeID) (NodeID, error) {
	if !src.Valid(srcID) {
		return None, ErrInvalidNode
	}
	id := t.copyFrom(src, srcID)
	if err := t.Append(parent, id); err != nil {
		return None, err
	}
	return id, nil
}

func (t *Tree) copyFrom(src *Tree, srcID NodeID) NodeID {
	sn := src.nodes[srcID]
	id := t.NewNode(sn.tag)
	t.nodes[id].attrs = slices.Clone(sn.attrs)
	t.nodes[id].text = sn.text
	for _, c := range sn.children {
		cid := t.copyFrom(src, c)
		t.nodes[cid].parent = id
		t.nodes[id].children = append(t.nodes[id].children, cid)
	}
	return id
}

// Clone returns a compact copy of the attached part of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{}
	c.root = c.copyFrom(t, t.root)
	return c
}

// Equal reports whether two trees have the same shape, tags, text and
// attributes. Attribute order is ignored; child order is not.
func Equal(a, b *Tree) bool {
	return equalNodes(a, a.root, b, b.root)
}

func equalNodes(a *Tree, ai NodeID, b *Tree, bi NodeID) bool {
	an, bn := a.nodes[ai], b.nodes[bi]
	if an.tag != bn.tag || an.text != bn.text || len(an.children) != len(bn.children) {
		return false
	}
	if !slices.Equal(sortedAttrs(an.attrs), sortedAttrs(bn.attrs)) {
		return false
	}
	for i := range an.children {
		if !equalNodes(a, an.children[i], b, bn.children[i]) {
			return false
		}
	}
	return true
}

func sortedAttrs(attrs []Attr) []Attr {
	s := slices.Clone(attrs)
	sort.Slice(s, func(i, j int) bool { return s[i].Key < s[j].Key })
	return s
}
