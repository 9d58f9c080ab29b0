// Package menu holds the hierarchical menu model: an arena of nodes addressed
// by stable NodeIDs, plus dotted-path resolution over section and submenu
// links.
package menu

import (
	"fmt"
	"maps"
	"slices"

	"menuscript/pkg/errs"
	"menuscript/pkg/variant"
)

// NodeID identifies a node for the lifetime of its tree. IDs are never reused.
type NodeID uint32

// RootID is the identifier of the root node of every tree.
const RootID NodeID = 0

// Kind classifies a node.
type Kind int

const (
	KindItem Kind = iota
	KindSection
	KindSubmenu
	KindRoot
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindSection:
		return "section"
	case KindSubmenu:
		return "submenu"
	case KindRoot:
		return "root"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText lets kinds appear by name in JSON snapshots.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsContainer reports whether nodes of this kind may own children.
func (k Kind) IsContainer() bool {
	return k != KindItem
}

// Link selects what an append creates: a plain item or a new container.
type Link int

const (
	LinkNone Link = iota
	LinkSection
	LinkSubmenu
)

// ParseLink accepts "", "none", "section" and "submenu".
func ParseLink(s string) (Link, error) {
	switch s {
	case "", "none":
		return LinkNone, nil
	case "section":
		return LinkSection, nil
	case "submenu":
		return LinkSubmenu, nil
	default:
		return LinkNone, fmt.Errorf("unknown link kind %q", s)
	}
}

func (l Link) String() string {
	switch l {
	case LinkSection:
		return "section"
	case LinkSubmenu:
		return "submenu"
	default:
		return "none"
	}
}

func (l Link) kind() Kind {
	switch l {
	case LinkSection:
		return KindSection
	case LinkSubmenu:
		return KindSubmenu
	default:
		return KindItem
	}
}

// Node is one entry of the tree. Fields are read-only for callers; mutate the
// tree through Append and Remove.
type Node struct {
	ID         NodeID
	Kind       Kind
	Label      string
	Action     string
	Attributes map[string]variant.Value

	parent   NodeID
	children []NodeID
}

// Parent returns the owning container; the root is its own parent.
func (n *Node) Parent() NodeID { return n.parent }

// Children returns a copy of the ordered child identifiers.
func (n *Node) Children() []NodeID { return slices.Clone(n.children) }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// ItemSpec describes a node to append.
type ItemSpec struct {
	Label      string
	Action     string
	Attributes map[string]variant.Value
}

// Change describes one edit of a container, in the shape observers expect:
// at Position, Removed children went away and Added took their place.
type Change struct {
	Menu     NodeID
	Position int
	Removed  int
	Added    []NodeID
}

// Tree is a menu arena. It is not safe for concurrent use; the owner
// serializes access.
type Tree struct {
	nodes    map[NodeID]*Node
	next     NodeID
	observer func(Change)
}

// NewTree creates a tree holding only the root.
func NewTree() *Tree {
	root := &Node{ID: RootID, Kind: KindRoot, parent: RootID}
	return &Tree{
		nodes: map[NodeID]*Node{RootID: root},
		next:  RootID + 1,
	}
}

// Observe installs fn to be called after every Append and Remove. Passing nil
// removes the observer.
func (t *Tree) Observe(fn func(Change)) {
	t.observer = fn
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return t.nodes[RootID]
}

// Node looks up a live node.
func (t *Tree) Node(id NodeID) (*Node, bool) {
	node, ok := t.nodes[id]
	return node, ok
}

// Size returns the number of live nodes, root included.
func (t *Tree) Size() int {
	return len(t.nodes)
}

// ChildAt returns the child at a local index.
func (t *Tree) ChildAt(parent NodeID, index int) (*Node, bool) {
	node, ok := t.nodes[parent]
	if !ok || index < 0 || index >= len(node.children) {
		return nil, false
	}

	return t.nodes[node.children[index]], true
}

// LinkAt returns the child at index when it is a container of the given kind.
func (t *Tree) LinkAt(parent NodeID, index int, kind Kind) (*Node, bool) {
	child, ok := t.ChildAt(parent, index)
	if !ok || child.Kind != kind {
		return nil, false
	}

	return child, true
}

// Containers lists every node that can own children, root first, then in
// creation order.
func (t *Tree) Containers() []NodeID {
	ids := make([]NodeID, 0, len(t.nodes))
	for id, node := range t.nodes {
		if node.Kind.IsContainer() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Append adds a node at the end of parent. With LinkNone the node is a plain
// item; otherwise a new empty Section or Submenu container carrying the label
// and attributes is appended. The new node's ID is returned either way.
func (t *Tree) Append(parent NodeID, spec ItemSpec, link Link) (NodeID, error) {
	owner, ok := t.nodes[parent]
	if !ok {
		return 0, errs.Newf(errs.NotFound, "menu node %d does not exist", parent)
	}
	if !owner.Kind.IsContainer() {
		return 0, errs.Newf(errs.InvalidPath, "menu node %d is an item and cannot own children", parent)
	}

	node := &Node{
		ID:         t.next,
		Kind:       link.kind(),
		Label:      spec.Label,
		Attributes: maps.Clone(spec.Attributes),
		parent:     parent,
	}
	if link == LinkNone {
		node.Action = spec.Action
	}
	t.next++

	t.nodes[node.ID] = node
	position := len(owner.children)
	owner.children = append(owner.children, node.ID)

	t.notify(Change{Menu: parent, Position: position, Added: []NodeID{node.ID}})
	return node.ID, nil
}

// Remove deletes the child at index together with its subtree and returns the
// removed node's ID. Later siblings shift down by one.
func (t *Tree) Remove(parent NodeID, index int) (NodeID, error) {
	owner, ok := t.nodes[parent]
	if !ok {
		return 0, errs.Newf(errs.NotFound, "menu node %d does not exist", parent)
	}
	if index == -1 {
		return 0, errs.New(errs.NotFound, "path addresses a whole menu, not an entry")
	}
	if index < 0 || index >= len(owner.children) {
		return 0, errs.Newf(errs.NotFound, "menu %d has no entry at index %d", parent, index)
	}

	removed := owner.children[index]
	owner.children = slices.Delete(owner.children, index, index+1)
	t.drop(removed)

	t.notify(Change{Menu: parent, Position: index, Removed: 1})
	return removed, nil
}

func (t *Tree) drop(id NodeID) {
	pending := []NodeID{id}
	for len(pending) > 0 {
		current := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if node, ok := t.nodes[current]; ok {
			pending = append(pending, node.children...)
			delete(t.nodes, current)
		}
	}
}

func (t *Tree) notify(change Change) {
	if t.observer != nil {
		t.observer(change)
	}
}
