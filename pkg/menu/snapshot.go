package menu

import (
	"maps"

	"menuscript/pkg/variant"
)

// Snapshot is a detached, recursive copy of a subtree, used for rendering and
// for JSON views of the live menu.
type Snapshot struct {
	ID         NodeID                   `json:"id"`
	Kind       Kind                     `json:"kind"`
	Label      string                   `json:"label,omitempty"`
	Action     string                   `json:"action,omitempty"`
	Attributes map[string]variant.Value `json:"attributes,omitempty"`
	Children   []Snapshot               `json:"children,omitempty"`
}

// Snapshot copies the whole tree.
func (t *Tree) Snapshot() Snapshot {
	snap, _ := t.SnapshotOf(RootID)
	return snap
}

// SnapshotOf copies the subtree rooted at id.
func (t *Tree) SnapshotOf(id NodeID) (Snapshot, bool) {
	node, ok := t.nodes[id]
	if !ok {
		return Snapshot{}, false
	}

	snap := Snapshot{
		ID:         node.ID,
		Kind:       node.Kind,
		Label:      node.Label,
		Action:     node.Action,
		Attributes: maps.Clone(node.Attributes),
	}
	for _, child := range node.children {
		childSnap, ok := t.SnapshotOf(child)
		if ok {
			snap.Children = append(snap.Children, childSnap)
		}
	}

	return snap, true
}

// Count returns the number of nodes in the snapshot, itself included.
func (s Snapshot) Count() int {
	total := 1
	for _, child := range s.Children {
		total += child.Count()
	}
	return total
}

// Find returns the descendant reached by following child indices, without the
// section/submenu resolution rules of Tree.Resolve.
func (s Snapshot) Find(indices ...int) (Snapshot, bool) {
	current := s
	for _, index := range indices {
		if index < 0 || index >= len(current.Children) {
			return Snapshot{}, false
		}
		current = current.Children[index]
	}
	return current, true
}
