package menu

import (
	"strconv"
	"strings"

	"menuscript/pkg/errs"
)

// ParsePath splits a dotted path such as "2.1" into its segments. The empty
// path has no segments.
func ParsePath(path string) ([]int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	parts := strings.Split(path, ".")
	segments := make([]int, len(parts))
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return nil, errs.Newf(errs.InvalidPath, "segment %d of %q is not a non-negative integer", i, path)
		}
		segments[i] = value
	}

	return segments, nil
}

// FormatPath joins segments back into dotted form.
func FormatPath(segments []int) string {
	parts := make([]string, len(segments))
	for i, segment := range segments {
		parts[i] = strconv.Itoa(segment)
	}
	return strings.Join(parts, ".")
}

// Resolve walks path from the root and returns the containing node and the
// local index of the target inside it. Each segment descends into a section
// link at that index, or failing that a submenu link; the walk stops at the
// first segment that does not name a link. A path that ends on a link, and the
// empty path, resolve to that container with index -1.
//
// Out-of-range indices are not an error here; the caller decides.
func (t *Tree) Resolve(path string) (NodeID, int, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return RootID, -1, err
	}

	current := RootID
	for _, index := range segments {
		link, ok := t.LinkAt(current, index, KindSection)
		if !ok {
			link, ok = t.LinkAt(current, index, KindSubmenu)
		}
		if !ok {
			return current, index, nil
		}
		current = link.ID
	}

	return current, -1, nil
}

// PathOf returns the dotted path addressing a live node, or false when the
// node is gone. The root has the empty path.
func (t *Tree) PathOf(id NodeID) (string, bool) {
	node, ok := t.nodes[id]
	if !ok {
		return "", false
	}

	var segments []int
	for node.ID != RootID {
		parent := t.nodes[node.parent]
		index := -1
		for i, child := range parent.children {
			if child == node.ID {
				index = i
				break
			}
		}
		if index < 0 {
			return "", false
		}
		segments = append([]int{index}, segments...)
		node = parent
	}

	return FormatPath(segments), true
}
