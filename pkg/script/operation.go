// Package script holds the ordered menu edits a fixture replays: operations,
// the replay queue, script files and the built-in scenarios.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"menuscript/pkg/action"
	"menuscript/pkg/errs"
	"menuscript/pkg/menu"
	"menuscript/pkg/variant"
)

type OpKind int

const (
	OpAppend OpKind = iota
	OpRemove
)

func (k OpKind) String() string {
	if k == OpRemove {
		return "remove"
	}
	return "append"
}

// Operation is one queued edit. Append uses Parent, Label, Action, Link,
// Attributes and State; Remove uses Path and Action.
type Operation struct {
	Kind       OpKind
	Parent     string
	Label      string
	Action     string
	Link       menu.Link
	Attributes map[string]variant.Value
	// State makes the appended action stateful with this initial value.
	State *variant.Value
	Path  string
}

type AppendOption func(*Operation)

func WithParent(path string) AppendOption {
	return func(op *Operation) { op.Parent = path }
}

// AsSection appends an empty section instead of an item.
func AsSection() AppendOption {
	return func(op *Operation) { op.Link = menu.LinkSection }
}

// AsSubmenu appends an empty submenu instead of an item.
func AsSubmenu() AppendOption {
	return func(op *Operation) { op.Link = menu.LinkSubmenu }
}

func WithAttribute(name string, value variant.Value) AppendOption {
	return func(op *Operation) {
		if op.Attributes == nil {
			op.Attributes = make(map[string]variant.Value)
		}
		op.Attributes[name] = value
	}
}

func WithState(initial variant.Value) AppendOption {
	return func(op *Operation) {
		state := initial
		op.State = &state
	}
}

// Append builds an append operation targeting the root unless WithParent is
// given.
func Append(label, actionName string, opts ...AppendOption) Operation {
	op := Operation{Kind: OpAppend, Label: label, Action: actionName}
	for _, opt := range opts {
		opt(&op)
	}
	return op
}

// Remove builds a remove operation. actionName may be empty.
func Remove(path, actionName string) Operation {
	return Operation{Kind: OpRemove, Path: path, Action: actionName}
}

func (op Operation) clone() Operation {
	out := op
	out.Attributes = maps.Clone(op.Attributes)
	if op.State != nil {
		state := *op.State
		out.State = &state
	}
	return out
}

func (op Operation) String() string {
	switch op.Kind {
	case OpRemove:
		if op.Action != "" {
			return fmt.Sprintf("remove %q (action %s)", op.Path, op.Action)
		}
		return fmt.Sprintf("remove %q", op.Path)
	default:
		target := op.Parent
		if target == "" {
			target = "root"
		}
		if op.Link != menu.LinkNone {
			return fmt.Sprintf("append %s %q under %s", op.Link, op.Label, target)
		}
		return fmt.Sprintf("append %q (action %s) under %s", op.Label, op.Action, target)
	}
}

// Target is what operations apply to.
type Target struct {
	Tree    *menu.Tree
	Actions *action.Registry
	Log     *slog.Logger
}

// Apply performs the operation against target.
func (op Operation) Apply(target Target) error {
	log := target.Log
	if log == nil {
		log = slog.Default()
	}

	switch op.Kind {
	case OpAppend:
		return op.applyAppend(target, log)
	case OpRemove:
		return op.applyRemove(target, log)
	default:
		return fmt.Errorf("unknown operation kind %d", op.Kind)
	}
}

func (op Operation) applyAppend(target Target, log *slog.Logger) error {
	parent, index, err := target.Tree.Resolve(op.Parent)
	if err != nil {
		return err
	}
	if index != -1 {
		log.Debug("Append parent path does not end on a link, using its container", "parent", op.Parent, "container", parent, "index", index)
	}

	registersAction := op.Link == menu.LinkNone && op.Action != ""
	if registersAction {
		if _, exists := target.Actions.Lookup(op.Action); exists {
			return errs.Newf(errs.DuplicateName, "action %q is already registered", op.Action)
		}
	}

	spec := menu.ItemSpec{Label: op.Label, Action: op.Action, Attributes: op.Attributes}
	id, err := target.Tree.Append(parent, spec, op.Link)
	if err != nil {
		return err
	}
	if path, ok := target.Tree.PathOf(id); ok {
		log.Debug("Item appended", "label", op.Label, "link", op.Link, "path", path)
	}
	if !registersAction {
		return nil
	}

	a := action.NewStateless(op.Action)
	if op.State != nil {
		a = action.NewStateful(op.Action, *op.State).WithParameterType(op.State.Signature())
	}
	return target.Actions.Insert(a)
}

func (op Operation) applyRemove(target Target, log *slog.Logger) error {
	parent, index, err := target.Tree.Resolve(op.Path)
	if err != nil {
		return err
	}
	if _, err := target.Tree.Remove(parent, index); err != nil {
		return fmt.Errorf("remove %q: %w", op.Path, err)
	}
	if op.Action == "" {
		return nil
	}

	if err := target.Actions.Remove(op.Action); err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}
		log.Warn("Action to retract is not registered", "action", op.Action, "path", op.Path)
	}
	return nil
}
