// Package action provides the action registry exported next to a menu: named
// stateless and stateful actions plus the ordered log of activations.
package action

import (
	"maps"
	"slices"

	"menuscript/pkg/errs"
	"menuscript/pkg/variant"
)

// Activation is one entry of the activation log.
type Activation struct {
	Name      string
	Parameter *variant.Value
	// State holds the state right after the activation, for stateful actions.
	State *variant.Value
}

// Change describes registry edits in the form observers consume.
type Change struct {
	Added        []Description
	Removed      []string
	StateChanged map[string]variant.Value
}

// Registry maps names to actions. It is not safe for concurrent use; the
// owning session serializes access.
type Registry struct {
	actions    map[string]*Action
	log        []Activation
	observer   func(Change)
	onActivate func(Activation)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]*Action)}
}

// Observe installs fn to be called after every structural or state change.
func (r *Registry) Observe(fn func(Change)) {
	r.observer = fn
}

// OnActivate installs fn to be called after every successful activation.
func (r *Registry) OnActivate(fn func(Activation)) {
	r.onActivate = fn
}

// Insert adds an action. Names are unique.
func (r *Registry) Insert(a *Action) error {
	if a == nil || a.name == "" {
		return errs.New(errs.InvalidState, "action has no name")
	}
	if _, exists := r.actions[a.name]; exists {
		return errs.Newf(errs.DuplicateName, "action %q is already registered", a.name)
	}

	r.actions[a.name] = a
	r.notify(Change{Added: []Description{a.Describe()}})
	return nil
}

// Remove deletes the named action.
func (r *Registry) Remove(name string) error {
	if _, exists := r.actions[name]; !exists {
		return errs.Newf(errs.NotFound, "action %q is not registered", name)
	}

	delete(r.actions, name)
	r.notify(Change{Removed: []string{name}})
	return nil
}

// Lookup returns the named action.
func (r *Registry) Lookup(name string) (*Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names lists the registered actions sorted by name.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.actions))
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	return len(r.actions)
}

// DescribeAll snapshots every action.
func (r *Registry) DescribeAll() map[string]Description {
	out := make(map[string]Description, len(r.actions))
	for name, a := range r.actions {
		out[name] = a.Describe()
	}
	return out
}

// Activate records an activation of the named action. The parameter must
// match the declared parameter type; only a boolean state may be activated
// without one, which toggles it. For stateful actions a parameter of the
// state type becomes the new state.
func (r *Registry) Activate(name string, parameter *variant.Value) error {
	a, ok := r.actions[name]
	if !ok {
		return errs.Newf(errs.NotFound, "action %q is not registered", name)
	}
	if !a.enabled {
		return errs.Newf(errs.InvalidState, "action %q is disabled", name)
	}
	if err := checkParameter(a, parameter); err != nil {
		return err
	}

	entry := Activation{Name: name}
	if parameter != nil {
		param := *parameter
		entry.Parameter = &param
	}

	if a.state != nil {
		next := *a.state
		switch {
		case parameter != nil && parameter.Signature() == a.state.Signature():
			next = *parameter
		case parameter != nil:
			return errs.Newf(errs.TypeMismatch, "action %q has state type %s, got %s", name, a.StateType(), parameter.Signature())
		case next.Kind() == variant.Bool:
			next = variant.NewBool(!next.Bool())
		}
		r.setState(a, next)
		state := next
		entry.State = &state
	}

	r.log = append(r.log, entry)
	if r.onActivate != nil {
		r.onActivate(entry)
	}
	return nil
}

func checkParameter(a *Action, parameter *variant.Value) error {
	switch {
	case parameter == nil && a.parameterType == "":
		return nil
	case parameter == nil:
		if a.state != nil && a.state.Kind() == variant.Bool {
			return nil
		}
		return errs.Newf(errs.TypeMismatch, "action %q expects a parameter of type %s", a.name, a.parameterType)
	case a.parameterType == "":
		return errs.Newf(errs.TypeMismatch, "action %q takes no parameter, got %s", a.name, parameter.Signature())
	case parameter.Signature() != a.parameterType:
		return errs.Newf(errs.TypeMismatch, "action %q expects a parameter of type %s, got %s", a.name, a.parameterType, parameter.Signature())
	}
	return nil
}

// SetState replaces the state of a stateful action. The value must have the
// action's state type.
func (r *Registry) SetState(name string, value variant.Value) error {
	a, ok := r.actions[name]
	if !ok {
		return errs.Newf(errs.NotFound, "action %q is not registered", name)
	}
	if a.state == nil {
		return errs.Newf(errs.TypeMismatch, "action %q is stateless", name)
	}
	if value.Signature() != a.state.Signature() {
		return errs.Newf(errs.TypeMismatch, "action %q has state type %s, got %s", name, a.StateType(), value.Signature())
	}

	r.setState(a, value)
	return nil
}

func (r *Registry) setState(a *Action, value variant.Value) {
	if a.state.Equal(value) {
		return
	}
	state := value
	a.state = &state
	r.notify(Change{StateChanged: map[string]variant.Value{a.name: value}})
}

// PopActivatedAction removes and returns the oldest logged activation name.
func (r *Registry) PopActivatedAction() (string, error) {
	entry, err := r.PopActivation()
	if err != nil {
		return "", err
	}
	return entry.Name, nil
}

// PopActivation removes and returns the oldest logged activation.
func (r *Registry) PopActivation() (Activation, error) {
	if len(r.log) == 0 {
		return Activation{}, errs.New(errs.Empty, "no activated actions")
	}

	entry := r.log[0]
	r.log = slices.Delete(r.log, 0, 1)
	return entry, nil
}

// DrainActivations empties the log and returns its entries.
func (r *Registry) DrainActivations() []Activation {
	entries := r.log
	r.log = nil
	return entries
}

// CarryActivations appends entries taken from another registry, keeping
// their order ahead of later activations.
func (r *Registry) CarryActivations(entries []Activation) {
	r.log = append(r.log, entries...)
}

// PendingActivations returns the number of unread log entries.
func (r *Registry) PendingActivations() int {
	return len(r.log)
}

func (r *Registry) notify(change Change) {
	if r.observer != nil {
		r.observer(change)
	}
}
