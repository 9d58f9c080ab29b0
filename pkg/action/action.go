package action

import (
	"menuscript/pkg/variant"
)

// Action is a named, activatable unit. Stateful actions carry a value whose
// type is fixed when the action is created.
type Action struct {
	name          string
	parameterType string
	enabled       bool
	state         *variant.Value
}

// NewStateless creates an enabled action without state.
func NewStateless(name string) *Action {
	return &Action{name: name, enabled: true}
}

// NewStateful creates an enabled action whose state type is the type of
// initial.
func NewStateful(name string, initial variant.Value) *Action {
	state := initial
	return &Action{name: name, enabled: true, state: &state}
}

// WithParameterType declares the type of parameter the action expects.
func (a *Action) WithParameterType(sig string) *Action {
	a.parameterType = sig
	return a
}

func (a *Action) Name() string { return a.name }
func (a *Action) Enabled() bool { return a.enabled }
func (a *Action) ParameterType() string { return a.parameterType }
func (a *Action) Stateful() bool { return a.state != nil }

// StateType returns the signature of the state, or "" for stateless actions.
func (a *Action) StateType() string {
	if a.state == nil {
		return ""
	}
	return a.state.Signature()
}

// State returns the current state.
func (a *Action) State() (variant.Value, bool) {
	if a.state == nil {
		return variant.Value{}, false
	}
	return *a.state, true
}

// Description is the read-only view exported to observers.
type Description struct {
	Name          string
	Enabled       bool
	ParameterType string
	State         *variant.Value
}

// Describe snapshots the action.
func (a *Action) Describe() Description {
	desc := Description{Name: a.name, Enabled: a.enabled, ParameterType: a.parameterType}
	if a.state != nil {
		state := *a.state
		desc.State = &state
	}
	return desc
}
