// Package bus defines what a menu fixture needs from a message bus: owning a
// well-known name and exporting a menu model and an action group at object
// paths. MessageBus is an in-process implementation; pkg/dbusconn talks to a
// real D-Bus daemon.
package bus

import (
	"context"

	"menuscript/pkg/variant"
)

// Handle identifies an owned name or an exported object.
type Handle string

// Attribute names and link names used on the wire.
const (
	AttributeLabel  = "label"
	AttributeAction = "action"
	LinkSection     = ":section"
	LinkSubmenu     = ":submenu"
)

// MenuRef addresses one menu of an exported model.
type MenuRef struct {
	Group uint32 `json:"group"`
	Menu  uint32 `json:"menu"`
}

// Item is one menu entry as observers see it: its attributes, label and
// action included, plus links to the menus it owns.
type Item struct {
	Attributes map[string]variant.Value `json:"attributes,omitempty"`
	Links      map[string]MenuRef       `json:"links,omitempty"`
}

// Label returns the label attribute, if any.
func (i Item) Label() string {
	return i.Attributes[AttributeLabel].Str()
}

// Menu is the content of one menu.
type Menu struct {
	MenuRef
	Items []Item `json:"items"`
}

// MenuChange reports that, in one menu, Removed items at Position were
// replaced by Added.
type MenuChange struct {
	MenuRef
	Position uint32 `json:"position"`
	Removed  uint32 `json:"removed"`
	Added    []Item `json:"added,omitempty"`
}

// ActionDescription is the exported view of one action.
type ActionDescription struct {
	Enabled       bool           `json:"enabled"`
	ParameterType string         `json:"parameter_type,omitempty"`
	State         *variant.Value `json:"state,omitempty"`
}

// ActionChange batches action group edits.
type ActionChange struct {
	Removed        []string                     `json:"removed,omitempty"`
	EnabledChanged map[string]bool              `json:"enabled_changed,omitempty"`
	StateChanged   map[string]variant.Value     `json:"state_changed,omitempty"`
	Added          map[string]ActionDescription `json:"added,omitempty"`
}

// MenuModel is an exportable menu. Start returns every menu of the requested
// groups.
type MenuModel interface {
	Start(ctx context.Context, groups []uint32) ([]Menu, error)
	SubscribeMenus(fn func([]MenuChange)) (unsubscribe func())
}

// ActionGroup is an exportable set of actions. Activate and SetState come
// from remote callers.
type ActionGroup interface {
	List(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, name string) (ActionDescription, error)
	DescribeAll(ctx context.Context) (map[string]ActionDescription, error)
	Activate(ctx context.Context, name string, parameter *variant.Value) error
	SetState(ctx context.Context, name string, value variant.Value) error
	SubscribeActions(fn func(ActionChange)) (unsubscribe func())
}

// Connection is the bus as the export session uses it.
type Connection interface {
	OwnName(name string) (Handle, error)
	ReleaseName(h Handle) error
	ExportMenu(path string, model MenuModel) (Handle, error)
	UnexportMenu(h Handle) error
	ExportActions(path string, group ActionGroup) (Handle, error)
	UnexportActions(h Handle) error
}
