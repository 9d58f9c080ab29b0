package dbusconn

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"menuscript/pkg/bus"
	"menuscript/pkg/variant"
)

// menusObject serves org.gtk.Menus for one model.
type menusObject struct {
	model bus.MenuModel
	log   *slog.Logger
}

// Start returns every menu of the requested groups as a(uuaa{sv}).
func (o *menusObject) Start(groups []uint32) ([]wireMenu, *dbus.Error) {
	ctx, cancel := callContext()
	defer cancel()

	menus, err := o.model.Start(ctx, groups)
	if err != nil {
		return nil, dbusError(err)
	}

	out := make([]wireMenu, 0, len(menus))
	for _, m := range menus {
		items, err := toWireItems(m.Items)
		if err != nil {
			return nil, dbusError(err)
		}
		out = append(out, wireMenu{Group: m.Group, Menu: m.Menu, Items: items})
	}
	return out, nil
}

// End is accepted for protocol compatibility; changes are always emitted.
func (o *menusObject) End(groups []uint32) *dbus.Error {
	o.log.Debug("Menu subscription ended", "groups", groups)
	return nil
}

func menusIntrospection(obj *menusObject) introspect.Interface {
	return introspect.Interface{
		Name:    MenusInterface,
		Methods: introspect.Methods(obj),
		Signals: []introspect.Signal{{
			Name: "Changed",
			Args: []introspect.Arg{{Name: "changes", Type: "a(uuuuaa{sv})"}},
		}},
	}
}

func toWireChanges(changes []bus.MenuChange) ([]wireChange, error) {
	out := make([]wireChange, 0, len(changes))
	for _, change := range changes {
		added, err := toWireItems(change.Added)
		if err != nil {
			return nil, err
		}
		out = append(out, wireChange{
			Group:    change.Group,
			Menu:     change.Menu,
			Position: change.Position,
			Removed:  change.Removed,
			Added:    added,
		})
	}
	return out, nil
}

// actionsObject serves org.gtk.Actions for one group.
type actionsObject struct {
	group bus.ActionGroup
	log   *slog.Logger
}

func (o *actionsObject) List() ([]string, *dbus.Error) {
	ctx, cancel := callContext()
	defer cancel()

	names, err := o.group.List(ctx)
	if err != nil {
		return nil, dbusError(err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (o *actionsObject) Describe(name string) (wireDescription, *dbus.Error) {
	ctx, cancel := callContext()
	defer cancel()

	desc, err := o.group.Describe(ctx, name)
	if err != nil {
		return wireDescription{}, dbusError(err)
	}
	wire, err := toWireDescription(desc)
	if err != nil {
		return wireDescription{}, dbusError(err)
	}
	return wire, nil
}

func (o *actionsObject) DescribeAll() (map[string]wireDescription, *dbus.Error) {
	ctx, cancel := callContext()
	defer cancel()

	all, err := o.group.DescribeAll(ctx)
	if err != nil {
		return nil, dbusError(err)
	}

	out := make(map[string]wireDescription, len(all))
	for name, desc := range all {
		wire, err := toWireDescription(desc)
		if err != nil {
			return nil, dbusError(fmt.Errorf("%s: %w", name, err))
		}
		out[name] = wire
	}
	return out, nil
}

// Activate takes the optional parameter as an array of zero or one variants.
func (o *actionsObject) Activate(name string, parameter []dbus.Variant, platformData map[string]dbus.Variant) *dbus.Error {
	ctx, cancel := callContext()
	defer cancel()

	var param *variant.Value
	if len(parameter) > 0 {
		value, err := fromDBus(parameter[0])
		if err != nil {
			return dbusError(err)
		}
		param = &value
	}

	o.log.Debug("Remote activation", "action", name, "platform_data", len(platformData))
	if err := o.group.Activate(ctx, name, param); err != nil {
		return dbusError(err)
	}
	return nil
}

func (o *actionsObject) SetState(name string, value dbus.Variant, platformData map[string]dbus.Variant) *dbus.Error {
	ctx, cancel := callContext()
	defer cancel()

	state, err := fromDBus(value)
	if err != nil {
		return dbusError(err)
	}

	o.log.Debug("Remote state change", "action", name, "platform_data", len(platformData))
	if err := o.group.SetState(ctx, name, state); err != nil {
		return dbusError(err)
	}
	return nil
}

func actionsIntrospection(obj *actionsObject) introspect.Interface {
	return introspect.Interface{
		Name:    ActionsInterface,
		Methods: introspect.Methods(obj),
		Signals: []introspect.Signal{{
			Name: "Changed",
			Args: []introspect.Arg{
				{Name: "removals", Type: "as"},
				{Name: "enable_changes", Type: "a{sb}"},
				{Name: "state_changes", Type: "a{sv}"},
				{Name: "additions", Type: "a{s(bgav)}"},
			},
		}},
	}
}

func toWireActionChange(change bus.ActionChange) ([]string, map[string]bool, map[string]dbus.Variant, map[string]wireDescription, error) {
	removed := change.Removed
	if removed == nil {
		removed = []string{}
	}
	enabled := change.EnabledChanged
	if enabled == nil {
		enabled = map[string]bool{}
	}

	state, err := toVariantMap(change.StateChanged)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	added := make(map[string]wireDescription, len(change.Added))
	for name, desc := range change.Added {
		wire, err := toWireDescription(desc)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		added[name] = wire
	}
	return removed, enabled, state, added, nil
}
