package dbusconn

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/godbus/dbus/v5"

	"menuscript/pkg/bus"
	"menuscript/pkg/control"
	"menuscript/pkg/menu"
	"menuscript/pkg/variant"
)

// Inspection is what a remote menu model and action group exported at one
// object path look like from the outside.
type Inspection struct {
	Service string                           `json:"service"`
	Path    string                           `json:"path"`
	Menus   []bus.Menu                       `json:"menus"`
	Actions map[string]bus.ActionDescription `json:"actions"`
}

// Inspect fetches every menu reachable from group 0 of the model at path,
// subscribing to each group it discovers through links, then reads the
// action group at the same path.
func (c *Conn) Inspect(ctx context.Context, service, path string) (Inspection, error) {
	objectPath, err := validPath(path)
	if err != nil {
		return Inspection{}, err
	}
	obj := c.conn.Object(service, objectPath)

	menus, groups, err := startGroups(ctx, obj)
	if len(groups) > 0 {
		if endErr := obj.CallWithContext(ctx, MenusInterface+".End", 0, groups).Err; endErr != nil {
			c.log.Debug("End failed", "service", service, "path", path, "error", endErr)
		}
	}
	if err != nil {
		return Inspection{}, err
	}

	var all map[string]wireDescription
	if err := obj.CallWithContext(ctx, ActionsInterface+".DescribeAll", 0).Store(&all); err != nil {
		return Inspection{}, fmt.Errorf("describe actions at %s: %w", path, fromDBusError(err))
	}
	actions := make(map[string]bus.ActionDescription, len(all))
	for name, wire := range all {
		desc, err := fromWireDescription(wire)
		if err != nil {
			return Inspection{}, fmt.Errorf("action %s: %w", name, err)
		}
		actions[name] = desc
	}

	return Inspection{Service: service, Path: path, Menus: menus, Actions: actions}, nil
}

func startGroups(ctx context.Context, obj dbus.BusObject) ([]bus.Menu, []uint32, error) {
	var (
		menus     []bus.Menu
		requested []uint32
		queue     = []uint32{0}
	)
	for len(queue) > 0 {
		batch := queue
		queue = nil
		requested = append(requested, batch...)

		var wire []wireMenu
		if err := obj.CallWithContext(ctx, MenusInterface+".Start", 0, batch).Store(&wire); err != nil {
			return menus, requested, fmt.Errorf("start groups %v: %w", batch, fromDBusError(err))
		}
		for _, wm := range wire {
			m := bus.Menu{MenuRef: bus.MenuRef{Group: wm.Group, Menu: wm.Menu}}
			for i, raw := range wm.Items {
				item, err := fromWireItem(raw)
				if err != nil {
					return menus, requested, fmt.Errorf("menu %d/%d item %d: %w", wm.Group, wm.Menu, i, err)
				}
				for _, ref := range item.Links {
					if !slices.Contains(requested, ref.Group) && !slices.Contains(queue, ref.Group) {
						queue = append(queue, ref.Group)
					}
				}
				m.Items = append(m.Items, item)
			}
			menus = append(menus, m)
		}
	}
	return menus, requested, nil
}

// Snapshot rebuilds the menu tree rooted at menu 0/0. Links that point at
// missing menus or back up the tree are left empty.
func (in Inspection) Snapshot() menu.Snapshot {
	byRef := make(map[bus.MenuRef]bus.Menu, len(in.Menus))
	for _, m := range in.Menus {
		byRef[m.MenuRef] = m
	}

	var next menu.NodeID
	var build func(ref bus.MenuRef, seen map[bus.MenuRef]bool) []menu.Snapshot
	build = func(ref bus.MenuRef, seen map[bus.MenuRef]bool) []menu.Snapshot {
		m, ok := byRef[ref]
		if !ok || seen[ref] {
			return nil
		}
		seen = maps.Clone(seen)
		seen[ref] = true

		children := make([]menu.Snapshot, 0, len(m.Items))
		for _, item := range m.Items {
			next++
			child := menu.Snapshot{
				ID:         next,
				Kind:       menu.KindItem,
				Label:      item.Label(),
				Action:     item.Attributes[bus.AttributeAction].Str(),
				Attributes: extraAttributes(item.Attributes),
			}
			if link, ok := item.Links[bus.LinkSection]; ok {
				child.Kind = menu.KindSection
				child.Children = build(link, seen)
			} else if link, ok := item.Links[bus.LinkSubmenu]; ok {
				child.Kind = menu.KindSubmenu
				child.Children = build(link, seen)
			}
			children = append(children, child)
		}
		return children
	}

	return menu.Snapshot{
		ID:       menu.RootID,
		Kind:     menu.KindRoot,
		Children: build(bus.MenuRef{}, map[bus.MenuRef]bool{}),
	}
}

func extraAttributes(attrs map[string]variant.Value) map[string]variant.Value {
	out := make(map[string]variant.Value, len(attrs))
	for name, value := range attrs {
		if name != bus.AttributeLabel && name != bus.AttributeAction {
			out[name] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// RemoteControl calls the control interface of a fixture running elsewhere.
type RemoteControl struct {
	obj dbus.BusObject
}

func (c *Conn) RemoteControl(service string) *RemoteControl {
	return &RemoteControl{obj: c.conn.Object(service, dbus.ObjectPath(control.DefaultPath))}
}

func (r *RemoteControl) call(ctx context.Context, method string, args ...any) *dbus.Call {
	return r.obj.CallWithContext(ctx, control.DefaultInterface+"."+method, 0, args...)
}

func (r *RemoteControl) PublishMenu(ctx context.Context) error {
	return fromDBusError(r.call(ctx, control.MethodPublishMenu).Err)
}

func (r *RemoteControl) UnpublishMenu(ctx context.Context) error {
	return fromDBusError(r.call(ctx, control.MethodUnpublishMenu).Err)
}

func (r *RemoteControl) Quit(ctx context.Context) error {
	return fromDBusError(r.call(ctx, control.MethodQuit).Err)
}

func (r *RemoteControl) Walk(ctx context.Context, steps int32) error {
	return fromDBusError(r.call(ctx, control.MethodWalk, steps).Err)
}

func (r *RemoteControl) PopActivatedAction(ctx context.Context) (string, error) {
	var name string
	if err := r.call(ctx, control.MethodPopActivatedAction).Store(&name); err != nil {
		return "", fromDBusError(err)
	}
	return name, nil
}
