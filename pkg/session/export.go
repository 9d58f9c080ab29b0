package session

import (
	"context"
	"maps"
	"slices"

	"menuscript/pkg/action"
	"menuscript/pkg/bus"
	"menuscript/pkg/errs"
	"menuscript/pkg/menu"
	"menuscript/pkg/variant"
)

// Every menu lives in group 0 and is numbered by its node ID, so the root is
// menu 0.
const menuGroup uint32 = 0

type menuModel struct {
	s *Session
}

var _ bus.MenuModel = menuModel{}

func (m menuModel) Start(ctx context.Context, groups []uint32) ([]bus.Menu, error) {
	var menus []bus.Menu
	err := m.s.do(ctx, func() error {
		if slices.Contains(groups, menuGroup) {
			menus = m.s.menus()
		}
		return nil
	})
	return menus, err
}

func (m menuModel) SubscribeMenus(fn func([]bus.MenuChange)) func() {
	m.s.subMu.Lock()
	defer m.s.subMu.Unlock()

	id := m.s.nextSubID
	m.s.nextSubID++
	m.s.menuSubs[id] = fn
	return func() {
		m.s.subMu.Lock()
		defer m.s.subMu.Unlock()
		delete(m.s.menuSubs, id)
	}
}

type actionGroup struct {
	s *Session
}

var _ bus.ActionGroup = actionGroup{}

func (g actionGroup) List(ctx context.Context) ([]string, error) {
	var names []string
	err := g.s.do(ctx, func() error {
		names = g.s.actions.Names()
		return nil
	})
	return names, err
}

func (g actionGroup) Describe(ctx context.Context, name string) (bus.ActionDescription, error) {
	var desc bus.ActionDescription
	err := g.s.do(ctx, func() error {
		a, ok := g.s.actions.Lookup(name)
		if !ok {
			return errs.Newf(errs.NotFound, "action %q is not registered", name)
		}
		desc = describe(a.Describe())
		return nil
	})
	return desc, err
}

func (g actionGroup) DescribeAll(ctx context.Context) (map[string]bus.ActionDescription, error) {
	var all map[string]bus.ActionDescription
	err := g.s.do(ctx, func() error {
		all = make(map[string]bus.ActionDescription, g.s.actions.Len())
		for name, desc := range g.s.actions.DescribeAll() {
			all[name] = describe(desc)
		}
		return nil
	})
	return all, err
}

func (g actionGroup) Activate(ctx context.Context, name string, parameter *variant.Value) error {
	return g.s.do(ctx, func() error {
		return g.s.actions.Activate(name, parameter)
	})
}

func (g actionGroup) SetState(ctx context.Context, name string, value variant.Value) error {
	return g.s.do(ctx, func() error {
		return g.s.actions.SetState(name, value)
	})
}

func (g actionGroup) SubscribeActions(fn func(bus.ActionChange)) func() {
	g.s.subMu.Lock()
	defer g.s.subMu.Unlock()

	id := g.s.nextSubID
	g.s.nextSubID++
	g.s.actionSubs[id] = fn
	return func() {
		g.s.subMu.Lock()
		defer g.s.subMu.Unlock()
		delete(g.s.actionSubs, id)
	}
}

func (s *Session) menus() []bus.Menu {
	containers := s.tree.Containers()
	menus := make([]bus.Menu, 0, len(containers))
	for _, id := range containers {
		node, _ := s.tree.Node(id)
		menus = append(menus, bus.Menu{
			MenuRef: bus.MenuRef{Group: menuGroup, Menu: uint32(id)},
			Items:   s.items(node.Children()),
		})
	}
	return menus
}

func (s *Session) items(ids []menu.NodeID) []bus.Item {
	items := make([]bus.Item, 0, len(ids))
	for _, id := range ids {
		node, ok := s.tree.Node(id)
		if !ok {
			continue
		}
		items = append(items, exportItem(node))
	}
	return items
}

func exportItem(node *menu.Node) bus.Item {
	attrs := make(map[string]variant.Value, len(node.Attributes)+2)
	maps.Copy(attrs, node.Attributes)
	if node.Label != "" {
		attrs[bus.AttributeLabel] = variant.NewString(node.Label)
	}
	if node.Action != "" {
		attrs[bus.AttributeAction] = variant.NewString(node.Action)
	}

	item := bus.Item{Attributes: attrs}
	ref := bus.MenuRef{Group: menuGroup, Menu: uint32(node.ID)}
	switch node.Kind {
	case menu.KindSection:
		item.Links = map[string]bus.MenuRef{bus.LinkSection: ref}
	case menu.KindSubmenu:
		item.Links = map[string]bus.MenuRef{bus.LinkSubmenu: ref}
	}
	return item
}

func describe(desc action.Description) bus.ActionDescription {
	return bus.ActionDescription{
		Enabled:       desc.Enabled,
		ParameterType: desc.ParameterType,
		State:         desc.State,
	}
}

func (s *Session) onMenuChange(change menu.Change) {
	out := bus.MenuChange{
		MenuRef:  bus.MenuRef{Group: menuGroup, Menu: uint32(change.Menu)},
		Position: uint32(change.Position),
		Removed:  uint32(change.Removed),
		Added:    s.items(change.Added),
	}

	s.subMu.Lock()
	subs := slices.Collect(maps.Values(s.menuSubs))
	s.subMu.Unlock()
	for _, fn := range subs {
		fn([]bus.MenuChange{out})
	}
}

func (s *Session) onActionChange(change action.Change) {
	out := bus.ActionChange{
		Removed:      change.Removed,
		StateChanged: change.StateChanged,
	}
	if len(change.Added) > 0 {
		out.Added = make(map[string]bus.ActionDescription, len(change.Added))
		for _, desc := range change.Added {
			out.Added[desc.Name] = describe(desc)
		}
	}

	s.subMu.Lock()
	subs := slices.Collect(maps.Values(s.actionSubs))
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(out)
	}
}
