// Package dbusconn implements bus.Connection on a D-Bus connection, exporting
// menus on org.gtk.Menus and actions on org.gtk.Actions so GLib and Qt clients
// can observe them. It also exports the control surface and reads menus back
// for inspection.
package dbusconn

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/google/uuid"

	"menuscript/pkg/bus"
	"menuscript/pkg/errs"
)

const (
	MenusInterface   = "org.gtk.Menus"
	ActionsInterface = "org.gtk.Actions"

	introspectInterface = "org.freedesktop.DBus.Introspectable"
	defaultCallTimeout  = 10 * time.Second
)

type exportedObject struct {
	path        dbus.ObjectPath
	iface       string
	unsubscribe func()
}

// Conn is a bus.Connection backed by a D-Bus connection.
type Conn struct {
	conn *dbus.Conn
	log  *slog.Logger

	mu         sync.Mutex
	names      map[bus.Handle]string
	objects    map[bus.Handle]*exportedObject
	interfaces map[dbus.ObjectPath]map[string]introspect.Interface
}

var _ bus.Connection = (*Conn)(nil)

// ConnectSession opens a private connection to the session bus.
func ConnectSession(log *slog.Logger) (*Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errs.Newf(errs.Unavailable, "connect to session bus: %v", err)
	}
	return New(conn, log), nil
}

func New(conn *dbus.Conn, log *slog.Logger) *Conn {
	if log == nil {
		log = slog.Default()
	}
	return &Conn{
		conn:       conn,
		log:        log.With("component", "dbusconn"),
		names:      make(map[bus.Handle]string),
		objects:    make(map[bus.Handle]*exportedObject),
		interfaces: make(map[dbus.ObjectPath]map[string]introspect.Interface),
	}
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

// OwnName requests name without queueing; anything but primary ownership is
// reported as unavailable.
func (c *Conn) OwnName(name string) (bus.Handle, error) {
	reply, err := c.conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return "", errs.Newf(errs.Unavailable, "request name %s: %v", name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return "", errs.Newf(errs.Unavailable, "name %s is already owned", name)
	}

	h := bus.Handle(uuid.NewString())
	c.mu.Lock()
	c.names[h] = name
	c.mu.Unlock()

	c.log.Debug("Name acquired", "name", name)
	return h, nil
}

func (c *Conn) ReleaseName(h bus.Handle) error {
	c.mu.Lock()
	name, ok := c.names[h]
	delete(c.names, h)
	c.mu.Unlock()
	if !ok {
		return errs.Newf(errs.NotFound, "no name owned by handle %s", h)
	}

	if _, err := c.conn.ReleaseName(name); err != nil {
		return fmt.Errorf("release name %s: %w", name, err)
	}
	c.log.Debug("Name released", "name", name)
	return nil
}

func (c *Conn) ExportMenu(path string, model bus.MenuModel) (bus.Handle, error) {
	objectPath, err := validPath(path)
	if err != nil {
		return "", err
	}

	obj := &menusObject{model: model, log: c.log}
	h, err := c.export(obj, objectPath, MenusInterface, menusIntrospection(obj))
	if err != nil {
		return "", err
	}

	unsubscribe := model.SubscribeMenus(func(changes []bus.MenuChange) {
		wire, err := toWireChanges(changes)
		if err != nil {
			c.log.Error("Failed to encode menu change", "path", path, "error", err)
			return
		}
		if err := c.conn.Emit(objectPath, MenusInterface+".Changed", wire); err != nil {
			c.log.Warn("Failed to emit menu change", "path", path, "error", err)
		}
	})
	c.setUnsubscribe(h, unsubscribe)
	return h, nil
}

func (c *Conn) UnexportMenu(h bus.Handle) error {
	return c.unexport(h, MenusInterface)
}

func (c *Conn) ExportActions(path string, group bus.ActionGroup) (bus.Handle, error) {
	objectPath, err := validPath(path)
	if err != nil {
		return "", err
	}

	obj := &actionsObject{group: group, log: c.log}
	h, err := c.export(obj, objectPath, ActionsInterface, actionsIntrospection(obj))
	if err != nil {
		return "", err
	}

	unsubscribe := group.SubscribeActions(func(change bus.ActionChange) {
		removed, enabled, state, added, err := toWireActionChange(change)
		if err != nil {
			c.log.Error("Failed to encode action change", "path", path, "error", err)
			return
		}
		if err := c.conn.Emit(objectPath, ActionsInterface+".Changed", removed, enabled, state, added); err != nil {
			c.log.Warn("Failed to emit action change", "path", path, "error", err)
		}
	})
	c.setUnsubscribe(h, unsubscribe)
	return h, nil
}

func (c *Conn) UnexportActions(h bus.Handle) error {
	return c.unexport(h, ActionsInterface)
}

func validPath(path string) (dbus.ObjectPath, error) {
	objectPath := dbus.ObjectPath(path)
	if !objectPath.IsValid() {
		return "", errs.Newf(errs.InvalidPath, "%q is not a valid object path", path)
	}
	return objectPath, nil
}

func (c *Conn) export(obj any, path dbus.ObjectPath, iface string, desc introspect.Interface) (bus.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, taken := c.interfaces[path][iface]; taken {
		return "", errs.Newf(errs.DuplicateName, "%s is already exported at %s", iface, path)
	}
	if err := c.conn.Export(obj, path, iface); err != nil {
		return "", fmt.Errorf("export %s at %s: %w", iface, path, err)
	}

	if c.interfaces[path] == nil {
		c.interfaces[path] = make(map[string]introspect.Interface)
	}
	c.interfaces[path][iface] = desc
	if err := c.exportIntrospection(path); err != nil {
		c.log.Warn("Failed to update introspection data", "path", path, "error", err)
	}

	h := bus.Handle(uuid.NewString())
	c.objects[h] = &exportedObject{path: path, iface: iface}
	return h, nil
}

func (c *Conn) setUnsubscribe(h bus.Handle, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if obj, ok := c.objects[h]; ok {
		obj.unsubscribe = fn
		return
	}
	if fn != nil {
		fn()
	}
}

func (c *Conn) unexport(h bus.Handle, iface string) error {
	c.mu.Lock()
	obj, ok := c.objects[h]
	if !ok || obj.iface != iface {
		c.mu.Unlock()
		return errs.Newf(errs.NotFound, "nothing exported under handle %s", h)
	}
	delete(c.objects, h)
	delete(c.interfaces[obj.path], iface)

	err := c.conn.Export(nil, obj.path, iface)
	if introspectErr := c.exportIntrospection(obj.path); introspectErr != nil {
		c.log.Warn("Failed to update introspection data", "path", obj.path, "error", introspectErr)
	}
	c.mu.Unlock()

	if obj.unsubscribe != nil {
		obj.unsubscribe()
	}
	if err != nil {
		return fmt.Errorf("unexport %s at %s: %w", iface, obj.path, err)
	}
	return nil
}

// exportIntrospection rewrites the Introspectable object at path from the
// interfaces currently exported there. Callers hold c.mu.
func (c *Conn) exportIntrospection(path dbus.ObjectPath) error {
	ifaces := c.interfaces[path]
	if len(ifaces) == 0 {
		delete(c.interfaces, path)
		return c.conn.Export(nil, path, introspectInterface)
	}

	node := introspectNode(path, ifaces)
	return c.conn.Export(introspect.NewIntrospectable(node), path, introspectInterface)
}

func introspectNode(path dbus.ObjectPath, ifaces map[string]introspect.Interface) *introspect.Node {
	node := &introspect.Node{
		Name:       string(path),
		Interfaces: []introspect.Interface{introspect.IntrospectData},
	}
	names := make([]string, 0, len(ifaces))
	for name := range ifaces {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		node.Interfaces = append(node.Interfaces, ifaces[name])
	}
	return node
}

func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultCallTimeout)
}
