package dbusconn

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"menuscript/pkg/control"
	"menuscript/pkg/errs"
)

// controlObject adapts a control.Surface to exported D-Bus methods.
type controlObject struct {
	surface *control.Surface
}

func (o *controlObject) PublishMenu() *dbus.Error {
	return dbusError(o.surface.PublishMenu(context.Background()))
}

func (o *controlObject) UnpublishMenu() *dbus.Error {
	return dbusError(o.surface.UnpublishMenu(context.Background()))
}

func (o *controlObject) Quit() *dbus.Error {
	return dbusError(o.surface.Quit(context.Background()))
}

func (o *controlObject) Walk(steps int32) *dbus.Error {
	return dbusError(o.surface.Walk(context.Background(), steps))
}

func (o *controlObject) PopActivatedAction() (string, *dbus.Error) {
	name, err := o.surface.PopActivatedAction(context.Background())
	return name, dbusError(err)
}

var controlMethods = map[string]string{
	"PublishMenu":        control.MethodPublishMenu,
	"UnpublishMenu":      control.MethodUnpublishMenu,
	"Quit":               control.MethodQuit,
	"Walk":               control.MethodWalk,
	"PopActivatedAction": control.MethodPopActivatedAction,
}

func controlIntrospection() introspect.Interface {
	return introspect.Interface{
		Name: control.DefaultInterface,
		Methods: []introspect.Method{
			{Name: control.MethodPublishMenu},
			{Name: control.MethodUnpublishMenu},
			{Name: control.MethodQuit},
			{Name: control.MethodWalk, Args: []introspect.Arg{{Name: "steps", Type: "i", Direction: "in"}}},
			{Name: control.MethodPopActivatedAction, Args: []introspect.Arg{{Name: "action", Type: "s", Direction: "out"}}},
		},
	}
}

// ServeControl exports surface at control.DefaultPath and claims service.
// The returned function withdraws both.
func (c *Conn) ServeControl(surface *control.Surface, service string) (func() error, error) {
	path := dbus.ObjectPath(control.DefaultPath)
	obj := &controlObject{surface: surface}

	c.mu.Lock()
	if _, taken := c.interfaces[path][control.DefaultInterface]; taken {
		c.mu.Unlock()
		return nil, errs.Newf(errs.DuplicateName, "control surface already exported at %s", path)
	}
	if err := c.conn.ExportWithMap(obj, controlMethods, path, control.DefaultInterface); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("export control surface: %w", err)
	}
	if c.interfaces[path] == nil {
		c.interfaces[path] = make(map[string]introspect.Interface)
	}
	c.interfaces[path][control.DefaultInterface] = controlIntrospection()
	if err := c.exportIntrospection(path); err != nil {
		c.log.Warn("Failed to update introspection data", "path", path, "error", err)
	}
	c.mu.Unlock()

	withdraw := func() error {
		c.mu.Lock()
		delete(c.interfaces[path], control.DefaultInterface)
		err := c.conn.Export(nil, path, control.DefaultInterface)
		if introspectErr := c.exportIntrospection(path); introspectErr != nil {
			c.log.Warn("Failed to update introspection data", "path", path, "error", introspectErr)
		}
		c.mu.Unlock()
		return err
	}

	h, err := c.OwnName(service)
	if err != nil {
		_ = withdraw()
		return nil, err
	}

	c.log.Info("Control surface ready", "service", service, "path", path)
	return func() error {
		releaseErr := c.ReleaseName(h)
		if err := withdraw(); err != nil {
			return fmt.Errorf("withdraw control surface: %w", err)
		}
		return releaseErr
	}, nil
}
