package dbusconn

import (
	"github.com/godbus/dbus/v5"

	"menuscript/pkg/errs"
)

// ErrorPrefix namespaces the error names returned to remote callers.
const ErrorPrefix = "com.canonical.test.menuscript.Error."

const failedError = "org.freedesktop.DBus.Error.Failed"

var errorNames = map[string]string{
	errs.NotFound:      "NotFound",
	errs.DuplicateName: "DuplicateName",
	errs.Empty:         "Empty",
	errs.InvalidPath:   "InvalidPath",
	errs.InvalidState:  "InvalidState",
	errs.TypeMismatch:  "TypeMismatch",
	errs.Unavailable:   "BusUnavailable",
}

// dbusError maps a categorized error to a named bus error. Uncategorized
// errors become org.freedesktop.DBus.Error.Failed.
func dbusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	name := failedError
	if suffix, ok := errorNames[errs.CategoryOf(err)]; ok {
		name = ErrorPrefix + suffix
	}
	return dbus.NewError(name, []any{err.Error()})
}

// categoryOf is the reverse of dbusError for errors received by the client.
func categoryOf(name string) string {
	for category, suffix := range errorNames {
		if name == ErrorPrefix+suffix {
			return category
		}
	}
	return ""
}

// fromDBusError rewraps a remote error so errs.CategoryOf sees its category.
func fromDBusError(err error) error {
	remote, ok := err.(dbus.Error)
	if !ok {
		if ptr, isPtr := err.(*dbus.Error); isPtr && ptr != nil {
			remote, ok = *ptr, true
		}
	}
	if !ok {
		return err
	}

	detail := remote.Name
	if len(remote.Body) > 0 {
		if msg, isString := remote.Body[0].(string); isString {
			detail = msg
		}
	}
	if category := categoryOf(remote.Name); category != "" {
		return errs.New(category, detail)
	}
	return err
}
