package dbusconn

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/godbus/dbus/v5"

	"menuscript/pkg/bus"
	"menuscript/pkg/errs"
	"menuscript/pkg/variant"
)

// native converts a Value into the Go type godbus marshals with the same
// signature. Tuples become anonymous structs with one exported field per
// member.
func native(v variant.Value) (any, error) {
	switch v.Kind() {
	case variant.Tuple:
		items := v.Items()
		if len(items) == 0 {
			return nil, errs.New(errs.TypeMismatch, "empty tuples cannot be sent on the bus")
		}
		fields := make([]reflect.StructField, len(items))
		values := make([]reflect.Value, len(items))
		for i, item := range items {
			member, err := native(item)
			if err != nil {
				return nil, err
			}
			values[i] = reflect.ValueOf(member)
			fields[i] = reflect.StructField{Name: fmt.Sprintf("F%d", i), Type: values[i].Type()}
		}
		tuple := reflect.New(reflect.StructOf(fields)).Elem()
		for i, value := range values {
			tuple.Field(i).Set(value)
		}
		return tuple.Interface(), nil
	case variant.Dict:
		return toVariantMap(v.Entries())
	case variant.Invalid:
		return nil, errs.New(errs.TypeMismatch, "invalid value")
	default:
		return v.Interface(), nil
	}
}

// toDBus wraps a Value in a bus variant.
func toDBus(v variant.Value) (dbus.Variant, error) {
	value, err := native(v)
	if err != nil {
		return dbus.Variant{}, err
	}
	return dbus.MakeVariant(value), nil
}

func toVariantMap(entries map[string]variant.Value) (map[string]dbus.Variant, error) {
	out := make(map[string]dbus.Variant, len(entries))
	for key, value := range entries {
		wrapped, err := toDBus(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = wrapped
	}
	return out, nil
}

// fromDBus converts a received variant. Structs arrive as []interface{}.
func fromDBus(v dbus.Variant) (variant.Value, error) {
	return fromNative(v.Value())
}

func fromNative(raw any) (variant.Value, error) {
	switch typed := raw.(type) {
	case bool:
		return variant.NewBool(typed), nil
	case byte:
		return variant.NewByte(typed), nil
	case int16:
		return variant.NewInt16(typed), nil
	case uint16:
		return variant.NewUint16(typed), nil
	case int32:
		return variant.NewInt32(typed), nil
	case uint32:
		return variant.NewUint32(typed), nil
	case int64:
		return variant.NewInt64(typed), nil
	case uint64:
		return variant.NewUint64(typed), nil
	case float64:
		return variant.NewDouble(typed), nil
	case string:
		return variant.NewString(typed), nil
	case dbus.ObjectPath:
		return variant.NewString(string(typed)), nil
	case dbus.Variant:
		return fromDBus(typed)
	case []any:
		items := make([]variant.Value, len(typed))
		for i, item := range typed {
			value, err := fromNative(item)
			if err != nil {
				return variant.Value{}, fmt.Errorf("tuple member %d: %w", i, err)
			}
			items[i] = value
		}
		return variant.NewTuple(items...), nil
	case map[string]dbus.Variant:
		entries := make(map[string]variant.Value, len(typed))
		for key, item := range typed {
			value, err := fromDBus(item)
			if err != nil {
				return variant.Value{}, fmt.Errorf("%s: %w", key, err)
			}
			entries[key] = value
		}
		return variant.NewDict(entries), nil
	default:
		return variant.Value{}, errs.Newf(errs.TypeMismatch, "unsupported bus value of type %T", raw)
	}
}

// wireLink is the (uu) value of a :section or :submenu link.
type wireLink struct {
	Group uint32
	Menu  uint32
}

// wireMenu is one element of a(uuaa{sv}).
type wireMenu struct {
	Group uint32
	Menu  uint32
	Items []map[string]dbus.Variant
}

// wireChange is one element of a(uuuuaa{sv}).
type wireChange struct {
	Group    uint32
	Menu     uint32
	Position uint32
	Removed  uint32
	Added    []map[string]dbus.Variant
}

// wireDescription is (bgav).
type wireDescription struct {
	Enabled       bool
	ParameterType dbus.Signature
	State         []dbus.Variant
}

func toWireItem(item bus.Item) (map[string]dbus.Variant, error) {
	out, err := toVariantMap(item.Attributes)
	if err != nil {
		return nil, err
	}
	for name, ref := range item.Links {
		out[name] = dbus.MakeVariant(wireLink{Group: ref.Group, Menu: ref.Menu})
	}
	return out, nil
}

func toWireItems(items []bus.Item) ([]map[string]dbus.Variant, error) {
	out := make([]map[string]dbus.Variant, len(items))
	for i, item := range items {
		wire, err := toWireItem(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = wire
	}
	return out, nil
}

func fromWireItem(wire map[string]dbus.Variant) (bus.Item, error) {
	item := bus.Item{Attributes: make(map[string]variant.Value, len(wire))}
	for name, value := range wire {
		if !strings.HasPrefix(name, ":") {
			attr, err := fromDBus(value)
			if err != nil {
				return bus.Item{}, fmt.Errorf("attribute %s: %w", name, err)
			}
			item.Attributes[name] = attr
			continue
		}

		ref, err := fromWireLink(value)
		if err != nil {
			return bus.Item{}, fmt.Errorf("link %s: %w", name, err)
		}
		if item.Links == nil {
			item.Links = make(map[string]bus.MenuRef)
		}
		item.Links[name] = ref
	}
	return item, nil
}

func fromWireLink(value dbus.Variant) (bus.MenuRef, error) {
	fields, ok := value.Value().([]any)
	if !ok || len(fields) != 2 {
		return bus.MenuRef{}, errs.Newf(errs.TypeMismatch, "link has signature %s, want (uu)", value.Signature())
	}
	group, okGroup := fields[0].(uint32)
	menu, okMenu := fields[1].(uint32)
	if !okGroup || !okMenu {
		return bus.MenuRef{}, errs.Newf(errs.TypeMismatch, "link has signature %s, want (uu)", value.Signature())
	}
	return bus.MenuRef{Group: group, Menu: menu}, nil
}

func toWireDescription(desc bus.ActionDescription) (wireDescription, error) {
	wire := wireDescription{Enabled: desc.Enabled, State: []dbus.Variant{}}
	if desc.ParameterType != "" {
		sig, err := dbus.ParseSignature(desc.ParameterType)
		if err != nil {
			return wireDescription{}, errs.Newf(errs.TypeMismatch, "parameter type %q: %v", desc.ParameterType, err)
		}
		wire.ParameterType = sig
	}
	if desc.State != nil {
		state, err := toDBus(*desc.State)
		if err != nil {
			return wireDescription{}, err
		}
		wire.State = []dbus.Variant{state}
	}
	return wire, nil
}

func fromWireDescription(wire wireDescription) (bus.ActionDescription, error) {
	desc := bus.ActionDescription{Enabled: wire.Enabled, ParameterType: wire.ParameterType.String()}
	if len(wire.State) > 0 {
		state, err := fromDBus(wire.State[0])
		if err != nil {
			return bus.ActionDescription{}, fmt.Errorf("state: %w", err)
		}
		desc.State = &state
	}
	return desc, nil
}
