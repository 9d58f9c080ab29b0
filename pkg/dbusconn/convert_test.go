package dbusconn

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"

	"menuscript/pkg/bus"
	"menuscript/pkg/errs"
	"menuscript/pkg/menu"
	"menuscript/pkg/variant"
)

func TestToDBusKeepsSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value variant.Value
		want  string
	}{
		{name: "bool", value: variant.NewBool(true), want: "b"},
		{name: "byte", value: variant.NewByte(42), want: "y"},
		{name: "int16", value: variant.NewInt16(-42), want: "n"},
		{name: "uint16", value: variant.NewUint16(42), want: "q"},
		{name: "int32", value: variant.NewInt32(-42), want: "i"},
		{name: "uint32", value: variant.NewUint32(42), want: "u"},
		{name: "int64", value: variant.NewInt64(-42), want: "x"},
		{name: "uint64", value: variant.NewUint64(42), want: "t"},
		{name: "double", value: variant.NewDouble(4.2), want: "d"},
		{name: "string", value: variant.NewString("42"), want: "s"},
		{name: "tuple", value: variant.NewTuple(variant.NewInt32(1), variant.NewString("a")), want: "(is)"},
		{name: "dict", value: variant.NewDict(map[string]variant.Value{"a": variant.NewInt32(1)}), want: "a{sv}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := toDBus(tt.value)
			if err != nil {
				t.Fatalf("toDBus() error = %v", err)
			}
			if sig := got.Signature().String(); sig != tt.want {
				t.Fatalf("signature = %q, want %q", sig, tt.want)
			}
		})
	}
}

func TestEmptyTupleIsRejected(t *testing.T) {
	t.Parallel()

	_, err := toDBus(variant.NewTuple())
	if !errors.Is(err, errs.ErrTypeMismatch) {
		t.Fatalf("toDBus() error = %v, want type mismatch", err)
	}
}

func TestFromNativeDecodesStructsAsTuples(t *testing.T) {
	t.Parallel()

	got, err := fromNative([]any{int32(7), "seven", dbus.MakeVariant(uint16(3))})
	if err != nil {
		t.Fatalf("fromNative() error = %v", err)
	}
	want := variant.NewTuple(variant.NewInt32(7), variant.NewString("seven"), variant.NewUint16(3))
	if !got.Equal(want) {
		t.Fatalf("fromNative() = %v, want %v", got, want)
	}

	if _, err := fromNative(struct{}{}); !errors.Is(err, errs.ErrTypeMismatch) {
		t.Fatalf("fromNative(struct) error = %v, want type mismatch", err)
	}
}

func TestWireItemCarriesLinks(t *testing.T) {
	t.Parallel()

	item := bus.Item{
		Attributes: map[string]variant.Value{
			bus.AttributeLabel: variant.NewString("Menu2"),
			"x-int16":          variant.NewInt16(-42),
		},
		Links: map[string]bus.MenuRef{bus.LinkSection: {Group: 0, Menu: 3}},
	}

	wire, err := toWireItem(item)
	if err != nil {
		t.Fatalf("toWireItem() error = %v", err)
	}
	if sig := wire[bus.LinkSection].Signature().String(); sig != "(uu)" {
		t.Fatalf("link signature = %q, want (uu)", sig)
	}

	// A received struct arrives as a slice of its members.
	wire[bus.LinkSection] = dbus.MakeVariant([]any{uint32(0), uint32(3)})
	back, err := fromWireItem(wire)
	if err != nil {
		t.Fatalf("fromWireItem() error = %v", err)
	}
	if back.Label() != "Menu2" {
		t.Fatalf("label = %q, want Menu2", back.Label())
	}
	if !back.Attributes["x-int16"].Equal(variant.NewInt16(-42)) {
		t.Fatalf("x-int16 = %v, want -42", back.Attributes["x-int16"])
	}
	if diff := cmp.Diff(item.Links, back.Links); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestFromWireLinkRejectsOtherShapes(t *testing.T) {
	t.Parallel()

	if _, err := fromWireLink(dbus.MakeVariant("0/3")); !errors.Is(err, errs.ErrTypeMismatch) {
		t.Fatalf("fromWireLink() error = %v, want type mismatch", err)
	}
}

func TestWireDescription(t *testing.T) {
	t.Parallel()

	state := variant.NewString("1")
	wire, err := toWireDescription(bus.ActionDescription{Enabled: true, ParameterType: "s", State: &state})
	if err != nil {
		t.Fatalf("toWireDescription() error = %v", err)
	}
	if wire.ParameterType.String() != "s" || len(wire.State) != 1 {
		t.Fatalf("wire = %+v, want parameter s and one state", wire)
	}

	back, err := fromWireDescription(wire)
	if err != nil {
		t.Fatalf("fromWireDescription() error = %v", err)
	}
	if !back.Enabled || back.ParameterType != "s" || back.State == nil || !back.State.Equal(state) {
		t.Fatalf("description = %+v, want enabled string state", back)
	}

	stateless, err := toWireDescription(bus.ActionDescription{Enabled: true})
	if err != nil {
		t.Fatalf("toWireDescription(stateless) error = %v", err)
	}
	if stateless.State == nil || len(stateless.State) != 0 {
		t.Fatalf("stateless state = %v, want empty array", stateless.State)
	}
}

func TestActionChangeNeverSendsNilContainers(t *testing.T) {
	t.Parallel()

	removed, enabled, state, added, err := toWireActionChange(bus.ActionChange{})
	if err != nil {
		t.Fatalf("toWireActionChange() error = %v", err)
	}
	if removed == nil || enabled == nil || state == nil || added == nil {
		t.Fatal("expected empty, non-nil containers")
	}
}

func TestDBusErrorNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{err: errs.New(errs.NotFound, "x"), want: ErrorPrefix + "NotFound"},
		{err: errs.New(errs.Empty, "x"), want: ErrorPrefix + "Empty"},
		{err: errs.New(errs.InvalidState, "x"), want: ErrorPrefix + "InvalidState"},
		{err: errs.New(errs.Unavailable, "x"), want: ErrorPrefix + "BusUnavailable"},
		{err: errors.New("boom"), want: "org.freedesktop.DBus.Error.Failed"},
	}

	for _, tt := range tests {
		got := dbusError(tt.err)
		if got.Name != tt.want {
			t.Fatalf("dbusError(%v).Name = %q, want %q", tt.err, got.Name, tt.want)
		}
	}

	if dbusError(nil) != nil {
		t.Fatal("dbusError(nil) should be nil")
	}
}

func TestFromDBusErrorRestoresCategory(t *testing.T) {
	t.Parallel()

	remote := dbusError(errs.New(errs.Empty, "no activated actions"))
	err := fromDBusError(*remote)
	if !errors.Is(err, errs.ErrEmpty) {
		t.Fatalf("fromDBusError() = %v, want empty category", err)
	}

	failed := dbusError(errors.New("boom"))
	if got := fromDBusError(failed); errs.CategoryOf(got) != "" {
		t.Fatalf("category = %q, want none", errs.CategoryOf(got))
	}
}

func TestInspectionSnapshot(t *testing.T) {
	t.Parallel()

	in := Inspection{Menus: []bus.Menu{
		{MenuRef: bus.MenuRef{Menu: 0}, Items: []bus.Item{
			{Attributes: map[string]variant.Value{bus.AttributeLabel: variant.NewString("Menu0"), bus.AttributeAction: variant.NewString("Menu0Act")}},
			{
				Attributes: map[string]variant.Value{bus.AttributeLabel: variant.NewString("Menu1")},
				Links:      map[string]bus.MenuRef{bus.LinkSubmenu: {Menu: 2}},
			},
		}},
		{MenuRef: bus.MenuRef{Menu: 2}, Items: []bus.Item{
			{Attributes: map[string]variant.Value{bus.AttributeLabel: variant.NewString("Menu1.1"), "x-flag": variant.NewBool(true)}},
		}},
	}}

	snap := in.Snapshot()
	if snap.Count() != 4 {
		t.Fatalf("Count() = %d, want 4", snap.Count())
	}
	first, _ := snap.Find(0)
	if first.Label != "Menu0" || first.Action != "Menu0Act" || first.Attributes != nil {
		t.Fatalf("first = %+v, want Menu0/Menu0Act without extras", first)
	}
	sub, _ := snap.Find(1)
	if sub.Kind != menu.KindSubmenu {
		t.Fatalf("kind = %v, want submenu", sub.Kind)
	}
	leaf, ok := snap.Find(1, 0)
	if !ok || leaf.Label != "Menu1.1" || !leaf.Attributes["x-flag"].Bool() {
		t.Fatalf("leaf = %+v, want Menu1.1 with x-flag", leaf)
	}
}

func TestInspectionSnapshotStopsAtCycles(t *testing.T) {
	t.Parallel()

	in := Inspection{Menus: []bus.Menu{
		{MenuRef: bus.MenuRef{Menu: 0}, Items: []bus.Item{
			{Links: map[string]bus.MenuRef{bus.LinkSection: {Menu: 0}}},
		}},
	}}

	if got := in.Snapshot().Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
}
