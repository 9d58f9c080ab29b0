package walker

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"menuscript/pkg/bus"
	"menuscript/pkg/errs"
	"menuscript/pkg/menu"
	"menuscript/pkg/session"
	"menuscript/pkg/variant"
)

type fakeDriver struct {
	labels      []string
	published   bool
	activations []string
}

func (d *fakeDriver) Publish(context.Context) error {
	d.published = true
	return nil
}

func (d *fakeDriver) Unpublish(context.Context) error {
	d.published = false
	return nil
}

func (d *fakeDriver) Walk(_ context.Context, steps int) (int, error) {
	if !d.published {
		return 0, errs.New(errs.InvalidState, "menu is not published")
	}
	for range steps {
		d.labels = append(d.labels, "Menu"+string(rune('0'+len(d.labels))))
	}
	return steps, nil
}

func (d *fakeDriver) PopActivatedAction(context.Context) (string, error) {
	if len(d.activations) == 0 {
		return "", errs.New(errs.Empty, "no activated actions")
	}
	name := d.activations[0]
	d.activations = d.activations[1:]
	return name, nil
}

func (d *fakeDriver) Snapshot(context.Context) (menu.Snapshot, error) {
	snap := menu.Snapshot{Kind: menu.KindRoot}
	for i, label := range d.labels {
		snap.Children = append(snap.Children, menu.Snapshot{ID: menu.NodeID(i + 1), Label: label})
	}
	return snap, nil
}

func (d *fakeDriver) Status(context.Context) (session.Status, error) {
	state := session.StateUnpublished
	if d.published {
		state = session.StatePublished
	}
	return session.Status{State: state, Nodes: len(d.labels) + 1}, nil
}

// press feeds a key and runs every command it produces until the model is
// idle, the way the runtime would.
func press(t *testing.T, m *model, keys string) {
	t.Helper()
	run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func run(t *testing.T, m *model, msg tea.Msg) {
	t.Helper()
	for i := 0; msg != nil; i++ {
		if i > 10 {
			t.Fatal("too many follow-up messages")
		}
		_, cmd := m.Update(msg)
		msg = nil
		if cmd != nil {
			msg = cmd()
		}
	}
}

func TestStepAppliesOneOperationAndRefreshes(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	m := newModel(context.Background(), driver, nil)

	press(t, m, "n")
	if !strings.Contains(m.lastErr, errs.InvalidState) {
		t.Fatalf("lastErr = %q, want invalid state before publish", m.lastErr)
	}

	press(t, m, "p")
	if m.status.State != session.StatePublished {
		t.Fatalf("state = %q, want published", m.status.State)
	}
	if m.lastErr != "" {
		t.Fatalf("lastErr = %q, want cleared", m.lastErr)
	}

	press(t, m, "n")
	if m.notice != "applied 1 operation(s)" {
		t.Fatalf("notice = %q, want applied 1", m.notice)
	}
	if len(m.snap.Children) != 1 || m.snap.Children[0].Label != "Menu0" {
		t.Fatalf("snapshot = %+v, want Menu0", m.snap)
	}
	if !strings.Contains(m.viewport.View(), "0 Menu0") {
		t.Fatalf("viewport missing Menu0:\n%s", m.viewport.View())
	}
}

func TestPopShowsActivation(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{activations: []string{"Menu0Act"}}
	m := newModel(context.Background(), driver, nil)

	press(t, m, "r")
	if m.notice != "activated: Menu0Act" {
		t.Fatalf("notice = %q, want activated: Menu0Act", m.notice)
	}

	press(t, m, "r")
	if !strings.Contains(m.lastErr, errs.Empty) {
		t.Fatalf("lastErr = %q, want empty", m.lastErr)
	}
}

func TestBusEventsAreRecorded(t *testing.T) {
	t.Parallel()

	events := make(chan bus.Event, 1)
	m := newModel(context.Background(), &fakeDriver{}, events)

	_, cmd := m.Update(busEventMsg{event: bus.Event{
		Type: bus.EventMenuChanged,
		At:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		MenuChanges: []bus.MenuChange{
			{MenuRef: bus.MenuRef{Menu: 0}, Position: 1, Removed: 1},
		},
	}})
	if cmd == nil {
		t.Fatal("expected refresh and next-event commands")
	}
	if len(m.activity) != 1 || m.activity[0] != "12:00:00.000 menu_changed menu 0/0 @1 -1 +0" {
		t.Fatalf("activity = %q", m.activity)
	}

	close(events)
	if msg := m.waitEventCmd()(); msg != (eventsClosedMsg{}) {
		t.Fatalf("msg = %#v, want eventsClosedMsg", msg)
	}
	m.Update(eventsClosedMsg{})
	if m.waitEventCmd() != nil {
		t.Fatal("expected no wait command once events are closed")
	}
}

func TestDescribeActionChange(t *testing.T) {
	t.Parallel()

	got := describeActionChange(&bus.ActionChange{
		Removed:      []string{"gone"},
		StateChanged: map[string]variant.Value{"toggle": variant.NewBool(true)},
		Added:        map[string]bus.ActionDescription{"b": {}, "a": {}},
	})
	if want := "+a +b -gone toggle=true"; got != want {
		t.Fatalf("describeActionChange() = %q, want %q", got, want)
	}
}

func TestQuitKey(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), &fakeDriver{}, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestAttributesToggle(t *testing.T) {
	t.Parallel()

	m := newModel(context.Background(), &fakeDriver{}, nil)
	m.snap = menu.Snapshot{Kind: menu.KindRoot, Children: []menu.Snapshot{
		{Label: "Menu0", Attributes: map[string]variant.Value{"x-flag": variant.NewBool(true)}},
	}}
	m.refreshViewport()
	if strings.Contains(m.viewport.View(), "x-flag") {
		t.Fatal("attributes shown before toggle")
	}

	press(t, m, "t")
	if !strings.Contains(m.viewport.View(), "x-flag=true") {
		t.Fatalf("attributes missing after toggle:\n%s", m.viewport.View())
	}
}
