package walker

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"menuscript/pkg/bus"
	"menuscript/pkg/menu"
	"menuscript/pkg/session"
	"menuscript/pkg/ui/render"
)

const (
	maxActivity     = 200
	visibleActivity = 6
)

// Driver is the session as the walker drives it.
type Driver interface {
	Publish(ctx context.Context) error
	Unpublish(ctx context.Context) error
	Walk(ctx context.Context, steps int) (int, error)
	PopActivatedAction(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (menu.Snapshot, error)
	Status(ctx context.Context) (session.Status, error)
}

type refreshedMsg struct {
	snap   menu.Snapshot
	status session.Status
	err    error
}

type resultMsg struct {
	notice string
	err    error
}

type busEventMsg struct {
	event bus.Event
}

type eventsClosedMsg struct{}

type model struct {
	ctx    context.Context
	driver Driver
	events <-chan bus.Event

	theme    theme
	styles   render.Styles
	keys     keyMap
	help     help.Model
	viewport viewport.Model

	snap       menu.Snapshot
	status     session.Status
	activity   []string
	notice     string
	lastErr    string
	attributes bool
	width      int
	height     int
}

func newModel(ctx context.Context, driver Driver, events <-chan bus.Event) *model {
	return &model{
		ctx:      ctx,
		driver:   driver,
		events:   events,
		theme:    defaultTheme(),
		styles:   render.DefaultStyles(),
		keys:     defaultKeys(),
		help:     help.New(),
		viewport: viewport.New(80, 12),
		width:    100,
		height:   30,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.waitEventCmd())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resize()
		m.refreshViewport()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(typed)
	case refreshedMsg:
		if typed.err != nil {
			m.lastErr = typed.err.Error()
			return m, nil
		}
		m.snap = typed.snap
		m.status = typed.status
		m.refreshViewport()
		return m, nil
	case resultMsg:
		if typed.err != nil {
			m.lastErr = typed.err.Error()
			m.notice = ""
			m.record("error: " + typed.err.Error())
		} else {
			m.lastErr = ""
			m.notice = typed.notice
			m.record(typed.notice)
		}
		return m, m.refreshCmd()
	case busEventMsg:
		m.record(describeEvent(typed.event))
		return m, tea.Batch(m.refreshCmd(), m.waitEventCmd())
	case eventsClosedMsg:
		m.events = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Step):
		return m.walkCmd(1)
	case key.Matches(msg, m.keys.WalkAll):
		return m.walkCmd(-1)
	case key.Matches(msg, m.keys.Publish):
		return m.actionCmd("published", m.driver.Publish)
	case key.Matches(msg, m.keys.Unpublish):
		return m.actionCmd("unpublished", m.driver.Unpublish)
	case key.Matches(msg, m.keys.Pop):
		return m.popCmd()
	case key.Matches(msg, m.keys.Attrs):
		m.attributes = !m.attributes
		m.refreshViewport()
		return nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
		return nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
		return nil
	}
	return nil
}

func (m *model) View() string {
	header := m.theme.header.Width(max(8, m.width-2)).Render("menuscript walker")
	meta := m.theme.headerMeta.Render(fmt.Sprintf(
		"state:%s · pending:%d · nodes:%d · actions:%d · activations:%d",
		displayOr(string(m.status.State), "n/a"),
		m.status.PendingOperations,
		m.status.Nodes,
		len(m.status.Actions),
		m.status.PendingActivations,
	))
	line := m.theme.divider.Render(strings.Repeat("═", max(8, m.width-2)))

	menuPanel := m.theme.panel.Width(max(8, m.width-2)).Render(m.viewport.View())
	activity := m.theme.panel.Width(max(8, m.width-2)).Render(
		lipgloss.JoinVertical(lipgloss.Left, m.theme.panelTitle.Render("bus activity"), m.activityView()),
	)

	status := m.theme.status.Render("ready")
	switch {
	case m.lastErr != "":
		status = m.theme.statusErr.Render(m.lastErr)
	case m.notice != "":
		status = m.theme.statusOK.Render(m.notice)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, meta, line, menuPanel, activity, status, m.help.View(m.keys))
}

func (m *model) activityView() string {
	start := max(0, len(m.activity)-visibleActivity)
	shown := m.activity[start:]
	if len(shown) == 0 {
		return m.theme.eventTime.Render("(nothing yet)")
	}
	lines := make([]string, len(shown))
	for i, entry := range shown {
		lines[i] = m.theme.event.Render(entry)
	}
	return strings.Join(lines, "\n")
}

func (m *model) record(entry string) {
	m.activity = append(m.activity, entry)
	if len(m.activity) > maxActivity {
		m.activity = slices.Clone(m.activity[len(m.activity)-maxActivity:])
	}
}

func (m *model) resize() {
	m.viewport.Width = max(20, m.width-6)
	// header, meta, divider, two panel borders, activity, status, help
	m.viewport.Height = max(5, m.height-visibleActivity-12)
	m.help.Width = m.width
}

func (m *model) refreshViewport() {
	m.viewport.SetContent(render.Tree(m.snap, render.Options{
		Title:      "menu",
		Attributes: m.attributes,
		Styles:     m.styles,
	}))
}

func (m *model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.driver.Snapshot(m.ctx)
		if err != nil {
			return refreshedMsg{err: err}
		}
		status, err := m.driver.Status(m.ctx)
		return refreshedMsg{snap: snap, status: status, err: err}
	}
}

func (m *model) walkCmd(steps int) tea.Cmd {
	return func() tea.Msg {
		applied, err := m.driver.Walk(m.ctx, steps)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: fmt.Sprintf("applied %d operation(s)", applied)}
	}
}

func (m *model) actionCmd(notice string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(m.ctx); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: notice}
	}
}

func (m *model) popCmd() tea.Cmd {
	return func() tea.Msg {
		name, err := m.driver.PopActivatedAction(m.ctx)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: "activated: " + name}
	}
}

func (m *model) waitEventCmd() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return busEventMsg{event: event}
	}
}

func describeEvent(event bus.Event) string {
	stamp := event.At.Format("15:04:05.000")
	switch event.Type {
	case bus.EventNameAcquired, bus.EventNameReleased:
		return fmt.Sprintf("%s %s %s", stamp, event.Type, event.Name)
	case bus.EventMenuChanged:
		changes := make([]string, 0, len(event.MenuChanges))
		for _, c := range event.MenuChanges {
			changes = append(changes, fmt.Sprintf("menu %d/%d @%d -%d +%d", c.Group, c.Menu, c.Position, c.Removed, len(c.Added)))
		}
		return fmt.Sprintf("%s %s %s", stamp, event.Type, strings.Join(changes, "; "))
	case bus.EventActionsChanged:
		return fmt.Sprintf("%s %s %s", stamp, event.Type, describeActionChange(event.ActionChange))
	default:
		return fmt.Sprintf("%s %s %s", stamp, event.Type, event.Path)
	}
}

func describeActionChange(change *bus.ActionChange) string {
	if change == nil {
		return ""
	}
	var parts []string
	for _, name := range slices.Sorted(maps.Keys(change.Added)) {
		parts = append(parts, "+"+name)
	}
	for _, name := range change.Removed {
		parts = append(parts, "-"+name)
	}
	for _, name := range slices.Sorted(maps.Keys(change.StateChanged)) {
		parts = append(parts, fmt.Sprintf("%s=%s", name, change.StateChanged[name]))
	}
	for _, name := range slices.Sorted(maps.Keys(change.EnabledChanged)) {
		parts = append(parts, fmt.Sprintf("%s enabled=%t", name, change.EnabledChanged[name]))
	}
	return strings.Join(parts, " ")
}

func displayOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
