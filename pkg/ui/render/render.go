// Package render draws menu snapshots and action groups for terminals.
package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"menuscript/pkg/bus"
	"menuscript/pkg/menu"
	"menuscript/pkg/variant"
)

// Styles used by the renderers. The zero value renders plain text.
type Styles struct {
	Root       lipgloss.Style
	Path       lipgloss.Style
	Label      lipgloss.Style
	Action     lipgloss.Style
	Link       lipgloss.Style
	Attribute  lipgloss.Style
	Enumerator lipgloss.Style
	Disabled   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Root:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")),
		Path:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Label:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("223")),
		Action:     lipgloss.NewStyle().Foreground(lipgloss.Color("44")),
		Link:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Attribute:  lipgloss.NewStyle().Foreground(lipgloss.Color("109")),
		Enumerator: lipgloss.NewStyle().Foreground(lipgloss.Color("130")).MarginRight(1),
		Disabled:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true),
	}
}

// Options tune Tree output.
type Options struct {
	Title      string
	Attributes bool
	Styles     Styles
}

// Tree renders snap with the dotted path that addresses each entry in
// scripts.
func Tree(snap menu.Snapshot, opts Options) string {
	title := opts.Title
	if title == "" {
		title = "menu"
	}

	root := tree.Root(opts.Styles.Root.Render(title)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(opts.Styles.Enumerator)
	if len(snap.Children) == 0 {
		root.Child(opts.Styles.Path.Render("(empty)"))
		return root.String()
	}

	addChildren(root, snap.Children, "", opts)
	return root.String()
}

func addChildren(parent *tree.Tree, children []menu.Snapshot, prefix string, opts Options) {
	for i, child := range children {
		path := fmt.Sprintf("%s%d", prefix, i)
		line := entryLine(child, path, opts)
		if !child.Kind.IsContainer() {
			parent.Child(line)
			continue
		}

		sub := tree.Root(line).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(opts.Styles.Enumerator)
		addChildren(sub, child.Children, path+".", opts)
		parent.Child(sub)
	}
}

func entryLine(node menu.Snapshot, path string, opts Options) string {
	st := opts.Styles
	parts := []string{st.Path.Render(path)}

	switch node.Kind {
	case menu.KindSection:
		parts = append(parts, st.Link.Render("[section]"))
	case menu.KindSubmenu:
		parts = append(parts, st.Link.Render("[submenu]"))
	}

	label := node.Label
	if label == "" {
		label = "(no label)"
	}
	parts = append(parts, st.Label.Render(label))

	if node.Action != "" {
		parts = append(parts, st.Action.Render("→ "+node.Action))
	}
	if opts.Attributes && len(node.Attributes) > 0 {
		parts = append(parts, st.Attribute.Render(formatAttributes(node.Attributes)))
	}
	return strings.Join(parts, " ")
}

func formatAttributes(attrs map[string]variant.Value) string {
	names := slices.Sorted(maps.Keys(attrs))
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf("%s=%s", name, attrs[name]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// Actions renders one line per action, sorted by name.
func Actions(actions map[string]bus.ActionDescription, styles Styles) string {
	if len(actions) == 0 {
		return styles.Path.Render("(no actions)")
	}

	names := slices.Sorted(maps.Keys(actions))
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		desc := actions[name]
		nameStyle := styles.Action
		if !desc.Enabled {
			nameStyle = styles.Disabled
		}

		line := nameStyle.Render(fmt.Sprintf("%-*s", width, name))
		if desc.ParameterType != "" {
			line += " " + styles.Attribute.Render("param:"+desc.ParameterType)
		}
		if desc.State != nil {
			line += " " + styles.Attribute.Render("state:"+desc.State.String())
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return strings.Join(lines, "\n")
}
