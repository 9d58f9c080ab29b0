package walker

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Step      key.Binding
	WalkAll   key.Binding
	Publish   key.Binding
	Unpublish key.Binding
	Pop       key.Binding
	Attrs     key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Step:      key.NewBinding(key.WithKeys("n", " ", "enter"), key.WithHelp("n/space", "step")),
		WalkAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "walk all")),
		Publish:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "publish")),
		Unpublish: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unpublish")),
		Pop:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "pop activation")),
		Attrs:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "attributes")),
		PageUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "scroll up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn", "scroll down")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.WalkAll, k.Publish, k.Unpublish, k.Pop, k.Attrs, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Step, k.WalkAll},
		{k.Publish, k.Unpublish, k.Pop},
		{k.Attrs, k.PageUp, k.PageDown, k.Quit},
	}
}
