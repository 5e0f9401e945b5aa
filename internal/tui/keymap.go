package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Section  key.Binding
	Search   key.Binding
	Select   key.Binding
	Cancel   key.Binding
	View     key.Binding
	Reload   key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		PrevPage: key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "prev page")),
		NextPage: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "next page")),
		Section:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "section")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "indent")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		View:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "grid/list")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Section, k.PrevPage, k.NextPage, k.Select, k.View, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Up, k.Down, k.Cancel, k.Reload}}
}
