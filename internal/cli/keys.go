package cli

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	StartStop key.Binding
	Open      key.Binding
	Select    key.Binding
	Up        key.Binding
	Down      key.Binding
	NextPane  key.Binding
	PrevPane  key.Binding
	Push      key.Binding
	Latest    key.Binding
	Reconnect key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		StartStop: key.NewBinding(key.WithKeys(" ", "s"), key.WithHelp("space", "start/stop")),
		Open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open issue")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NextPane:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next list")),
		PrevPane:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous list")),
		Push:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "update status")),
		Latest:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "last activity")),
		Reconnect: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reconnect")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp and FullHelp satisfy help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.StartStop, k.Open, k.NextPane, k.Select, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.StartStop, k.Open, k.Quit},
		{k.Up, k.Down, k.NextPane, k.PrevPane, k.Select},
		{k.Push, k.Latest, k.Reconnect, k.Help},
	}
}
