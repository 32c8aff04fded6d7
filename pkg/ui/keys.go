package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Resubmit key.Binding
	Copy     key.Binding
	Export   key.Binding
	Help     key.Binding
	Close    key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Resubmit: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resubmit")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy legend")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export png")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Resubmit, k.Copy, k.Export, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Close}}
}
