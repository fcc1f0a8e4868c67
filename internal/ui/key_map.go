package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	add     key.Binding
	next    key.Binding
	shuffle key.Binding
	remove  key.Binding
	clear   key.Binding
	history key.Binding
	toggle  key.Binding
	yes     key.Binding
	no      key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add songs")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		shuffle: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		remove:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		history: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.add, k.next, k.shuffle},
		{k.remove, k.clear, k.history},
		{k.toggle, k.back, k.quit},
	}
}
