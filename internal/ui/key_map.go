package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	more      key.Binding
	toggle    key.Binding
	catalog   key.Binding
	subscribe key.Binding
	search    key.Binding
	open      key.Binding
	logout    key.Binding
	submit    key.Binding
	next      key.Binding
	prev      key.Binding
	switchReg key.Binding
	back      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		more:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
		toggle:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "catalog/subscriptions")),
		catalog:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all albums")),
		subscribe: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "subscribe")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open cover")),
		logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		next:      key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:      key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		switchReg: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "login/register")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.more},
		{k.toggle, k.catalog, k.subscribe},
		{k.search, k.open, k.logout, k.quit},
	}
}

func (k keyMap) browseHelp() []key.Binding {
	return []key.Binding{k.toggle, k.catalog, k.subscribe, k.more, k.search, k.open, k.logout, k.quit}
}

func (k keyMap) formHelp() []key.Binding {
	return []key.Binding{k.submit, k.next, k.back}
}
