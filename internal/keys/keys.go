// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// GlobalKeys are handled by the root model regardless of screen.
type GlobalKeys struct {
	Quit      key.Binding
	Logout    key.Binding
	Help      key.Binding
	LogViewer key.Binding
}

// ListKeys drive the client list.
type ListKeys struct {
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Refresh key.Binding
}

// FormKeys drive the client form.
type FormKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Back   key.Binding
}

// LoginKeys drive the login screen.
type LoginKeys struct {
	Next           key.Binding
	Prev           key.Binding
	Submit         key.Binding
	TogglePassword key.Binding
}

var Global = GlobalKeys{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Logout: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "logout"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	LogViewer: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "toggle log viewer (debug)"),
	),
}

var List = ListKeys{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "move down"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "first client"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "last client"),
	),
	Add: key.NewBinding(
		key.WithKeys("a", "n"),
		key.WithHelp("a", "add client"),
	),
	Edit: key.NewBinding(
		key.WithKeys("enter", "e"),
		key.WithHelp("enter/e", "edit client"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete client"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload clients"),
	),
}

var Form = FormKeys{
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab/↓", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab/↑", "previous field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save client"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back to list"),
	),
}

var Login = LoginKeys{
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "sign in"),
	),
	TogglePassword: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "show/hide password"),
	),
}

// Section is a titled group of bindings for the help overlay.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// HelpSections lists every binding grouped by screen.
func HelpSections() []Section {
	return []Section{
		{Title: "Clients", Bindings: []key.Binding{
			List.Up, List.Down, List.Top, List.Bottom, List.Add, List.Edit, List.Delete, List.Refresh,
		}},
		{Title: "Client form", Bindings: []key.Binding{Form.Next, Form.Prev, Form.Submit, Form.Back}},
		{Title: "Login", Bindings: []key.Binding{Login.Next, Login.Submit, Login.TogglePassword}},
		{Title: "General", Bindings: []key.Binding{Global.Help, Global.Logout, Global.LogViewer, Global.Quit}},
	}
}
