package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the dashboard key bindings.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding

	// View switching
	ViewHome          key.Binding
	ViewAdmins        key.Binding
	ViewNodes         key.Binding
	ViewServices      key.Binding
	ViewSubscriptions key.Binding

	// Data actions
	Refresh       key.Binding
	SlowerRefresh key.Binding
	FasterRefresh key.Binding
	Enable        key.Binding
	Disable       key.Binding
	Backup        key.Binding
	Logout        key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Login form
	NextField    key.Binding
	PrevField    key.Binding
	ToggleAPIKey key.Binding
	Confirm      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),

		ViewHome: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Dashboard"),
		),
		ViewAdmins: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Admins"),
		),
		ViewNodes: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Nodes"),
		),
		ViewServices: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Services"),
		),
		ViewSubscriptions: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "Subscriptions"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),
		SlowerRefresh: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Refresh less often"),
		),
		FasterRefresh: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Refresh more often"),
		),
		Enable: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Enable selected"),
		),
		Disable: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Disable selected"),
		),
		Backup: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Export backup"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Logout"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		ToggleAPIKey: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("ctrl+k", "Password / API key login"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Sign in"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewHome, k.ViewAdmins, k.ViewNodes, k.ViewServices, k.ViewSubscriptions},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Refresh, k.SlowerRefresh, k.FasterRefresh},
		{k.Enable, k.Disable, k.Backup, k.Logout},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
