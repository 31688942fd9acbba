// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the status view.
type KeyMap struct {
	// Workspaces
	NextWorkspace key.Binding
	PrevWorkspace key.Binding

	// Windows
	OpenWindow  key.Binding
	CloseWindow key.Binding

	// Session
	Toggle key.Binding
	Save   key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextWorkspace: key.NewBinding(
			key.WithKeys("l", "right", "tab"),
			key.WithHelp("l/→", "next workspace"),
		),
		PrevWorkspace: key.NewBinding(
			key.WithKeys("h", "left", "shift+tab"),
			key.WithHelp("h/←", "previous workspace"),
		),

		OpenWindow: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "open window"),
		),
		CloseWindow: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close last window"),
		),

		Toggle: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "enable/disable"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save state"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextWorkspace, k.PrevWorkspace}, // Workspaces
		{k.OpenWindow, k.CloseWindow},      // Windows
		{k.Toggle, k.Save},                 // Session
		{k.Help, k.Quit},                   // General
	}
}
