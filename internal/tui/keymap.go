package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding
	Next key.Binding
	Back key.Binding

	// Mapping
	Edit  key.Binding
	Clear key.Binding

	// Validation
	TogglePolicy key.Binding

	// Application
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Next: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "continue"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "right", "l"),
			key.WithHelp("e", "choose column"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "unmap field"),
		),
		TogglePolicy: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "toggle policy"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "cancel import"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Next, k.Back},
		{k.Edit, k.Clear, k.TogglePolicy},
		{k.Help, k.Quit},
	}
}
