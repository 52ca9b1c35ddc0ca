// SPDX-License-Identifier: Apache-2.0

// This file defines the keyboard bindings for the TUI application.

package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Up    key.Binding // Move cursor up
	Down  key.Binding // Move cursor down
	Home  key.Binding // Jump to top of list
	End   key.Binding // Jump to bottom of list
	Quit  key.Binding // Exit the application
	Enter key.Binding // Confirm selection
	Back  key.Binding // Go back to previous view

	Assignments key.Binding // Open the assignment list for a course
	Roster      key.Binding // Open the roster for a course
	ToggleAll   key.Binding // Include past courses in the course list
}

// DefaultKeyMap provides the default keybindings.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Home: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("home/g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("end/G", "bottom"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "assignments"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "b"),
		key.WithHelp("esc/b", "back"),
	),

	Assignments: key.NewBinding(
		key.WithKeys("a", "enter"),
		key.WithHelp("a", "assignments"),
	),
	Roster: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "roster"),
	),
	ToggleAll: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "toggle past courses"),
	),
}
