// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package renderer

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the renderer's key bindings.
type KeyMap struct {
	// Focus movement between buttons and dropdowns.
	Next     key.Binding
	Previous key.Binding

	// Activate clicks the focused button or opens the focused
	// dropdown; inside an open dropdown it chooses the highlighted
	// item.
	Activate key.Binding

	// Overlay navigation.
	Up      key.Binding
	Down    key.Binding
	Dismiss key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Next: key.NewBinding(
		key.WithKeys("tab", "right", "l"),
		key.WithHelp("Tab", "next"),
	),
	Previous: key.NewBinding(
		key.WithKeys("shift+tab", "left", "h"),
		key.WithHelp("S-Tab", "previous"),
	),
	Activate: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("Enter", "activate"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "close"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// help is the status line shown when no log record is displayed.
func (keys KeyMap) help() string {
	var text string
	for i, binding := range []key.Binding{keys.Next, keys.Activate, keys.Quit} {
		if i > 0 {
			text += "  "
		}
		help := binding.Help()
		text += help.Key + " " + help.Desc
	}
	return text
}
