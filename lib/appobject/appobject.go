// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package appobject enumerates the application-object types that the
// presentation layer knows how to present. A command output declares
// one of these types for its value or items, and the presenter looks
// up presentation constructors by (type, widget kind).
//
// The set is closed: adding a type means adding a constant here, which
// keeps every registration site and switch visible to the compiler.
package appobject

import "fmt"

// Type identifies the kind of domain object bound to a presentation.
type Type int

const (
	// None is the type of outputs that carry no object, such as the
	// result of a command executed for its effect.
	None Type = iota

	// Window is a top-level window (*presentation.Container).
	Window

	// Layout is a layout container (*presentation.Container).
	Layout

	// Panel is a titled panel (*presentation.Container).
	Panel

	// Toolbar is a row of controls (*presentation.Container).
	Toolbar

	// Command is an invokable action bound to a label.
	Command

	// Selector is a list/select/current command triple presented as
	// a dropdown.
	Selector

	// DebugConfig is one launch configuration (debugconfig.Configuration).
	DebugConfig

	// Text is a plain string or fmt.Stringer.
	Text
)

var names = [...]string{
	None:        "none",
	Window:      "window",
	Layout:      "layout",
	Panel:       "panel",
	Toolbar:     "toolbar",
	Command:     "command",
	Selector:    "selector",
	DebugConfig: "debug-config",
	Text:        "text",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("type(%d)", int(t))
}
