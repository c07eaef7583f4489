// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package widget

import (
	"encoding/json"
	"fmt"
)

// Kind identifies a widget variant. Values are fixed by the wire
// format.
type Kind int

const (
	KindWindow Kind = iota
	KindLayoutContainer
	KindPanel
	KindButton
	KindDropdown
	KindDropdownItem
	KindToolbar
)

var kindNames = [...]string{
	KindWindow:          "window",
	KindLayoutContainer: "layout-container",
	KindPanel:           "panel",
	KindButton:          "button",
	KindDropdown:        "dropdown",
	KindDropdownItem:    "dropdown-item",
	KindToolbar:         "toolbar",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsContainer reports whether widgets of this kind carry an ordered
// children list.
func (k Kind) IsContainer() bool {
	switch k {
	case KindWindow, KindLayoutContainer, KindPanel, KindToolbar:
		return true
	}
	return false
}

// Direction is the main axis of a layout container.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// Widget is a serializable snapshot of one UI node. Fields that do not
// apply to the widget's Kind are left at their zero value and omitted
// from the wire.
type Widget struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
	Path Path   `json:"path"`

	// Title is the caption of a window or panel.
	Title string `json:"title,omitempty"`

	// Label is the visible text of a button or dropdown item.
	Label string `json:"label,omitempty"`

	// Tooltip is optional help text for a button.
	Tooltip string `json:"tooltip,omitempty"`

	// Direction is the main axis of a layout container.
	Direction Direction `json:"direction,omitempty"`

	// Resizable marks a child of a layout container that the user may
	// resize. Renderers place a splitter between adjacent resizable
	// siblings.
	Resizable bool `json:"resizable,omitempty"`

	// Children holds the ordered child widgets of a container kind.
	Children []Widget `json:"children,omitempty"`

	// Items holds the dropdown items of a dropdown.
	Items []Widget `json:"items,omitempty"`

	// SelectionIndex is the index into Items of the selected item, or
	// nil when nothing is selected.
	SelectionIndex *int `json:"selectionIndex,omitempty"`
}

// MarshalJSON always emits "children" for containers and "items" plus
// "selectionIndex" for dropdowns, so that paths into those properties
// resolve on the receiving side even when the lists are empty.
func (w Widget) MarshalJSON() ([]byte, error) {
	type plain Widget
	switch {
	case w.Kind == KindDropdown:
		items := w.Items
		if items == nil {
			items = []Widget{}
		}
		return json.Marshal(struct {
			plain
			Items          []Widget `json:"items"`
			SelectionIndex *int     `json:"selectionIndex"`
		}{plain(w), items, w.SelectionIndex})
	case w.Kind.IsContainer():
		children := w.Children
		if children == nil {
			children = []Widget{}
		}
		return json.Marshal(struct {
			plain
			Children []Widget `json:"children"`
		}{plain(w), children})
	default:
		return json.Marshal(plain(w))
	}
}

// Clone returns a deep copy of w.
func (w Widget) Clone() Widget {
	clone := w
	clone.Path = w.Path.Append()
	if w.Children != nil {
		clone.Children = make([]Widget, len(w.Children))
		for i, child := range w.Children {
			clone.Children[i] = child.Clone()
		}
	}
	if w.Items != nil {
		clone.Items = make([]Widget, len(w.Items))
		for i, item := range w.Items {
			clone.Items[i] = item.Clone()
		}
	}
	if w.SelectionIndex != nil {
		index := *w.SelectionIndex
		clone.SelectionIndex = &index
	}
	return clone
}

// IntPtr returns a pointer to a copy of v, for populating
// SelectionIndex.
func IntPtr(v int) *int {
	return &v
}

// ToValue converts a widget into the generic JSON value tree
// (map[string]any, []any, float64, string, bool, nil) it would decode
// to on the receiving side.
func ToValue(w Widget) (any, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encoding %s widget %q: %w", w.Kind, w.ID, err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decoding %s widget %q: %w", w.Kind, w.ID, err)
	}
	return value, nil
}
