// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package widget

import "fmt"

// EventKind identifies a UI event variant. Values are fixed by the wire
// format.
type EventKind int

const (
	// EventDidSelectDropdownItem reports that the user picked the item
	// at ItemIndex of the dropdown at Path.
	EventDidSelectDropdownItem EventKind = iota

	// EventDidClickButton reports that the user activated the button at
	// Path.
	EventDidClickButton
)

func (k EventKind) String() string {
	switch k {
	case EventDidSelectDropdownItem:
		return "did-select-dropdown-item"
	case EventDidClickButton:
		return "did-click-button"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a UI-originated event addressed by the path of the widget
// it concerns.
type Event struct {
	Kind EventKind `json:"kind"`
	Path Path      `json:"path"`

	// ItemIndex is required for EventDidSelectDropdownItem. A nil
	// pointer means the field was absent.
	ItemIndex *int `json:"itemIndex,omitempty"`

	// ItemID, when set, must match the id of the item currently at
	// ItemIndex. A mismatch marks the event as stale.
	ItemID string `json:"itemId,omitempty"`
}

// SelectDropdownItem builds a DidSelectDropdownItem event.
func SelectDropdownItem(path Path, index int, itemID string) Event {
	return Event{Kind: EventDidSelectDropdownItem, Path: path, ItemIndex: IntPtr(index), ItemID: itemID}
}

// ClickButton builds a DidClickButton event.
func ClickButton(path Path) Event {
	return Event{Kind: EventDidClickButton, Path: path}
}
