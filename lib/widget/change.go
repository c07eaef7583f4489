// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package widget

import (
	"encoding/json"
	"fmt"
)

// Op identifies a change operation. Values are fixed by the wire
// format.
type Op int

const (
	OpReplaceWidget Op = iota
	OpReplaceValue
	OpSpliceWidgetArray
	OpSpliceValueArray
)

func (o Op) String() string {
	switch o {
	case OpReplaceWidget:
		return "replace-widget"
	case OpReplaceValue:
		return "replace-value"
	case OpSpliceWidgetArray:
		return "splice-widget-array"
	case OpSpliceValueArray:
		return "splice-value-array"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Change is one incremental edit of a widget tree. The final step of
// Path names the property or index being mutated; every step before it
// navigates to the parent container.
//
// Which payload fields are meaningful depends on Op:
//
//	OpReplaceWidget:     Widget
//	OpReplaceValue:      Value (nil encodes as JSON null)
//	OpSpliceWidgetArray: Start, DeleteCount, AddedWidgets
//	OpSpliceValueArray:  Start, DeleteCount, AddedValues
//
// A splice whose added list is nil is a pure removal and carries no
// "added" field on the wire.
type Change struct {
	Op   Op
	Path Path

	Widget *Widget
	Value  any

	Start        int
	DeleteCount  int
	AddedWidgets []Widget
	AddedValues  []any
}

// Patch is an ordered list of changes, applied strictly in order.
type Patch []Change

// ReplaceWidget returns a change that assigns a freshly constructed
// widget at path.
func ReplaceWidget(path Path, w Widget) Change {
	return Change{Op: OpReplaceWidget, Path: path, Widget: &w}
}

// ReplaceValue returns a change that assigns a raw value at path.
func ReplaceValue(path Path, value any) Change {
	return Change{Op: OpReplaceValue, Path: path, Value: value}
}

// SpliceWidgetArray returns a change that removes deleteCount widgets
// at start from the array at path and inserts added in their place.
// With no added widgets the change is a pure removal.
func SpliceWidgetArray(path Path, start, deleteCount int, added ...Widget) Change {
	if len(added) == 0 {
		added = nil
	}
	return Change{Op: OpSpliceWidgetArray, Path: path, Start: start, DeleteCount: deleteCount, AddedWidgets: added}
}

// SpliceValueArray is SpliceWidgetArray for arrays of raw values.
func SpliceValueArray(path Path, start, deleteCount int, added ...any) Change {
	if len(added) == 0 {
		added = nil
	}
	return Change{Op: OpSpliceValueArray, Path: path, Start: start, DeleteCount: deleteCount, AddedValues: added}
}

// WithPath returns a copy of c addressed at path.
func (c Change) WithPath(path Path) Change {
	c.Path = path
	return c
}

type changeWire struct {
	Op          Op              `json:"op"`
	Path        Path            `json:"path"`
	Value       json.RawMessage `json:"value,omitempty"`
	Start       *int            `json:"start,omitempty"`
	DeleteCount *int            `json:"deleteCount,omitempty"`
	Added       json.RawMessage `json:"added,omitempty"`
}

// MarshalJSON encodes the change in the wire shape of its Op.
func (c Change) MarshalJSON() ([]byte, error) {
	wire := changeWire{Op: c.Op, Path: c.Path}
	var err error
	switch c.Op {
	case OpReplaceWidget:
		if c.Widget == nil {
			return nil, fmt.Errorf("replace-widget change at %s has no widget", c.Path)
		}
		wire.Value, err = json.Marshal(c.Widget)
	case OpReplaceValue:
		wire.Value, err = json.Marshal(c.Value)
	case OpSpliceWidgetArray:
		wire.Start, wire.DeleteCount = &c.Start, &c.DeleteCount
		if c.AddedWidgets != nil {
			wire.Added, err = json.Marshal(c.AddedWidgets)
		}
	case OpSpliceValueArray:
		wire.Start, wire.DeleteCount = &c.Start, &c.DeleteCount
		if c.AddedValues != nil {
			wire.Added, err = json.Marshal(c.AddedValues)
		}
	default:
		return nil, fmt.Errorf("unknown change op %d", int(c.Op))
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s change at %s: %w", c.Op, c.Path, err)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes a change, interpreting "value" and "added"
// according to "op". A missing deleteCount means zero.
func (c *Change) UnmarshalJSON(data []byte) error {
	var wire changeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	decoded := Change{Op: wire.Op, Path: wire.Path}
	if wire.Start != nil {
		decoded.Start = *wire.Start
	}
	if wire.DeleteCount != nil {
		decoded.DeleteCount = *wire.DeleteCount
	}
	switch wire.Op {
	case OpReplaceWidget:
		if len(wire.Value) == 0 {
			return fmt.Errorf("replace-widget change at %s has no value", wire.Path)
		}
		var w Widget
		if err := json.Unmarshal(wire.Value, &w); err != nil {
			return fmt.Errorf("decoding widget for change at %s: %w", wire.Path, err)
		}
		decoded.Widget = &w
	case OpReplaceValue:
		if len(wire.Value) > 0 {
			if err := json.Unmarshal(wire.Value, &decoded.Value); err != nil {
				return fmt.Errorf("decoding value for change at %s: %w", wire.Path, err)
			}
		}
	case OpSpliceWidgetArray:
		if len(wire.Added) > 0 && string(wire.Added) != "null" {
			decoded.AddedWidgets = []Widget{}
			if err := json.Unmarshal(wire.Added, &decoded.AddedWidgets); err != nil {
				return fmt.Errorf("decoding added widgets for change at %s: %w", wire.Path, err)
			}
		}
	case OpSpliceValueArray:
		if len(wire.Added) > 0 && string(wire.Added) != "null" {
			decoded.AddedValues = []any{}
			if err := json.Unmarshal(wire.Added, &decoded.AddedValues); err != nil {
				return fmt.Errorf("decoding added values for change at %s: %w", wire.Path, err)
			}
		}
	default:
		return fmt.Errorf("unknown change op %d", int(wire.Op))
	}
	*c = decoded
	return nil
}
