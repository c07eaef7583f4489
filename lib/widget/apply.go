// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package widget

import (
	"errors"
	"fmt"
)

// Object is a tree node whose properties are addressed by name steps.
type Object interface {
	// Property returns the value of a named property. The second
	// result is false when the object has no such property.
	Property(name string) (any, bool)

	// SetProperty assigns a named property.
	SetProperty(name string, value any) error
}

// Array is an ordered tree node whose elements are addressed by index
// steps.
type Array interface {
	Len() int
	At(index int) any
	SetAt(index int, value any) error
	Splice(start, deleteCount int, added ...any) error
}

// Factory constructs the live representation of a widget for
// ReplaceWidget and SpliceWidgetArray changes.
type Factory func(Widget) (any, error)

// Errors wrapped by [PathError].
var (
	ErrEmptyPath      = errors.New("change has an empty path")
	ErrPathNotFound   = errors.New("path step does not resolve")
	ErrNotContainer   = errors.New("value cannot be navigated")
	ErrNotArray       = errors.New("splice target is not an array")
	ErrIndexRange     = errors.New("index out of range")
	ErrStepType       = errors.New("step does not fit the container")
	ErrNoFactory      = errors.New("widget change without a factory")
	ErrUnsupportedOp  = errors.New("unsupported change op")
	ErrMissingPayload = errors.New("change is missing its payload")
)

// PathError reports a change that could not be applied because its
// path does not fit the tree. Step is the index into Path of the step
// that failed.
type PathError struct {
	Op   Op
	Path Path
	Step int
	Err  error
}

func (e *PathError) Error() string {
	operation := "lookup"
	if e.Op >= 0 {
		operation = e.Op.String()
	}
	if e.Step < 0 || e.Step >= len(e.Path) {
		return fmt.Sprintf("%s at %s: %v", operation, e.Path, e.Err)
	}
	return fmt.Sprintf("%s at %s: step %d (%q): %v", operation, e.Path, e.Step, e.Path[e.Step].String(), e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// ApplyChange walks change.Path from root to the parent of the final
// step and applies the change there, mutating root in place. Nodes
// along the way may be [Object] or [Array] implementations, or the
// map[string]any and []any values produced by decoding JSON.
//
// Splicing a plain []any produces a new slice, which is stored back
// into the parent under the final step.
func ApplyChange(root any, change Change, factory Factory) error {
	fail := func(step int, err error) error {
		return &PathError{Op: change.Op, Path: change.Path, Step: step, Err: err}
	}
	if len(change.Path) == 0 {
		return fail(-1, ErrEmptyPath)
	}

	parent := root
	last := len(change.Path) - 1
	for i, step := range change.Path[:last] {
		next, err := lookup(parent, step)
		if err != nil {
			return fail(i, err)
		}
		parent = next
	}
	final := change.Path[last]

	switch change.Op {
	case OpReplaceWidget:
		if change.Widget == nil {
			return fail(-1, ErrMissingPayload)
		}
		if factory == nil {
			return fail(-1, ErrNoFactory)
		}
		constructed, err := factory(*change.Widget)
		if err != nil {
			return fmt.Errorf("constructing %s widget %q for %s: %w", change.Widget.Kind, change.Widget.ID, change.Path, err)
		}
		if err := assign(parent, final, constructed); err != nil {
			return fail(last, err)
		}
	case OpReplaceValue:
		if err := assign(parent, final, change.Value); err != nil {
			return fail(last, err)
		}
	case OpSpliceWidgetArray:
		var added []any
		if change.AddedWidgets != nil {
			if factory == nil {
				return fail(-1, ErrNoFactory)
			}
			added = make([]any, 0, len(change.AddedWidgets))
			for _, w := range change.AddedWidgets {
				constructed, err := factory(w)
				if err != nil {
					return fmt.Errorf("constructing %s widget %q for %s: %w", w.Kind, w.ID, change.Path, err)
				}
				added = append(added, constructed)
			}
		}
		if err := splice(parent, final, change.Start, change.DeleteCount, added); err != nil {
			return fail(last, err)
		}
	case OpSpliceValueArray:
		if err := splice(parent, final, change.Start, change.DeleteCount, change.AddedValues); err != nil {
			return fail(last, err)
		}
	default:
		return fail(-1, ErrUnsupportedOp)
	}
	return nil
}

// Lookup resolves path from root without modifying anything.
func Lookup(root any, path Path) (any, error) {
	current := root
	for i, step := range path {
		next, err := lookup(current, step)
		if err != nil {
			return nil, &PathError{Op: -1, Path: path, Step: i, Err: err}
		}
		current = next
	}
	return current, nil
}

func lookup(container any, step Step) (any, error) {
	var (
		value any
		found bool
	)
	switch node := container.(type) {
	case Object:
		if step.IsIndex() {
			return nil, ErrStepType
		}
		value, found = node.Property(step.Name())
	case Array:
		if !step.IsIndex() {
			return nil, ErrStepType
		}
		if step.Index() < 0 || step.Index() >= node.Len() {
			return nil, ErrIndexRange
		}
		value, found = node.At(step.Index()), true
	case map[string]any:
		if step.IsIndex() {
			return nil, ErrStepType
		}
		value, found = node[step.Name()]
	case []any:
		if !step.IsIndex() {
			return nil, ErrStepType
		}
		if step.Index() < 0 || step.Index() >= len(node) {
			return nil, ErrIndexRange
		}
		value, found = node[step.Index()], true
	default:
		return nil, ErrNotContainer
	}
	if !found || value == nil {
		return nil, ErrPathNotFound
	}
	return value, nil
}

func assign(container any, step Step, value any) error {
	switch node := container.(type) {
	case Object:
		if step.IsIndex() {
			return ErrStepType
		}
		return node.SetProperty(step.Name(), value)
	case Array:
		if !step.IsIndex() {
			return ErrStepType
		}
		if step.Index() < 0 || step.Index() >= node.Len() {
			return ErrIndexRange
		}
		return node.SetAt(step.Index(), value)
	case map[string]any:
		if step.IsIndex() {
			return ErrStepType
		}
		node[step.Name()] = value
		return nil
	case []any:
		if !step.IsIndex() {
			return ErrStepType
		}
		if step.Index() < 0 || step.Index() >= len(node) {
			return ErrIndexRange
		}
		node[step.Index()] = value
		return nil
	default:
		return ErrNotContainer
	}
}

func splice(container any, step Step, start, deleteCount int, added []any) error {
	target, err := lookup(container, step)
	if err != nil {
		return err
	}
	switch array := target.(type) {
	case Array:
		return array.Splice(start, deleteCount, added...)
	case []any:
		spliced, _, err := SpliceSlice(array, start, deleteCount, added...)
		if err != nil {
			return err
		}
		return assign(container, step, spliced)
	default:
		return ErrNotArray
	}
}

// SpliceSlice removes deleteCount elements at start and inserts added
// in their place, returning the new slice and the removed elements.
// deleteCount is clamped to the elements available after start. The
// input slice is not modified.
func SpliceSlice[T any](s []T, start, deleteCount int, added ...T) ([]T, []T, error) {
	if start < 0 || start > len(s) {
		return nil, nil, fmt.Errorf("splice start %d outside [0, %d]: %w", start, len(s), ErrIndexRange)
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > len(s)-start {
		deleteCount = len(s) - start
	}
	removed := make([]T, deleteCount)
	copy(removed, s[start:start+deleteCount])

	result := make([]T, 0, len(s)-deleteCount+len(added))
	result = append(result, s[:start]...)
	result = append(result, added...)
	result = append(result, s[start+deleteCount:]...)
	return result, removed, nil
}
