// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"errors"
	"fmt"
	"math"

	"github.com/bureau-foundation/workbench/lib/observable"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// ErrPathMismatch is returned when a change is applied to a model
// whose widget path is not a strict prefix of the change path.
var ErrPathMismatch = errors.New("change path is outside the model")

// ErrInvalidValue is returned when a replaced value has the wrong type
// for the property it targets.
var ErrInvalidValue = errors.New("invalid property value")

// Create builds a model from a widget. ApplyWidgetChange uses it for
// ReplaceWidget and SpliceWidgetArray changes.
type Create func(widget.Widget) (Model, error)

// factory adapts c to the construction callback of widget.ApplyChange.
func (c Create) factory() widget.Factory {
	return func(w widget.Widget) (any, error) {
		model, err := c(w)
		if err != nil {
			return nil, err
		}
		return model, nil
	}
}

// Model is one node of the component tree.
type Model interface {
	widget.Object

	ID() string
	Kind() widget.Kind

	// WidgetPath is the path of the widget the model mirrors.
	WidgetPath() widget.Path

	// ApplyWidgetChange applies a change whose path lies strictly
	// below WidgetPath.
	ApplyWidgetChange(change widget.Change, create Create) error

	// Rebase moves the model and its descendants to path, after a
	// splice shifted its position.
	Rebase(path widget.Path)

	// Revision reports a counter incremented on every change to this
	// model's own properties or lists.
	Revision() *observable.Value[uint64]

	// Widget converts the model back into the widget it mirrors.
	Widget() widget.Widget
}

type base struct {
	id       string
	kind     widget.Kind
	path     widget.Path
	revision *observable.Value[uint64]
}

func newBase(w widget.Widget) base {
	return base{id: w.ID, kind: w.Kind, path: w.Path.Append(), revision: observable.NewValue[uint64](0)}
}

func (b *base) ID() string                          { return b.id }
func (b *base) Kind() widget.Kind                   { return b.kind }
func (b *base) WidgetPath() widget.Path             { return b.path }
func (b *base) Revision() *observable.Value[uint64] { return b.revision }

func (b *base) touch() {
	b.revision.Set(b.revision.Get() + 1)
}

func (b *base) header() widget.Widget {
	return widget.Widget{Kind: b.kind, ID: b.id, Path: b.path.Append()}
}

// applyWidgetChange is the default change routing shared by all
// models.
func applyWidgetChange(model Model, change widget.Change, create Create) error {
	relative, err := relativePath(model, change)
	if err != nil {
		return err
	}
	if len(relative) > 1 && !relative[0].IsIndex() {
		if value, found := model.Property(relative[0].Name()); found {
			switch child := value.(type) {
			case Model:
				return child.ApplyWidgetChange(change, create)
			case *ModelList:
				if len(relative) > 2 && relative[1].IsIndex() {
					if element := child.Model(relative[1].Index()); element != nil {
						return element.ApplyWidgetChange(change, create)
					}
				}
			}
		}
	}
	return applyLocally(model, change, relative, create)
}

// applyLocally applies change to model itself using the relative path.
func applyLocally(model Model, change widget.Change, relative widget.Path, create Create) error {
	if err := widget.ApplyChange(model, change.WithPath(relative), create.factory()); err != nil {
		var pathErr *widget.PathError
		if errors.As(err, &pathErr) {
			// Report the absolute path.
			pathErr.Path = change.Path
			pathErr.Step += len(change.Path) - len(relative)
		}
		return err
	}
	return nil
}

func relativePath(model Model, change widget.Change) (widget.Path, error) {
	if !model.WidgetPath().IsStrictPrefixOf(change.Path) {
		return nil, fmt.Errorf("%s %q at %s: change at %s: %w",
			model.Kind(), model.ID(), model.WidgetPath(), change.Path, ErrPathMismatch)
	}
	relative, _ := change.Path.Relative(model.WidgetPath())
	return relative, nil
}

func asString(name string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%s: %T is not a string: %w", name, value, ErrInvalidValue)
	}
}

func asBool(name string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("%s: %T is not a bool: %w", name, value, ErrInvalidValue)
	}
}

// asIndex accepts null, an int, or an integral float64 (the form JSON
// numbers decode to).
func asIndex(name string, value any) (*int, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return widget.IntPtr(v), nil
	case float64:
		if v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%s: %v is not an index: %w", name, v, ErrInvalidValue)
		}
		return widget.IntPtr(int(v)), nil
	default:
		return nil, fmt.Errorf("%s: %T is not an index: %w", name, value, ErrInvalidValue)
	}
}

func unknownProperty(model Model, name string) error {
	return fmt.Errorf("%s %q has no assignable property %q: %w", model.Kind(), model.ID(), name, ErrInvalidValue)
}
