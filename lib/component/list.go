// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"fmt"

	"github.com/bureau-foundation/workbench/lib/widget"
)

// ModelList is an ordered list of child models stored under one
// property of its owner. It implements [widget.Array] and keeps each
// element's widget path equal to its position.
type ModelList struct {
	owner    *base
	property string
	models   []Model
}

func newModelList(owner *base, property string, models []Model) *ModelList {
	return &ModelList{owner: owner, property: property, models: models}
}

// Len returns the number of models.
func (l *ModelList) Len() int { return len(l.models) }

// At returns the model at index as an any, for widget.Array.
func (l *ModelList) At(index int) any { return l.models[index] }

// Model returns the model at index, or nil when out of range.
func (l *ModelList) Model(index int) Model {
	if index < 0 || index >= len(l.models) {
		return nil
	}
	return l.models[index]
}

// Models returns a copy of the list.
func (l *ModelList) Models() []Model {
	return append([]Model(nil), l.models...)
}

// SetAt replaces the model at index.
func (l *ModelList) SetAt(index int, value any) error {
	model, ok := value.(Model)
	if !ok {
		return fmt.Errorf("%s[%d]: %T is not a model: %w", l.property, index, value, ErrInvalidValue)
	}
	if index < 0 || index >= len(l.models) {
		return fmt.Errorf("%s[%d]: %w", l.property, index, widget.ErrIndexRange)
	}
	model.Rebase(l.elementPath(index))
	l.models[index] = model
	l.owner.touch()
	return nil
}

// Splice removes deleteCount models at start and inserts added there.
func (l *ModelList) Splice(start, deleteCount int, added ...any) error {
	models := make([]Model, len(added))
	for i, value := range added {
		model, ok := value.(Model)
		if !ok {
			return fmt.Errorf("%s splice element %d: %T is not a model: %w", l.property, i, value, ErrInvalidValue)
		}
		models[i] = model
	}
	spliced, _, err := widget.SpliceSlice(l.models, start, deleteCount, models...)
	if err != nil {
		return fmt.Errorf("%s: %w", l.property, err)
	}
	l.models = spliced
	for i := start; i < len(l.models); i++ {
		l.models[i].Rebase(l.elementPath(i))
	}
	l.owner.touch()
	return nil
}

// rebase renumbers every element below a new owner path.
func (l *ModelList) rebase() {
	for i, model := range l.models {
		model.Rebase(l.elementPath(i))
	}
}

func (l *ModelList) elementPath(index int) widget.Path {
	return l.owner.path.Append(widget.Name(l.property), widget.Index(index))
}

func (l *ModelList) widgets() []widget.Widget {
	widgets := make([]widget.Widget, len(l.models))
	for i, model := range l.models {
		widgets[i] = model.Widget()
	}
	return widgets
}
