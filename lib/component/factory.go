// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"fmt"

	"github.com/bureau-foundation/workbench/lib/widget"
)

// Factory builds model trees from widget trees. Interactive models it
// builds report user actions through emit.
type Factory struct {
	emit func(widget.Event)
}

// NewFactory returns a factory whose buttons and dropdowns send events
// to emit. A nil emit discards them.
func NewFactory(emit func(widget.Event)) *Factory {
	return &Factory{emit: emit}
}

// Create returns CreateModel as a [Create] callback for
// Model.ApplyWidgetChange.
func (f *Factory) Create() Create {
	return f.CreateModel
}

// CreateModel builds the model for w, constructing children first.
// Kinds without a dedicated model become a [GenericModel].
func (f *Factory) CreateModel(w widget.Widget) (Model, error) {
	switch w.Kind {
	case widget.KindWindow, widget.KindPanel, widget.KindToolbar:
		children, err := f.createAll(w.Children)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", w.Kind, w.ID, err)
		}
		return newContainerModel(w, children), nil

	case widget.KindLayoutContainer:
		children, err := f.createAll(w.Children)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", w.Kind, w.ID, err)
		}
		return newLayoutContainerModel(w, children), nil

	case widget.KindDropdown:
		items, err := f.createAll(w.Items)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", w.Kind, w.ID, err)
		}
		return newDropdownModel(w, items, f.emit), nil

	case widget.KindDropdownItem:
		return &DropdownItemModel{base: newBase(w), Label: w.Label}, nil

	case widget.KindButton:
		return &ButtonModel{base: newBase(w), Label: w.Label, Tooltip: w.Tooltip, emit: f.emit}, nil

	default:
		return newGenericModel(w)
	}
}

func (f *Factory) createAll(widgets []widget.Widget) ([]Model, error) {
	models := make([]Model, len(widgets))
	for i, w := range widgets {
		model, err := f.CreateModel(w)
		if err != nil {
			return nil, err
		}
		models[i] = model
	}
	return models, nil
}
