// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/workbench/lib/widget"
)

// ContainerModel mirrors a window, panel, or toolbar.
type ContainerModel struct {
	base
	Title     string
	Resizable bool
	Children  *ModelList
}

func newContainerModel(w widget.Widget, children []Model) *ContainerModel {
	model := &ContainerModel{base: newBase(w), Title: w.Title, Resizable: w.Resizable}
	model.Children = newModelList(&model.base, "children", children)
	return model
}

// IsResizable reports whether the container may be resized inside a
// layout.
func (m *ContainerModel) IsResizable() bool { return m.Resizable }

func (m *ContainerModel) Property(name string) (any, bool) {
	switch name {
	case "title":
		return m.Title, true
	case "resizable":
		return m.Resizable, true
	case "children":
		return m.Children, true
	}
	return nil, false
}

func (m *ContainerModel) SetProperty(name string, value any) error {
	var err error
	switch name {
	case "title":
		m.Title, err = asString(name, value)
	case "resizable":
		m.Resizable, err = asBool(name, value)
	default:
		return unknownProperty(m, name)
	}
	if err == nil {
		m.touch()
	}
	return err
}

func (m *ContainerModel) ApplyWidgetChange(change widget.Change, create Create) error {
	return applyWidgetChange(m, change, create)
}

func (m *ContainerModel) Rebase(path widget.Path) {
	m.path = path.Append()
	m.Children.rebase()
}

func (m *ContainerModel) Widget() widget.Widget {
	w := m.header()
	w.Title = m.Title
	w.Resizable = m.Resizable
	w.Children = m.Children.widgets()
	return w
}

// ButtonModel mirrors a button. Click sends a DidClickButton event.
type ButtonModel struct {
	base
	Label   string
	Tooltip string
	emit    func(widget.Event)
}

func (m *ButtonModel) Property(name string) (any, bool) {
	switch name {
	case "label":
		return m.Label, true
	case "tooltip":
		return m.Tooltip, true
	}
	return nil, false
}

func (m *ButtonModel) SetProperty(name string, value any) error {
	var err error
	switch name {
	case "label":
		m.Label, err = asString(name, value)
	case "tooltip":
		m.Tooltip, err = asString(name, value)
	default:
		return unknownProperty(m, name)
	}
	if err == nil {
		m.touch()
	}
	return err
}

// Click reports a user activation of the button.
func (m *ButtonModel) Click() {
	if m.emit != nil {
		m.emit(widget.ClickButton(m.path.Append()))
	}
}

func (m *ButtonModel) ApplyWidgetChange(change widget.Change, create Create) error {
	return applyWidgetChange(m, change, create)
}

func (m *ButtonModel) Rebase(path widget.Path) { m.path = path.Append() }

func (m *ButtonModel) Widget() widget.Widget {
	w := m.header()
	w.Label = m.Label
	w.Tooltip = m.Tooltip
	return w
}

// DropdownItemModel mirrors one dropdown item.
type DropdownItemModel struct {
	base
	Label string
}

func (m *DropdownItemModel) Property(name string) (any, bool) {
	if name == "label" {
		return m.Label, true
	}
	return nil, false
}

func (m *DropdownItemModel) SetProperty(name string, value any) error {
	if name != "label" {
		return unknownProperty(m, name)
	}
	label, err := asString(name, value)
	if err != nil {
		return err
	}
	m.Label = label
	m.touch()
	return nil
}

func (m *DropdownItemModel) ApplyWidgetChange(change widget.Change, create Create) error {
	return applyWidgetChange(m, change, create)
}

func (m *DropdownItemModel) Rebase(path widget.Path) { m.path = path.Append() }

func (m *DropdownItemModel) Widget() widget.Widget {
	w := m.header()
	w.Label = m.Label
	return w
}

// GenericModel wraps a widget of a kind this package does not know as
// its raw JSON value. Changes apply to the raw value; nested widgets
// inside it stay raw.
type GenericModel struct {
	base
	Raw map[string]any
}

func newGenericModel(w widget.Widget) (*GenericModel, error) {
	value, err := widget.ToValue(w)
	if err != nil {
		return nil, err
	}
	raw, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("widget %q did not encode as an object", w.ID)
	}
	return &GenericModel{base: newBase(w), Raw: raw}, nil
}

func (m *GenericModel) Property(name string) (any, bool) {
	value, ok := m.Raw[name]
	return value, ok
}

func (m *GenericModel) SetProperty(name string, value any) error {
	if _, isModel := value.(Model); isModel {
		return fmt.Errorf("generic %s %q cannot hold models: %w", m.kind, m.id, ErrInvalidValue)
	}
	m.Raw[name] = value
	m.touch()
	return nil
}

// ApplyWidgetChange applies the change to the raw value, building
// nested widgets as raw values as well.
func (m *GenericModel) ApplyWidgetChange(change widget.Change, _ Create) error {
	relative, err := relativePath(m, change)
	if err != nil {
		return err
	}
	if err := widget.ApplyToValue(m.Raw, change.WithPath(relative)); err != nil {
		return err
	}
	widget.Restamp(m.Raw, m.path)
	m.touch()
	return nil
}

func (m *GenericModel) Rebase(path widget.Path) {
	m.path = path.Append()
	widget.Restamp(m.Raw, m.path)
}

func (m *GenericModel) Widget() widget.Widget {
	var w widget.Widget
	data, err := json.Marshal(m.Raw)
	if err == nil {
		err = json.Unmarshal(data, &w)
	}
	if err != nil {
		return m.header()
	}
	return w
}
