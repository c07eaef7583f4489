// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"fmt"

	"github.com/bureau-foundation/workbench/lib/widget"
)

// DropdownModel mirrors a dropdown. The wire property "selectionIndex"
// is stored as SelectedItemIndex.
type DropdownModel struct {
	base
	Items             *ModelList
	SelectedItemIndex *int
	emit              func(widget.Event)
}

func newDropdownModel(w widget.Widget, items []Model, emit func(widget.Event)) *DropdownModel {
	model := &DropdownModel{base: newBase(w), emit: emit}
	if w.SelectionIndex != nil {
		model.SelectedItemIndex = widget.IntPtr(*w.SelectionIndex)
	}
	model.Items = newModelList(&model.base, "items", items)
	return model
}

func (m *DropdownModel) Property(name string) (any, bool) {
	switch name {
	case "items":
		return m.Items, true
	case "selectedItemIndex":
		if m.SelectedItemIndex == nil {
			return nil, true
		}
		return *m.SelectedItemIndex, true
	}
	return nil, false
}

func (m *DropdownModel) SetProperty(name string, value any) error {
	if name != "selectedItemIndex" {
		return unknownProperty(m, name)
	}
	index, err := asIndex(name, value)
	if err != nil {
		return err
	}
	m.SelectedItemIndex = index
	m.touch()
	return nil
}

// ApplyWidgetChange renames a leading "selectionIndex" step to
// "selectedItemIndex" and otherwise routes the change like any model.
func (m *DropdownModel) ApplyWidgetChange(change widget.Change, create Create) error {
	relative, err := relativePath(m, change)
	if err != nil {
		return err
	}
	if !relative[0].IsIndex() && relative[0].Name() == "selectionIndex" {
		renamed := widget.Path{widget.Name("selectedItemIndex")}.Append(relative[1:]...)
		return applyLocally(m, change, renamed, create)
	}
	return applyWidgetChange(m, change, create)
}

// Select reports that the user picked the item at index. The model is
// not changed; the producer answers with a selection patch.
func (m *DropdownModel) Select(index int) error {
	item := m.Items.Model(index)
	if item == nil {
		return fmt.Errorf("dropdown %q: no item %d", m.id, index)
	}
	if m.emit != nil {
		m.emit(widget.SelectDropdownItem(m.path.Append(), index, item.ID()))
	}
	return nil
}

// Selected returns the selected item model, or nil.
func (m *DropdownModel) Selected() Model {
	if m.SelectedItemIndex == nil {
		return nil
	}
	return m.Items.Model(*m.SelectedItemIndex)
}

func (m *DropdownModel) Rebase(path widget.Path) {
	m.path = path.Append()
	m.Items.rebase()
}

func (m *DropdownModel) Widget() widget.Widget {
	w := m.header()
	w.Items = m.Items.widgets()
	if m.SelectedItemIndex != nil {
		w.SelectionIndex = widget.IntPtr(*m.SelectedItemIndex)
	}
	return w
}
