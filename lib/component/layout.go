// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"fmt"

	"github.com/bureau-foundation/workbench/lib/observable"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// resizable is implemented by models that can sit on either side of a
// splitter.
type resizable interface {
	IsResizable() bool
}

func isResizable(model Model) bool {
	r, ok := model.(resizable)
	return ok && r.IsResizable()
}

// SplitterModel separates two adjacent resizable children of a layout
// container. It has no widget counterpart and no widget path.
type SplitterModel struct {
	id        string
	Direction widget.Direction
	Before    string
	After     string
	revision  *observable.Value[uint64]
}

func newSplitter(direction widget.Direction, before, after Model) *SplitterModel {
	return &SplitterModel{
		id:        fmt.Sprintf("splitter:%s:%s", before.ID(), after.ID()),
		Direction: direction,
		Before:    before.ID(),
		After:     after.ID(),
		revision:  observable.NewValue[uint64](0),
	}
}

func (s *SplitterModel) ID() string                          { return s.id }
func (s *SplitterModel) Kind() widget.Kind                   { return -1 }
func (s *SplitterModel) WidgetPath() widget.Path             { return nil }
func (s *SplitterModel) Revision() *observable.Value[uint64] { return s.revision }
func (s *SplitterModel) Rebase(widget.Path)                  {}
func (s *SplitterModel) Widget() widget.Widget               { return widget.Widget{Kind: -1, ID: s.id} }
func (s *SplitterModel) Property(string) (any, bool)         { return nil, false }

func (s *SplitterModel) SetProperty(name string, _ any) error {
	return fmt.Errorf("splitter %q has no property %q: %w", s.id, name, ErrInvalidValue)
}

func (s *SplitterModel) ApplyWidgetChange(change widget.Change, _ Create) error {
	return fmt.Errorf("splitter %q: change at %s: %w", s.id, change.Path, ErrPathMismatch)
}

// LayoutContainerModel mirrors a layout container. Its physical child
// list interleaves splitters between adjacent resizable children; the
// logical list seen by the producer does not contain them.
type LayoutContainerModel struct {
	base
	Direction widget.Direction
	Resizable bool
	physical  []Model
}

func newLayoutContainerModel(w widget.Widget, children []Model) *LayoutContainerModel {
	model := &LayoutContainerModel{base: newBase(w), Direction: w.Direction, Resizable: w.Resizable}
	model.setLogical(children)
	return model
}

// IsResizable reports whether the container may be resized inside an
// enclosing layout.
func (m *LayoutContainerModel) IsResizable() bool { return m.Resizable }

// Physical returns the child models including splitters, in display
// order.
func (m *LayoutContainerModel) Physical() []Model {
	return append([]Model(nil), m.physical...)
}

// Logical returns the child models without splitters.
func (m *LayoutContainerModel) Logical() []Model {
	logical := make([]Model, 0, len(m.physical))
	for _, child := range m.physical {
		if _, isSplitter := child.(*SplitterModel); !isSplitter {
			logical = append(logical, child)
		}
	}
	return logical
}

// PhysicalIndex translates a logical child index into its position in
// the physical list. The second result is false when logical is out of
// range.
func (m *LayoutContainerModel) PhysicalIndex(logical int) (int, bool) {
	if logical < 0 {
		return 0, false
	}
	seen := 0
	for i, child := range m.physical {
		if _, isSplitter := child.(*SplitterModel); isSplitter {
			continue
		}
		if seen == logical {
			return i, true
		}
		seen++
	}
	return 0, false
}

// setLogical rebuilds the physical list from logical children.
func (m *LayoutContainerModel) setLogical(children []Model) {
	physical := make([]Model, 0, 2*len(children))
	for i, child := range children {
		if i > 0 && isResizable(children[i-1]) && isResizable(child) {
			physical = append(physical, newSplitter(m.Direction, children[i-1], child))
		}
		physical = append(physical, child)
	}
	m.physical = physical
}

func (m *LayoutContainerModel) Property(name string) (any, bool) {
	switch name {
	case "direction":
		return string(m.Direction), true
	case "resizable":
		return m.Resizable, true
	case "children":
		return layoutChildren{m}, true
	}
	return nil, false
}

func (m *LayoutContainerModel) SetProperty(name string, value any) error {
	switch name {
	case "direction":
		direction, err := asString(name, value)
		if err != nil {
			return err
		}
		m.Direction = widget.Direction(direction)
		m.setLogical(m.Logical())
	case "resizable":
		resizable, err := asBool(name, value)
		if err != nil {
			return err
		}
		m.Resizable = resizable
	default:
		return unknownProperty(m, name)
	}
	m.touch()
	return nil
}

// ApplyWidgetChange routes changes below a child to that child after
// translating its logical index. Changes to the child list itself go
// through layoutChildren, which translates as well.
func (m *LayoutContainerModel) ApplyWidgetChange(change widget.Change, create Create) error {
	relative, err := relativePath(m, change)
	if err != nil {
		return err
	}
	if len(relative) > 2 && relative[0] == widget.Name("children") && relative[1].IsIndex() {
		if physical, ok := m.PhysicalIndex(relative[1].Index()); ok {
			if err := m.physical[physical].ApplyWidgetChange(change, create); err != nil {
				return err
			}
			// A child turning resizable on or off gains or loses its
			// splitters.
			if len(relative) == 3 && relative[2] == widget.Name("resizable") {
				m.setLogical(m.Logical())
				m.touch()
			}
			return nil
		}
	}
	return applyLocally(m, change, relative, create)
}

func (m *LayoutContainerModel) Rebase(path widget.Path) {
	m.path = path.Append()
	for i, child := range m.Logical() {
		child.Rebase(m.childPath(i))
	}
}

func (m *LayoutContainerModel) childPath(logical int) widget.Path {
	return m.path.Append(widget.Name("children"), widget.Index(logical))
}

func (m *LayoutContainerModel) Widget() widget.Widget {
	w := m.header()
	w.Direction = m.Direction
	w.Resizable = m.Resizable
	logical := m.Logical()
	w.Children = make([]widget.Widget, len(logical))
	for i, child := range logical {
		w.Children[i] = child.Widget()
	}
	return w
}

// layoutChildren exposes a layout container's logical children as a
// widget.Array.
type layoutChildren struct {
	m *LayoutContainerModel
}

func (c layoutChildren) Len() int { return len(c.m.Logical()) }

func (c layoutChildren) At(index int) any {
	physical, _ := c.m.PhysicalIndex(index)
	return c.m.physical[physical]
}

func (c layoutChildren) SetAt(index int, value any) error {
	model, ok := value.(Model)
	if !ok {
		return fmt.Errorf("children[%d]: %T is not a model: %w", index, value, ErrInvalidValue)
	}
	logical := c.m.Logical()
	if index < 0 || index >= len(logical) {
		return fmt.Errorf("children[%d]: %w", index, widget.ErrIndexRange)
	}
	model.Rebase(c.m.childPath(index))
	logical[index] = model
	c.m.setLogical(logical)
	c.m.touch()
	return nil
}

func (c layoutChildren) Splice(start, deleteCount int, added ...any) error {
	models := make([]Model, len(added))
	for i, value := range added {
		model, ok := value.(Model)
		if !ok {
			return fmt.Errorf("children splice element %d: %T is not a model: %w", i, value, ErrInvalidValue)
		}
		models[i] = model
	}
	logical, _, err := widget.SpliceSlice(c.m.Logical(), start, deleteCount, models...)
	if err != nil {
		return fmt.Errorf("children: %w", err)
	}
	for i := start; i < len(logical); i++ {
		logical[i].Rebase(c.m.childPath(i))
	}
	c.m.setLogical(logical)
	c.m.touch()
	return nil
}
