// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package renderer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/workbench/lib/component"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// point is a screen position.
type point struct {
	x, y int
}

// painter draws a model tree into a fixed area. It records where each
// focusable control was drawn so overlays can be anchored to it.
type painter struct {
	styles  styles
	focused string
	anchors map[string]point
}

func newPainter(s styles, focused string) *painter {
	return &painter{styles: s, focused: focused, anchors: make(map[string]point)}
}

// draw renders model into exactly height lines of exactly width
// columns, with its top-left corner at origin.
func (p *painter) draw(model component.Model, origin point, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	switch m := model.(type) {
	case *component.ContainerModel:
		switch m.Kind() {
		case widget.KindWindow:
			return p.window(m, origin, width, height)
		case widget.KindToolbar:
			return fit(p.toolbar(m, origin), width, height)
		default:
			return p.panel(m, origin, width, height)
		}
	case *component.LayoutContainerModel:
		return p.layout(m, origin, width, height)
	case *component.SplitterModel:
		return p.splitter(m, width, height)
	case *component.ButtonModel, *component.DropdownModel:
		p.anchors[model.ID()] = origin
		return fit(p.control(model), width, height)
	case *component.DropdownItemModel:
		return fit(p.styles.normal.Render(m.Label), width, height)
	default:
		return fit(p.styles.faint.Render(fmt.Sprintf("%s %s", model.Kind(), model.ID())), width, height)
	}
}

// window draws the title line and stacks the children below it.
func (p *painter) window(m *component.ContainerModel, origin point, width, height int) string {
	title := fit(p.styles.header.Render(m.Title), width, 1)
	if height == 1 {
		return title
	}
	body := p.stack(m.Children.Models(), point{origin.x, origin.y + 1}, width, height-1)
	return title + "\n" + body
}

// panel draws a box with the title in the top border and the children
// stacked inside.
func (p *painter) panel(m *component.ContainerModel, origin point, width, height int) string {
	if width < 4 || height < 2 {
		return fit(p.styles.header.Render(m.Title), width, height)
	}
	border := lipgloss.RoundedBorder()
	innerWidth := width - 2

	title := ansi.Truncate(m.Title, innerWidth-2, "…")
	top := p.styles.border.Render(border.TopLeft + border.Top)
	if title != "" {
		top += p.styles.header.Render(title)
	}
	top += p.styles.border.Render(strings.Repeat(border.Top, innerWidth-1-ansi.StringWidth(title)) + border.TopRight)

	lines := []string{top}
	if height > 2 {
		body := p.stack(m.Children.Models(), point{origin.x + 1, origin.y + 1}, innerWidth, height-2)
		side := p.styles.border.Render(border.Left)
		right := p.styles.border.Render(border.Right)
		for _, line := range strings.Split(body, "\n") {
			lines = append(lines, side+line+right)
		}
	}
	bottom := border.BottomLeft + strings.Repeat(border.Bottom, innerWidth) + border.BottomRight
	lines = append(lines, p.styles.border.Render(bottom))
	return strings.Join(lines, "\n")
}

// stack divides height among children vertically. Toolbars take one
// line; the others share the rest.
func (p *painter) stack(children []component.Model, origin point, width, height int) string {
	if len(children) == 0 {
		return fit("", width, height)
	}
	fixed, flexible := 0, 0
	for _, child := range children {
		if child.Kind() == widget.KindToolbar {
			fixed++
		} else {
			flexible++
		}
	}
	shares := distribute(max(height-fixed, 0), flexible)

	var blocks []string
	y, used := origin.y, 0
	for _, child := range children {
		size := 1
		if child.Kind() != widget.KindToolbar {
			size, shares = shares[0], shares[1:]
		}
		size = min(size, height-used)
		if size <= 0 {
			continue
		}
		blocks = append(blocks, p.draw(child, point{origin.x, y}, width, size))
		y += size
		used += size
	}
	if used < height {
		blocks = append(blocks, fit("", width, height-used))
	}
	return strings.Join(blocks, "\n")
}

// layout divides the area along the container's direction. Splitters
// take one cell; the other children share the rest.
func (p *painter) layout(m *component.LayoutContainerModel, origin point, width, height int) string {
	children := m.Physical()
	if len(children) == 0 {
		return fit("", width, height)
	}
	horizontal := m.Direction == widget.Horizontal
	total := height
	if horizontal {
		total = width
	}
	splitters := 0
	for _, child := range children {
		if _, ok := child.(*component.SplitterModel); ok {
			splitters++
		}
	}
	shares := distribute(max(total-splitters, 0), len(children)-splitters)

	var blocks []string
	offset := 0
	for _, child := range children {
		size := 1
		if _, ok := child.(*component.SplitterModel); !ok {
			size, shares = shares[0], shares[1:]
		}
		if size <= 0 {
			continue
		}
		if horizontal {
			blocks = append(blocks, p.draw(child, point{origin.x + offset, origin.y}, size, height))
		} else {
			blocks = append(blocks, p.draw(child, point{origin.x, origin.y + offset}, width, size))
		}
		offset += size
	}
	if horizontal {
		return fit(lipgloss.JoinHorizontal(lipgloss.Top, blocks...), width, height)
	}
	return fit(lipgloss.JoinVertical(lipgloss.Left, blocks...), width, height)
}

func (p *painter) splitter(m *component.SplitterModel, width, height int) string {
	if m.Direction == widget.Horizontal {
		return p.styles.splitter.Render(strings.TrimSuffix(strings.Repeat("│\n", height), "\n"))
	}
	return fit(p.styles.splitter.Render(strings.Repeat("─", width)), width, height)
}

// toolbar draws the controls on one line separated by a space.
func (p *painter) toolbar(m *component.ContainerModel, origin point) string {
	var line strings.Builder
	x := origin.x
	for i, child := range m.Children.Models() {
		if i > 0 {
			line.WriteString(" ")
			x++
		}
		var text string
		switch child.(type) {
		case *component.ButtonModel, *component.DropdownModel:
			p.anchors[child.ID()] = point{x, origin.y}
			text = p.control(child)
		default:
			text = p.styles.faint.Render(child.ID())
		}
		line.WriteString(text)
		x += ansi.StringWidth(text)
	}
	return line.String()
}

// control draws a button or a closed dropdown.
func (p *painter) control(model component.Model) string {
	var text string
	switch m := model.(type) {
	case *component.ButtonModel:
		text = "[ " + m.Label + " ]"
	case *component.DropdownModel:
		label := "(none)"
		if selected, ok := m.Selected().(*component.DropdownItemModel); ok {
			label = selected.Label
		}
		text = " " + label + " ▾ "
	}
	if model.ID() == p.focused {
		return p.styles.focused.Render(text)
	}
	return p.styles.button.Render(text)
}

// fit truncates or pads content to exactly height lines of exactly
// width columns.
func fit(content string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		lineWidth := ansi.StringWidth(line)
		switch {
		case lineWidth > width:
			lines[i] = ansi.Truncate(line, width, "…")
		case lineWidth < width:
			lines[i] = line + strings.Repeat(" ", width-lineWidth)
		}
	}
	return strings.Join(lines, "\n")
}

// distribute splits total into n near-equal parts, giving the
// remainder to the first parts.
func distribute(total, n int) []int {
	if n <= 0 {
		return nil
	}
	parts := make([]int, n)
	for i := range parts {
		parts[i] = total / n
		if i < total%n {
			parts[i]++
		}
	}
	return parts
}
