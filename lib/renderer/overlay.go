// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package renderer

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/workbench/lib/component"
)

// dropdownOverlay is the open item list of a dropdown. It captures
// keyboard input while open.
type dropdownOverlay struct {
	dropdownID string
	labels     []string
	cursor     int
}

// openOverlay lists the items of dropdown with the cursor on the
// selected item.
func openOverlay(dropdown *component.DropdownModel) *dropdownOverlay {
	overlay := &dropdownOverlay{dropdownID: dropdown.ID()}
	overlay.refresh(dropdown)
	if dropdown.SelectedItemIndex != nil {
		overlay.cursor = *dropdown.SelectedItemIndex
	}
	overlay.clamp()
	return overlay
}

// refresh re-reads the item labels after a patch.
func (o *dropdownOverlay) refresh(dropdown *component.DropdownModel) {
	o.labels = o.labels[:0]
	for _, item := range dropdown.Items.Models() {
		label := item.ID()
		if labeled, ok := item.(*component.DropdownItemModel); ok {
			label = labeled.Label
		}
		o.labels = append(o.labels, label)
	}
	o.clamp()
}

func (o *dropdownOverlay) clamp() {
	o.cursor = min(max(o.cursor, 0), max(len(o.labels)-1, 0))
}

// moveUp moves the cursor up by one, wrapping to the bottom.
func (o *dropdownOverlay) moveUp() {
	o.cursor--
	if o.cursor < 0 {
		o.cursor = len(o.labels) - 1
	}
	o.clamp()
}

// moveDown moves the cursor down by one, wrapping to the top.
func (o *dropdownOverlay) moveDown() {
	o.cursor++
	if o.cursor >= len(o.labels) {
		o.cursor = 0
	}
}

// width is the visible width of every rendered line: a marker column,
// a space, the widest label, and one cell of padding on each side.
func (o *dropdownOverlay) width() int {
	widest := 0
	for _, label := range o.labels {
		widest = max(widest, ansi.StringWidth(label))
	}
	return 3 + widest + 2
}

// render produces the overlay lines, all of the same width.
func (o *dropdownOverlay) render(s styles) []string {
	if len(o.labels) == 0 {
		return []string{s.overlay.Render(" (no items) ")}
	}
	inner := o.width() - 2
	lines := make([]string, len(o.labels))
	for i, label := range o.labels {
		marker := " "
		style := s.overlay
		if i == o.cursor {
			marker = ">"
			style = s.focused
		}
		content := marker + " " + label
		content += strings.Repeat(" ", max(inner-ansi.StringWidth(content), 0))
		lines[i] = style.Render(" " + content + " ")
	}
	return lines
}

// spliceOverlay replaces a rectangular region of a rendered view with
// overlay lines placed at (anchorX, anchorY). Escape sequences on both
// sides of the overlay are preserved.
func spliceOverlay(view string, overlayLines []string, anchorX, anchorY int) string {
	if len(overlayLines) == 0 {
		return view
	}
	viewLines := strings.Split(view, "\n")
	overlayWidth := ansi.StringWidth(overlayLines[0])

	for i, overlayLine := range overlayLines {
		row := anchorY + i
		if row < 0 || row >= len(viewLines) {
			continue
		}
		viewLine := viewLines[row]

		var result strings.Builder
		if anchorX > 0 {
			result.WriteString(ansi.Truncate(viewLine, anchorX, ""))
		}
		result.WriteString("\x1b[0m")
		result.WriteString(overlayLine)
		result.WriteString("\x1b[0m")
		if suffixStart := anchorX + overlayWidth; suffixStart < ansi.StringWidth(viewLine) {
			result.WriteString(ansi.TruncateLeft(viewLine, suffixStart, ""))
		}
		viewLines[row] = result.String()
	}
	return strings.Join(viewLines, "\n")
}
