// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package widget defines the toolkit-independent description of a user
// interface that the workbench back-end sends to renderer processes,
// and the incremental change format that keeps a rendered tree in sync
// with its producer.
//
// There are three pieces:
//
//   - [Widget]: a plain snapshot of one UI node (window, layout
//     container, panel, button, dropdown, dropdown item, toolbar).
//     Widgets are values. They cross the process boundary as JSON and
//     are never shared by reference between producer and consumer.
//   - [Path]: the address of a node or property inside a widget tree,
//     a sequence of property-name and array-index steps from the root.
//     The same path addresses the same location in the producer's
//     widget tree and in the consumer's component-model tree, which is
//     what lets a patch or an event cross between the two.
//   - [Change] and [Patch]: the four edit operations (replace a widget,
//     replace a value, splice a widget array, splice a value array) and
//     ordered lists of them. [ApplyChange] applies one operation to any
//     in-memory tree built from [Object] and [Array] nodes or from raw
//     decoded JSON (map[string]any and []any).
//
// # Wire format
//
// Enumerations are integers on the wire and must not be renumbered:
//
//	Kind:      Window=0 LayoutContainer=1 Panel=2 Button=3 Dropdown=4 DropdownItem=5 Toolbar=6
//	Op:        ReplaceWidget=0 ReplaceValue=1 SpliceWidgetArray=2 SpliceValueArray=3
//	EventKind: DidSelectDropdownItem=0 DidClickButton=1
//
// Container widgets always carry a "children" array and dropdowns
// always carry "items" and "selectionIndex" (null when nothing is
// selected), even when empty, so that a path such as
// ["children", 0] or ["selectionIndex"] resolves on a freshly built
// tree.
//
// # Failure policy
//
// A path that does not resolve while walking toward the mutation target
// is a protocol violation. [ApplyChange] returns a *[PathError] naming
// the offending path and step instead of guessing; callers log it and
// drop the single change.
package widget
