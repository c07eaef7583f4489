// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package component is the consumer side of the widget protocol: it
// rebuilds a received widget tree as a tree of component models and
// keeps that tree in sync by applying changes addressed by path.
//
// [Factory.CreateModel] converts a widget into a model, children
// first. Each model keeps the id and the widget path it was built
// from. [Model.ApplyWidgetChange] requires its own path to be a strict
// prefix of the change path; it then hands the change to the child
// model named by the next step (or to the element of a child list
// named by the next two steps) and otherwise applies it to itself with
// [widget.ApplyChange] on the relative path.
//
// Two models translate between wire and model shapes:
//
//   - [DropdownModel] stores the wire property "selectionIndex" as
//     SelectedItemIndex.
//   - [LayoutContainerModel] inserts a [SplitterModel] between every
//     pair of adjacent resizable children. Splitters exist only on
//     this side, so child indices in changes are logical and are
//     translated to physical positions before use.
//
// Models are not safe for concurrent use; the owner of a tree (the
// display client) serializes changes and reads.
package component
