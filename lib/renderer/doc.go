// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package renderer draws a display client's component model tree in
// the terminal with bubbletea.
//
// The [Model] reads the tree through a [Source] (normally a
// displayserver.Client) and redraws whenever the source reports an
// applied render or patch. Windows stack their children vertically,
// layout containers divide their area among their children with a
// one-cell splitter between adjacent resizable ones, panels are boxed
// with their title, and toolbars lay out buttons and dropdowns on a
// single line.
//
// Buttons and dropdowns take keyboard focus in tree order. Activating
// a button clicks it; activating a dropdown opens an overlay listing
// its items, and choosing one reports the selection. Neither changes
// the local tree: the back end answers with patches.
//
// [StatusLogHandler] routes warnings from background goroutines to
// the status line so they do not corrupt the alternate screen.
package renderer
