// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package debugconfig manages the debug configurations offered in the
// workbench toolbar.
//
// Configurations come from a launch file: JSON that may contain
// comments and trailing commas, with a "configurations" array whose
// entries each carry at least a unique "name". The [Manager] holds
// them in an observable list plus an observable current selection, and
// exposes list, select, and current commands for the presentation
// layer. [Manager.WatchFile] reloads the file when it changes on disk
// and turns each reload into the smallest list updates and splice
// that reproduce it, so the toolbar dropdown is patched rather than
// re-rendered.
package debugconfig
