// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package workbench assembles the back end of the debugger workbench.
//
// A [Workbench] owns the debug configuration manager, the command
// registry, the presenter with every presentation registered, and the
// display server. [Workbench.Run] builds the main window from the
// configured description, mounts it on the display server, and keeps
// the configuration list in sync with the launch file until its
// context ends.
//
// Launching is delegated: the "debug.start" command sends the selected
// configuration as a request on the "launch" channel of the "debugger"
// key, answered by whichever debug adapter process subscribed last.
package workbench
