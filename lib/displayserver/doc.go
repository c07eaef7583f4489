// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package displayserver connects a presentation tree in the back-end
// to component-model trees in renderer processes.
//
// The [Server] mounts a root presentation, renders it into a widget
// tree, and keeps an authoritative raw copy of that tree current by
// applying every patch the presentations emit. Each renderer that opens
// a node for [Key] receives the current tree on the "render" channel,
// followed by every later patch on the "patch" channel. Patches are
// applied to the copy and broadcast under one lock, so a renderer never
// sees a patch that predates its snapshot.
//
// The [Client] rebuilds the received tree as component models and
// applies patches change by change. A change that does not fit the
// model tree is logged with its path and skipped; the client then asks
// the server for a fresh tree on the "snapshot" channel. User actions
// on button and dropdown models travel back on the "event" channel,
// where the server resolves the event path against its output tree and
// hands the event to the owning presentation. Event handler failures
// are logged and dropped.
package displayserver
