// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for workbench packages.
//
// [RequireReceive], [RequireSend], [RequireClosed], and
// [RequireNoReceive] wrap the select-with-deadline pattern so that
// tests waiting on goroutines (dispatcher readers, presentation
// queues, file watchers) never hang and never call time.After
// themselves. These helpers are the only place tests touch the wall
// clock; everything else uses lib/clock's FakeClock.
//
// [SocketDir] creates a short directory under /tmp for Unix domain
// sockets, whose paths are limited to 108 bytes.
//
// [UniqueID] generates distinguishable identifiers for node keys,
// channels, and payloads.
//
// [Logger] returns a logger for components under test that only
// surfaces errors.
//
// All helpers fail the test with t.Fatalf rather than returning
// errors.
package testutil
