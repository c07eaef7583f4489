// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package command provides the command abstraction that presentations
// execute to obtain data and to apply user actions.
//
// A [Command] takes zero or one argument and returns an [Output]
// record. The record is one of four shapes:
//
//   - StaticValue: a single value snapshot.
//   - DynamicValue: a value snapshot plus a [ValueSource] that reports
//     every later value.
//   - StaticArray: an item snapshot.
//   - DynamicArray: an item snapshot plus a [ListSource] that reports
//     every later update-at-index and splice.
//
// Every record declares the [appobject.Type] of its value or items so
// that a presenter can pick presentations for them. The dynamic
// sources are adapters over [observable.Value] and [observable.List];
// presentations depend only on the two narrow interfaces.
//
// A [Registry] maps command names to commands so configuration can
// bind toolbar buttons to actions by name.
package command
