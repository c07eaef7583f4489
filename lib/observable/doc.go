// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package observable provides the two narrow publish/subscribe
// capabilities that back dynamic command output: a [Value] whose
// watchers see every new value, and a [List] whose watchers see every
// structural change as an update at an index or a splice.
//
// Watchers run synchronously on the mutating goroutine, after the
// mutation is visible through the getters, in the order mutations
// happen. Mutations of one observable are serialized, so a watcher
// never sees changes out of order. A watcher must not mutate the
// observable it is watching; hand the work to another goroutine
// instead. A watcher may cancel its own subscription.
package observable
