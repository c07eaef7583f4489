// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch routes keyed messages between the processes of the
// workbench.
//
// Each process runs one [Dispatcher] and attaches a peer for every
// [ipc.Port] it holds. Feature code opens a [Node] for a logical key
// (for example "displayserver") and registers one [Handler] per
// channel on it. Opening a node announces the key to every peer;
// closing it withdraws the announcement. Each dispatcher counts, per
// key and per peer, how many remote nodes are open and calls the
// node's connect and disconnect callbacks when a peer's count leaves
// or returns to zero.
//
// Messages come in four wire kinds: simple (fire and forget), request,
// response, and error. Requests are numbered per dispatcher, wrap back
// to 1 before reaching 2^53, and are sent to the peer that most
// recently announced the key. A request fails immediately with
// [ErrNoSubscribers] when no peer has the key, with [ErrTimeout] when
// no answer arrives in time, and with [ErrCancelled] when the caller's
// context ends or the dispatcher closes. A late answer to a request
// that already failed is discarded. Handler errors reach the caller as
// a [*RemoteError] carrying the original name, message, and stack.
//
// A request for a key that another local node handles is answered in
// process without touching the transport. A request arriving from a
// peer for a key with no local handler is relayed to another peer
// subscribed to that key.
//
// Simple messages from one peer are delivered in arrival order on that
// peer's reader goroutine. Request handlers run on their own
// goroutines, so a handler may itself issue requests.
package dispatch
