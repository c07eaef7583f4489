// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ipc carries messages between the workbench back-end and its
// renderer processes.
//
// A [Port] is one bidirectional connection to a peer. Three kinds
// exist:
//
//   - unix socket ports ([Listen], [Dial]) encode each value as one
//     CBOR item (lib/codec). The listener identifies each connecting
//     process by the pid from SO_PEERCRED.
//   - WebSocket ports ([NewWebSocketHandler], [DialWebSocket]) send
//     each value as one JSON text frame, for renderers running in a
//     browser.
//   - [Pipe] connects two ports in memory. Values are encoded on send
//     and decoded on receive, so neither side can observe the other's
//     memory.
//
// Send is safe for concurrent use. Receive must be called from a
// single goroutine. Receive returns [io.EOF] when the peer closed the
// connection and [ErrClosed] after the local side called Close.
package ipc
