// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration shared by every process
// of the workbench.
//
// Dispatch messages travel between Go processes as CBOR values over
// unix sockets (see lib/ipc). The message payload itself stays JSON,
// carried as a CBOR byte string, so browser renderers on the WebSocket
// port and Go renderers on a socket see the same payload bytes.
//
// Encoding is Core Deterministic (RFC 8949 section 4.2). Decoding into
// an interface produces map[string]any, never map[any]any.
//
// Types carry `json` struct tags; fxamacker/cbor falls back to them
// when no `cbor` tag is present.
package codec
