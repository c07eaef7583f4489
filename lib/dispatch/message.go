// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"encoding/json"
	"fmt"
)

// Kind identifies a message variant on the wire.
type Kind int

const (
	KindSimple Kind = iota
	KindRequest
	KindResponse
	KindError

	// KindConnect and KindDisconnect announce that a node for Key
	// was opened or closed on the sending side.
	KindConnect
	KindDisconnect
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindError:
		return "error"
	case KindConnect:
		return "connect"
	case KindDisconnect:
		return "disconnect"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Message is the single envelope for every message kind. Fields that a
// kind does not use stay empty and are omitted from the wire.
type Message struct {
	Kind    Kind   `json:"kind"`
	Key     string `json:"key,omitempty"`
	Channel string `json:"channel,omitempty"`

	// NodeID addresses one node on the receiving side for simple
	// messages, and names the announced node for connect and
	// disconnect.
	NodeID string `json:"nodeId,omitempty"`

	// ID numbers a request.
	ID uint64 `json:"id,omitempty"`

	// RequestID matches a response or error to its request.
	RequestID uint64 `json:"requestId,omitempty"`

	Payload json.RawMessage `json:"payload,omitempty"`

	// Name, Text, and Stack describe a failed request.
	Name  string `json:"name,omitempty"`
	Text  string `json:"message,omitempty"`
	Stack string `json:"stack,omitempty"`
}

// encodePayload marshals v as JSON. A json.RawMessage passes through
// and nil becomes an absent payload.
func encodePayload(v any) (json.RawMessage, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return value, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return data, nil
}

// decodePayload unmarshals payload into v. A nil v discards the
// payload.
func decodePayload(payload json.RawMessage, v any) error {
	if v == nil {
		return nil
	}
	if raw, ok := v.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], payload...)
		return nil
	}
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}
