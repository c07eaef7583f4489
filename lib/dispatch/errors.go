// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSubscribers is returned when no peer and no other local
	// node serves the key.
	ErrNoSubscribers = errors.New("no subscribers for key")

	// ErrTimeout is returned when a request receives no answer within
	// the request timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrCancelled is returned when the caller's context ends, the
	// target peer disconnects, or the dispatcher closes while a
	// request is pending.
	ErrCancelled = errors.New("request cancelled")

	// ErrClosed is returned by operations on a closed dispatcher or
	// node.
	ErrClosed = errors.New("dispatcher closed")

	// ErrUnknownPeer is returned by SendTo for a peer that is not
	// attached.
	ErrUnknownPeer = errors.New("unknown peer")
)

// RemoteError is a handler failure reported by the peer that ran the
// handler.
type RemoteError struct {
	Name    string
	Message string
	Stack   string
}

func (e *RemoteError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// errorMessage converts a handler error into an error response for
// request id. Errors that are already remote keep their name and
// stack.
func errorMessage(key, channel string, id uint64, err error) Message {
	message := Message{Kind: KindError, Key: key, Channel: channel, RequestID: id, Name: "Error", Text: err.Error()}
	var remote *RemoteError
	if errors.As(err, &remote) {
		message.Name, message.Text, message.Stack = remote.Name, remote.Message, remote.Stack
		return message
	}
	switch {
	case errors.Is(err, ErrNoSubscribers):
		message.Name = "NoSubscribersError"
	case errors.Is(err, ErrTimeout):
		message.Name = "TimeoutError"
	case errors.Is(err, ErrCancelled):
		message.Name = "CancelledError"
	}
	return message
}
