// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/bureau-foundation/workbench/lib/codec"
)

// ErrClosed is returned by Send and Receive after Close.
var ErrClosed = errors.New("ipc: port closed")

// Port is a message connection to one peer.
type Port interface {
	// Peer identifies the remote end. It is unique for the lifetime
	// of the process.
	Peer() string

	// Send encodes v and writes it to the peer.
	Send(v any) error

	// Receive blocks for the next value and decodes it into v.
	Receive(v any) error

	// Close releases the connection. Pending and later Receive calls
	// on the peer's side return io.EOF.
	Close() error
}

// pipeBuffer is the number of values a pipe holds before Send blocks.
const pipeBuffer = 64

// Pipe returns two connected in-memory ports.
func Pipe() (Port, Port) {
	shared := &pipeState{done: make(chan struct{})}
	ab := make(chan []byte, pipeBuffer)
	ba := make(chan []byte, pipeBuffer)
	a := &pipePort{peer: "pipe:" + uuid.NewString(), in: ba, out: ab, state: shared}
	b := &pipePort{peer: "pipe:" + uuid.NewString(), in: ab, out: ba, state: shared}
	return a, b
}

type pipeState struct {
	once sync.Once
	done chan struct{}
}

type pipePort struct {
	// peer names the other end as seen from this port.
	peer  string
	in    <-chan []byte
	out   chan<- []byte
	state *pipeState
}

func (p *pipePort) Peer() string { return p.peer }

func (p *pipePort) Send(v any) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	select {
	case <-p.state.done:
		return ErrClosed
	default:
	}
	select {
	case p.out <- data:
		return nil
	case <-p.state.done:
		return ErrClosed
	}
}

func (p *pipePort) Receive(v any) error {
	var data []byte
	select {
	case data = <-p.in:
	default:
		select {
		case data = <-p.in:
		case <-p.state.done:
			return io.EOF
		}
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding message: %w", err)
	}
	return nil
}

func (p *pipePort) Close() error {
	p.state.once.Do(func() { close(p.state.done) })
	return nil
}
