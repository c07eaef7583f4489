// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Call is one inbound message or request as seen by a handler.
type Call struct {
	Key     string
	Channel string

	// Peer is the sending peer, or empty for an in-process request.
	Peer string

	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (c Call) Decode(v any) error {
	return decodePayload(c.Payload, v)
}

// Handler processes a message on one channel. For requests the result
// is sent back as the response payload; for simple messages it is
// discarded and a non-nil error is only logged.
type Handler func(ctx context.Context, call Call) (any, error)

// Node is a subscription to one key.
type Node struct {
	d   *Dispatcher
	id  string
	key string

	// Guarded by d.mu.
	handlers     map[string]Handler
	onConnect    callbacks
	onDisconnect callbacks
	closed       bool
}

// Open creates a node for key and announces it to every peer.
func (d *Dispatcher) Open(key string) (*Node, error) {
	node := &Node{d: d, id: uuid.NewString(), key: key, handlers: make(map[string]Handler)}

	d.announceMu.Lock()
	defer d.announceMu.Unlock()
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	d.nodes[key] = append(d.nodes[key], node)
	peers := d.peerListLocked()
	d.mu.Unlock()

	announcement := Message{Kind: KindConnect, Key: key, NodeID: node.id}
	for _, p := range peers {
		if err := p.port.Send(announcement); err != nil {
			d.logger.Warn("announcing node to peer", "peer", p.id, "key", key, "error", err)
		}
	}
	return node, nil
}

func (d *Dispatcher) peerListLocked() []*peer {
	peers := make([]*peer, 0, len(d.peers))
	for _, p := range d.peers {
		peers = append(peers, p)
	}
	return peers
}

// ID returns the node's unique id.
func (n *Node) ID() string { return n.id }

// Key returns the key the node subscribes to.
func (n *Node) Key() string { return n.key }

// Handle installs handler for channel, replacing any previous one. A
// nil handler removes it.
func (n *Node) Handle(channel string, handler Handler) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	if handler == nil {
		delete(n.handlers, channel)
		return
	}
	n.handlers[channel] = handler
}

// OnConnect registers fn to run when a peer opens its first node for
// the key. fn runs on the peer's reader goroutine.
func (n *Node) OnConnect(fn func(peer string)) (cancel func()) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return n.onConnect.add(&n.d.mu, fn)
}

// OnDisconnect registers fn to run when a peer closes its last node
// for the key or detaches.
func (n *Node) OnDisconnect(fn func(peer string)) (cancel func()) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return n.onDisconnect.add(&n.d.mu, fn)
}

// Subscribers returns the peers with open nodes for the key, oldest
// first.
func (n *Node) Subscribers() []string {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	var peers []string
	for _, s := range n.d.remote[n.key] {
		peers = append(peers, s.peer)
	}
	return peers
}

// Send delivers a simple message to the peer that most recently
// subscribed to the key.
func (n *Node) Send(channel string, payload any) error {
	n.d.mu.Lock()
	target := n.d.newestSubscriberLocked(n.key, "")
	n.d.mu.Unlock()
	if target == nil {
		return fmt.Errorf("%w %q", ErrNoSubscribers, n.key)
	}
	return n.SendTo(target.id, channel, payload)
}

// SendTo delivers a simple message to one peer.
func (n *Node) SendTo(peer, channel string, payload any) error {
	encoded, err := encodePayload(payload)
	if err != nil {
		return err
	}
	return n.d.sendTo(peer, Message{Kind: KindSimple, Key: n.key, Channel: channel, Payload: encoded})
}

// Broadcast delivers a simple message to every subscribed peer. It
// returns the joined errors of the sends that failed.
func (n *Node) Broadcast(channel string, payload any) error {
	encoded, err := encodePayload(payload)
	if err != nil {
		return err
	}
	message := Message{Kind: KindSimple, Key: n.key, Channel: channel, Payload: encoded}
	var errs []error
	for _, peer := range n.Subscribers() {
		if err := n.d.sendTo(peer, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Request sends payload on channel and decodes the answer into result.
// Another local node handling the channel answers in process;
// otherwise the request goes to the peer that most recently subscribed
// to the key.
func (n *Node) Request(ctx context.Context, channel string, payload any, result any) error {
	encoded, err := encodePayload(payload)
	if err != nil {
		return err
	}

	var answer json.RawMessage
	if handler := n.d.localHandler(n.key, channel, n); handler != nil {
		value, err := handler(ctx, Call{Key: n.key, Channel: channel, Payload: encoded})
		if err != nil {
			return err
		}
		if answer, err = encodePayload(value); err != nil {
			return err
		}
	} else {
		answer, err = n.d.forward(ctx, n.key, channel, encoded, "")
		if err != nil {
			return err
		}
	}
	return decodePayload(answer, result)
}

// Close withdraws the node from every peer. Handlers and callbacks
// stop running.
func (n *Node) Close() {
	d := n.d
	d.announceMu.Lock()
	defer d.announceMu.Unlock()
	d.mu.Lock()
	if n.closed {
		d.mu.Unlock()
		return
	}
	n.closed = true
	nodes := slices.DeleteFunc(slices.Clone(d.nodes[n.key]), func(other *Node) bool { return other == n })
	if len(nodes) == 0 {
		delete(d.nodes, n.key)
	} else {
		d.nodes[n.key] = nodes
	}
	peers := d.peerListLocked()
	d.mu.Unlock()

	withdrawal := Message{Kind: KindDisconnect, Key: n.key, NodeID: n.id}
	for _, p := range peers {
		if err := p.port.Send(withdrawal); err != nil {
			d.logger.Debug("withdrawing node from peer", "peer", p.id, "key", n.key, "error", err)
		}
	}
}

// callbacks is an ordered set of peer callbacks guarded by the
// dispatcher mutex.
type callbacks struct {
	entries []*callback
}

type callback struct {
	fn func(string)
}

func (c *callbacks) add(mu interface {
	Lock()
	Unlock()
}, fn func(string)) func() {
	entry := &callback{fn: fn}
	c.entries = append(c.entries, entry)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		c.entries = slices.DeleteFunc(c.entries, func(other *callback) bool { return other == entry })
	}
}

func (c *callbacks) snapshot() []func(string) {
	fns := make([]func(string), len(c.entries))
	for i, entry := range c.entries {
		fns[i] = entry.fn
	}
	return fns
}
