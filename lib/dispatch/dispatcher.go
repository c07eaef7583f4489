// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/workbench/lib/clock"
	"github.com/bureau-foundation/workbench/lib/ipc"
)

// DefaultRequestTimeout applies when Options.RequestTimeout is zero.
const DefaultRequestTimeout = 60 * time.Second

// maxRequestID is the largest integer a JSON peer can represent
// exactly.
const maxRequestID = 1<<53 - 1

// Options configures a Dispatcher.
type Options struct {
	Logger *slog.Logger
	Clock  clock.Clock

	// RequestTimeout bounds how long Request waits for an answer.
	RequestTimeout time.Duration
}

// Dispatcher is one process's endpoint. It is safe for concurrent use.
type Dispatcher struct {
	logger  *slog.Logger
	clock   clock.Clock
	timeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	readers sync.WaitGroup

	// announceMu is held from a change to the node or peer set until
	// the resulting Connect or Disconnect messages are sent, so every
	// peer sees a node's announcements in the order the node changed.
	// It is taken before mu.
	announceMu sync.Mutex

	mu     sync.Mutex
	closed bool
	nextID uint64
	peers  map[string]*peer
	// nodes lists local nodes per key in the order they were opened.
	nodes map[string][]*Node
	// remote lists, per key, the peers with open nodes for it, oldest
	// announcement first.
	remote  map[string][]*subscription
	pending map[uint64]*pendingRequest
}

type peer struct {
	id   string
	port ipc.Port
}

type subscription struct {
	peer  string
	count int
}

type pendingRequest struct {
	key     string
	channel string
	peer    string
	timer   *clock.Timer
	done    chan outcome
}

type outcome struct {
	payload json.RawMessage
	err     error
}

// New returns a Dispatcher with no peers.
func New(options Options) *Dispatcher {
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.RequestTimeout <= 0 {
		options.RequestTimeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		logger:  options.Logger,
		clock:   options.Clock,
		timeout: options.RequestTimeout,
		ctx:     ctx,
		cancel:  cancel,
		peers:   make(map[string]*peer),
		nodes:   make(map[string][]*Node),
		remote:  make(map[string][]*subscription),
		pending: make(map[uint64]*pendingRequest),
	}
}

// AddPeer attaches port, announces every open local node to it, and
// starts reading from it. The peer is detached when its port fails or
// closes.
func (d *Dispatcher) AddPeer(port ipc.Port) {
	p := &peer{id: port.Peer(), port: port}

	d.announceMu.Lock()
	defer d.announceMu.Unlock()
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		port.Close()
		return
	}
	d.peers[p.id] = p
	var announcements []Message
	for key, nodes := range d.nodes {
		for _, node := range nodes {
			announcements = append(announcements, Message{Kind: KindConnect, Key: key, NodeID: node.id})
		}
	}
	d.readers.Add(1)
	d.mu.Unlock()

	d.logger.Debug("peer attached", "peer", p.id)
	for _, message := range announcements {
		if err := port.Send(message); err != nil {
			d.logger.Warn("announcing node to peer", "peer", p.id, "key", message.Key, "error", err)
		}
	}
	go d.read(p)
}

// Peers returns the ids of the attached peers.
func (d *Dispatcher) Peers() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.peers))
	for id := range d.peers {
		ids = append(ids, id)
	}
	return ids
}

// Close cancels every pending request, detaches every peer, and waits
// for the reader goroutines to exit.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	pending := d.pending
	peers := d.peers
	d.pending = make(map[uint64]*pendingRequest)
	d.peers = make(map[string]*peer)
	d.remote = make(map[string][]*subscription)
	d.mu.Unlock()

	for _, request := range pending {
		request.timer.Stop()
		request.done <- outcome{err: fmt.Errorf("%w: dispatcher closed", ErrCancelled)}
	}
	for _, p := range peers {
		p.port.Close()
	}
	d.cancel()
	d.readers.Wait()
	return nil
}

func (d *Dispatcher) read(p *peer) {
	defer d.readers.Done()
	defer d.detach(p)
	for {
		var message Message
		if err := p.port.Receive(&message); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, ipc.ErrClosed) {
				d.logger.Warn("reading from peer", "peer", p.id, "error", err)
			}
			return
		}
		d.receive(p, message)
	}
}

// detach forgets p: its subscriptions end and requests waiting on it
// are cancelled.
func (d *Dispatcher) detach(p *peer) {
	p.port.Close()

	d.mu.Lock()
	if d.peers[p.id] != p {
		d.mu.Unlock()
		return
	}
	delete(d.peers, p.id)
	var keys []string
	for key := range d.remote {
		if d.removeSubscriptionLocked(key, p.id, true) {
			keys = append(keys, key)
		}
	}
	var orphaned []*pendingRequest
	for id, request := range d.pending {
		if request.peer == p.id {
			delete(d.pending, id)
			orphaned = append(orphaned, request)
		}
	}
	d.mu.Unlock()

	d.logger.Debug("peer detached", "peer", p.id)
	for _, request := range orphaned {
		request.timer.Stop()
		request.done <- outcome{err: fmt.Errorf("%w: peer %s disconnected", ErrCancelled, p.id)}
	}
	for _, key := range keys {
		d.notify(key, p.id, false)
	}
}

func (d *Dispatcher) receive(p *peer, message Message) {
	switch message.Kind {
	case KindConnect:
		d.mu.Lock()
		first := d.addSubscriptionLocked(message.Key, p.id)
		d.mu.Unlock()
		if first {
			d.notify(message.Key, p.id, true)
		}
	case KindDisconnect:
		d.mu.Lock()
		last := d.removeSubscriptionLocked(message.Key, p.id, false)
		d.mu.Unlock()
		if last {
			d.notify(message.Key, p.id, false)
		}
	case KindSimple:
		d.deliver(p.id, message)
	case KindRequest:
		go d.serve(p, message)
	case KindResponse:
		d.settle(message.RequestID, outcome{payload: message.Payload})
	case KindError:
		d.settle(message.RequestID, outcome{err: &RemoteError{Name: message.Name, Message: message.Text, Stack: message.Stack}})
	default:
		d.logger.Warn("dropping message of unknown kind", "peer", p.id, "kind", int(message.Kind))
	}
}

// addSubscriptionLocked counts one more remote node for key on peer
// and reports whether it is the peer's first.
func (d *Dispatcher) addSubscriptionLocked(key, peerID string) bool {
	for _, s := range d.remote[key] {
		if s.peer == peerID {
			s.count++
			return false
		}
	}
	d.remote[key] = append(d.remote[key], &subscription{peer: peerID, count: 1})
	return true
}

// removeSubscriptionLocked counts one remote node fewer (or all of
// them) and reports whether the peer no longer has any.
func (d *Dispatcher) removeSubscriptionLocked(key, peerID string, all bool) bool {
	subscriptions := d.remote[key]
	for i, s := range subscriptions {
		if s.peer != peerID {
			continue
		}
		s.count--
		if s.count > 0 && !all {
			return false
		}
		subscriptions = append(subscriptions[:i:i], subscriptions[i+1:]...)
		if len(subscriptions) == 0 {
			delete(d.remote, key)
		} else {
			d.remote[key] = subscriptions
		}
		return true
	}
	return false
}

// notify runs the connect or disconnect callbacks of every local node
// for key.
func (d *Dispatcher) notify(key, peerID string, connected bool) {
	d.mu.Lock()
	var callbacks []func(string)
	for _, node := range d.nodes[key] {
		if connected {
			callbacks = append(callbacks, node.onConnect.snapshot()...)
		} else {
			callbacks = append(callbacks, node.onDisconnect.snapshot()...)
		}
	}
	d.mu.Unlock()
	for _, fn := range callbacks {
		fn(peerID)
	}
}

// deliver runs the handlers for a simple message synchronously.
func (d *Dispatcher) deliver(peerID string, message Message) {
	d.mu.Lock()
	var handlers []Handler
	for _, node := range d.nodes[message.Key] {
		if message.NodeID != "" && node.id != message.NodeID {
			continue
		}
		if handler := node.handlers[message.Channel]; handler != nil {
			handlers = append(handlers, handler)
		}
	}
	d.mu.Unlock()

	if len(handlers) == 0 {
		d.logger.Debug("no handler for message", "key", message.Key, "channel", message.Channel, "peer", peerID)
		return
	}
	call := Call{Key: message.Key, Channel: message.Channel, Peer: peerID, Payload: message.Payload}
	for _, handler := range handlers {
		if _, err := handler(d.ctx, call); err != nil {
			d.logger.Warn("message handler failed", "key", message.Key, "channel", message.Channel, "peer", peerID, "error", err)
		}
	}
}

// serve answers a request from p, locally when a node handles the
// channel and otherwise by relaying it to another subscribed peer.
func (d *Dispatcher) serve(p *peer, message Message) {
	var payload json.RawMessage
	var err error
	if handler := d.localHandler(message.Key, message.Channel, nil); handler != nil {
		var result any
		result, err = handler(d.ctx, Call{Key: message.Key, Channel: message.Channel, Peer: p.id, Payload: message.Payload})
		if err == nil {
			payload, err = encodePayload(result)
		}
	} else {
		d.logger.Debug("relaying request", "key", message.Key, "channel", message.Channel, "from", p.id)
		payload, err = d.forward(d.ctx, message.Key, message.Channel, message.Payload, p.id)
	}

	reply := Message{Kind: KindResponse, RequestID: message.ID, Payload: payload}
	if err != nil {
		reply = errorMessage(message.Key, message.Channel, message.ID, err)
	}
	if sendErr := p.port.Send(reply); sendErr != nil {
		d.logger.Warn("sending response", "key", message.Key, "channel", message.Channel,
			"peer", p.id, "request_id", message.ID, "error", sendErr)
	}
}

// localHandler returns the handler of the most recently opened local
// node for key that handles channel, skipping except.
func (d *Dispatcher) localHandler(key, channel string, except *Node) Handler {
	d.mu.Lock()
	defer d.mu.Unlock()
	nodes := d.nodes[key]
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i] == except {
			continue
		}
		if handler := nodes[i].handlers[channel]; handler != nil {
			return handler
		}
	}
	return nil
}

// forward sends a request to the most recent subscriber of key other
// than exclude and waits for its answer.
func (d *Dispatcher) forward(ctx context.Context, key, channel string, payload json.RawMessage, exclude string) (json.RawMessage, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	target := d.newestSubscriberLocked(key, exclude)
	if target == nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w %q", ErrNoSubscribers, key)
	}
	id := d.allocateIDLocked()
	request := &pendingRequest{key: key, channel: channel, peer: target.id, done: make(chan outcome, 1)}
	request.timer = d.clock.AfterFunc(d.timeout, func() {
		d.settle(id, outcome{err: fmt.Errorf("%w after %v: %s/%s", ErrTimeout, d.timeout, key, channel)})
	})
	d.pending[id] = request
	d.mu.Unlock()

	err := target.port.Send(Message{Kind: KindRequest, Key: key, Channel: channel, ID: id, Payload: payload})
	if err != nil {
		d.settle(id, outcome{err: fmt.Errorf("sending request to %s: %w", target.id, err)})
	}

	select {
	case result := <-request.done:
		return result.payload, result.err
	case <-ctx.Done():
		d.settle(id, outcome{err: fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())})
		result := <-request.done
		return result.payload, result.err
	}
}

// newestSubscriberLocked returns the peer that most recently announced
// key, skipping exclude.
func (d *Dispatcher) newestSubscriberLocked(key, exclude string) *peer {
	subscriptions := d.remote[key]
	for i := len(subscriptions) - 1; i >= 0; i-- {
		if subscriptions[i].peer == exclude {
			continue
		}
		if p := d.peers[subscriptions[i].peer]; p != nil {
			return p
		}
	}
	return nil
}

func (d *Dispatcher) allocateIDLocked() uint64 {
	for {
		d.nextID++
		if d.nextID >= maxRequestID {
			d.nextID = 1
		}
		if _, taken := d.pending[d.nextID]; !taken {
			return d.nextID
		}
	}
}

// settle completes the pending request id with result. Requests that
// already completed are ignored.
func (d *Dispatcher) settle(id uint64, result outcome) {
	d.mu.Lock()
	request, ok := d.pending[id]
	if ok {
		delete(d.pending, id)
	}
	d.mu.Unlock()
	if !ok {
		d.logger.Debug("dropping answer to unknown request", "request_id", id)
		return
	}
	request.timer.Stop()
	request.done <- result
}

// pendingCount returns the number of requests awaiting an answer.
func (d *Dispatcher) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Dispatcher) sendTo(peerID string, message Message) error {
	d.mu.Lock()
	p := d.peers[peerID]
	d.mu.Unlock()
	if p == nil {
		return fmt.Errorf("%w %q", ErrUnknownPeer, peerID)
	}
	if err := p.port.Send(message); err != nil {
		return fmt.Errorf("sending to %s: %w", peerID, err)
	}
	return nil
}
