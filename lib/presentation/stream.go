// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package presentation

import (
	"sync"

	"github.com/bureau-foundation/workbench/lib/widget"
)

// Stream is a broadcast of patches, delivered synchronously on the
// emitting goroutine. Patches emitted before the first subscriber
// arrives are held and delivered to it when it subscribes, so a change
// made between rendering and subscribing is not lost. Later subscribers
// receive only patches emitted after they subscribed.
type Stream struct {
	// emitMu orders deliveries, so the held patches reach the first
	// subscriber before anything emitted after them.
	emitMu sync.Mutex

	mu          sync.Mutex
	nextID      int
	subscribers []streamSubscriber
	live        bool
	held        []widget.Patch
}

type streamSubscriber struct {
	id int
	fn func(widget.Patch)
}

// NewStream returns a stream with no subscribers.
func NewStream() *Stream {
	return &Stream{}
}

// Subscribe registers fn. The first subscriber is handed every held
// patch before Subscribe returns. The returned function removes fn and
// is safe to call more than once. fn must not subscribe to s.
func (s *Stream) Subscribe(fn func(widget.Patch)) (unsubscribe func()) {
	s.emitMu.Lock()
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, streamSubscriber{id: id, fn: fn})
	held := s.held
	s.held, s.live = nil, true
	s.mu.Unlock()
	for _, patch := range held {
		fn(patch)
	}
	s.emitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, subscriber := range s.subscribers {
				if subscriber.id == id {
					s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Emit delivers patch to every current subscriber, or holds it when no
// subscriber has arrived yet. Empty patches are dropped.
func (s *Stream) Emit(patch widget.Patch) {
	if len(patch) == 0 {
		return
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	if !s.live {
		s.held = append(s.held, patch)
		s.mu.Unlock()
		return
	}
	subscribers := make([]func(widget.Patch), len(s.subscribers))
	for i, subscriber := range s.subscribers {
		subscribers[i] = subscriber.fn
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(patch)
	}
}

// Forward subscribes s to source so that every patch emitted on source
// is emitted on s. A nil source forwards nothing.
func (s *Stream) Forward(source *Stream) (unsubscribe func()) {
	if source == nil {
		return func() {}
	}
	return source.Subscribe(s.Emit)
}

// Subscribers returns the number of current subscribers.
func (s *Stream) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// subscriptions collects unsubscribe functions for teardown.
type subscriptions struct {
	mu     sync.Mutex
	cancel []func()
}

func (s *subscriptions) add(cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = append(s.cancel, cancel)
}

func (s *subscriptions) close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	for _, fn := range cancel {
		fn()
	}
}

// serialQueue runs submitted functions one at a time, in submission
// order, on a drain goroutine that exists only while work is pending.
type serialQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
	idle    *sync.Cond
}

func (q *serialQueue) enqueue(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()
	go q.drain()
}

func (q *serialQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			if q.idle != nil {
				q.idle.Broadcast()
			}
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
		fn()
	}
}

// wait blocks until the queue has no pending or running work.
func (q *serialQueue) wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.idle == nil {
		q.idle = sync.NewCond(&q.mu)
	}
	for q.running {
		q.idle.Wait()
	}
}
