// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observable

import "sync"

// watchers is an ordered set of callbacks with cancellation handles.
type watchers[E any] struct {
	mu      sync.Mutex
	nextID  int
	entries []watcherEntry[E]
}

type watcherEntry[E any] struct {
	id int
	fn func(E)
}

func (w *watchers[E]) add(fn func(E)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	id := w.nextID
	w.entries = append(w.entries, watcherEntry[E]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			for i, entry := range w.entries {
				if entry.id == id {
					w.entries = append(w.entries[:i:i], w.entries[i+1:]...)
					return
				}
			}
		})
	}
}

// snapshot returns the current callbacks. Callers invoke them without
// holding the lock so a callback can cancel itself.
func (w *watchers[E]) snapshot() []func(E) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fns := make([]func(E), len(w.entries))
	for i, entry := range w.entries {
		fns[i] = entry.fn
	}
	return fns
}

func (w *watchers[E]) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Value holds a single value and notifies watchers on every Set.
type Value[T any] struct {
	// emit serializes mutation plus notification.
	emit sync.Mutex

	mu    sync.RWMutex
	value T

	watchers watchers[T]
}

// NewValue returns a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores value and calls every watcher with it.
func (v *Value[T]) Set(value T) {
	v.emit.Lock()
	defer v.emit.Unlock()

	v.mu.Lock()
	v.value = value
	v.mu.Unlock()

	for _, fn := range v.watchers.snapshot() {
		fn(value)
	}
}

// Watch registers fn for future values. It does not replay the
// current value. The returned function cancels the registration and is
// safe to call more than once.
func (v *Value[T]) Watch(fn func(T)) (cancel func()) {
	return v.watchers.add(fn)
}

// Watchers returns the number of registered watchers.
func (v *Value[T]) Watchers() int {
	return v.watchers.count()
}
