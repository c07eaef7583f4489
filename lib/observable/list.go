// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observable

import (
	"fmt"
	"sync"
)

// ChangeKind distinguishes the two structural list changes.
type ChangeKind int

const (
	// ChangeUpdate replaces the element at Index with New.
	ChangeUpdate ChangeKind = iota

	// ChangeSplice removes Removed at Index and inserts Added there.
	ChangeSplice
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeUpdate:
		return "update"
	case ChangeSplice:
		return "splice"
	default:
		return fmt.Sprintf("change(%d)", int(k))
	}
}

// ListChange describes one mutation of a [List].
type ListChange[T any] struct {
	Kind  ChangeKind
	Index int

	// Old and New are set for ChangeUpdate.
	Old T
	New T

	// Removed and Added are set for ChangeSplice. Either may be empty.
	Removed []T
	Added   []T
}

// List is an ordered collection that notifies watchers of every
// update and splice.
type List[T any] struct {
	emit sync.Mutex

	mu    sync.RWMutex
	items []T

	watchers watchers[ListChange[T]]
}

// NewList returns a List holding a copy of items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{items: append([]T(nil), items...)}
}

// Items returns a copy of the current elements.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...)
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// At returns the element at index. The second result is false when
// index is out of range.
func (l *List[T]) At(index int) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.items) {
		var zero T
		return zero, false
	}
	return l.items[index], true
}

// SetAt replaces the element at index and emits a ChangeUpdate.
func (l *List[T]) SetAt(index int, value T) error {
	l.emit.Lock()
	defer l.emit.Unlock()

	l.mu.Lock()
	if index < 0 || index >= len(l.items) {
		length := len(l.items)
		l.mu.Unlock()
		return fmt.Errorf("observable list: set index %d outside [0, %d)", index, length)
	}
	old := l.items[index]
	l.items[index] = value
	l.mu.Unlock()

	l.notify(ListChange[T]{Kind: ChangeUpdate, Index: index, Old: old, New: value})
	return nil
}

// Splice removes deleteCount elements at start, inserts added there,
// and emits a ChangeSplice. deleteCount is clamped to the elements
// available. A splice that neither removes nor adds anything is not
// emitted.
func (l *List[T]) Splice(start, deleteCount int, added ...T) ([]T, error) {
	l.emit.Lock()
	defer l.emit.Unlock()
	return l.splice(func(int) int { return start }, deleteCount, added)
}

// Append adds items at the end.
func (l *List[T]) Append(items ...T) {
	l.emit.Lock()
	defer l.emit.Unlock()
	// An end-relative start cannot be out of range.
	_, _ = l.splice(func(length int) int { return length }, 0, items)
}

// splice performs a splice with emit held. startFor computes the start
// index from the current length.
func (l *List[T]) splice(startFor func(length int) int, deleteCount int, added []T) ([]T, error) {
	l.mu.Lock()
	start := startFor(len(l.items))
	if start < 0 || start > len(l.items) {
		length := len(l.items)
		l.mu.Unlock()
		return nil, fmt.Errorf("observable list: splice start %d outside [0, %d]", start, length)
	}
	deleteCount = min(max(deleteCount, 0), len(l.items)-start)
	removed := append([]T(nil), l.items[start:start+deleteCount]...)
	insert := append([]T(nil), added...)

	items := make([]T, 0, len(l.items)-deleteCount+len(insert))
	items = append(items, l.items[:start]...)
	items = append(items, insert...)
	items = append(items, l.items[start+deleteCount:]...)
	l.items = items
	l.mu.Unlock()

	if len(removed) == 0 && len(insert) == 0 {
		return removed, nil
	}
	l.notify(ListChange[T]{Kind: ChangeSplice, Index: start, Removed: removed, Added: insert})
	return removed, nil
}

// Watch registers fn for future changes. The returned function cancels
// the registration and is safe to call more than once.
func (l *List[T]) Watch(fn func(ListChange[T])) (cancel func()) {
	return l.watchers.add(fn)
}

// Watchers returns the number of registered watchers.
func (l *List[T]) Watchers() int {
	return l.watchers.count()
}

func (l *List[T]) notify(change ListChange[T]) {
	for _, fn := range l.watchers.snapshot() {
		fn(change)
	}
}
