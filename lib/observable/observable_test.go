// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValueNotifiesWithoutReplay(t *testing.T) {
	value := NewValue("initial")

	var seen []string
	cancel := value.Watch(func(v string) { seen = append(seen, v) })

	value.Set("first")
	value.Set("second")
	cancel()
	value.Set("third")

	if diff := cmp.Diff([]string{"first", "second"}, seen); diff != "" {
		t.Errorf("watched values (-want +got):\n%s", diff)
	}
	if got := value.Get(); got != "third" {
		t.Errorf("Get = %q, want third", got)
	}
	if value.Watchers() != 0 {
		t.Errorf("Watchers = %d after cancel", value.Watchers())
	}
}

func TestValueWatcherCanCancelItself(t *testing.T) {
	value := NewValue(0)
	calls := 0
	var cancel func()
	cancel = value.Watch(func(int) {
		calls++
		cancel()
	})
	value.Set(1)
	value.Set(2)
	if calls != 1 {
		t.Errorf("watcher called %d times, want 1", calls)
	}
}

func TestListEmitsUpdatesAndSplices(t *testing.T) {
	list := NewList("a", "b", "c")

	var changes []ListChange[string]
	list.Watch(func(change ListChange[string]) { changes = append(changes, change) })

	if err := list.SetAt(0, "a2"); err != nil {
		t.Fatalf("SetAt: %v", err)
	}
	removed, err := list.Splice(1, 2)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	list.Append("d", "e")

	want := []ListChange[string]{
		{Kind: ChangeUpdate, Index: 0, Old: "a", New: "a2"},
		{Kind: ChangeSplice, Index: 1, Removed: []string{"b", "c"}},
		{Kind: ChangeSplice, Index: 1, Added: []string{"d", "e"}},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "c"}, removed); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a2", "d", "e"}, list.Items()); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
}

func TestListEmptySpliceIsSilent(t *testing.T) {
	list := NewList(1, 2)
	calls := 0
	list.Watch(func(ListChange[int]) { calls++ })
	if _, err := list.Splice(1, 0); err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if calls != 0 {
		t.Errorf("watcher called %d times for empty splice", calls)
	}
}

func TestListRejectsOutOfRange(t *testing.T) {
	list := NewList(1)
	if err := list.SetAt(1, 5); err == nil {
		t.Error("SetAt past end succeeded")
	}
	if _, err := list.Splice(2, 0, 5); err == nil {
		t.Error("Splice past end succeeded")
	}
	if _, ok := list.At(-1); ok {
		t.Error("At(-1) reported ok")
	}
}

func TestListClampsDeleteCount(t *testing.T) {
	list := NewList(1, 2, 3)
	removed, err := list.Splice(1, 100)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if diff := cmp.Diff([]int{2, 3}, removed); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	if list.Len() != 1 {
		t.Errorf("Len = %d, want 1", list.Len())
	}
}
