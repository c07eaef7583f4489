// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/observable"
)

func TestRegistryExecute(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", Func(func(_ context.Context, arg any) (Output, error) {
		return Static(appobject.Text, arg), nil
	}))

	output, err := registry.Execute(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if output.Kind != StaticValue || output.Type != appobject.Text || output.Value != "hello" {
		t.Errorf("output = %+v", output)
	}

	if _, err := registry.Execute(context.Background(), "missing", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Execute(missing) error = %v, want ErrUnknownCommand", err)
	}
}

func TestRegistryWrapsCommandErrors(t *testing.T) {
	failure := errors.New("disk on fire")
	registry := NewRegistry()
	registry.Register("fail", Func(func(context.Context, any) (Output, error) {
		return Output{}, failure
	}))
	if _, err := registry.Execute(context.Background(), "fail", nil); !errors.Is(err, failure) {
		t.Errorf("Execute error = %v, want wrapped %v", err, failure)
	}
	if diff := cmp.Diff([]string{"fail"}, registry.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
}

func TestDynamicValueSource(t *testing.T) {
	value := observable.NewValue("alpha")
	output := Dynamic(appobject.Text, value)

	if !output.IsDynamic() || output.IsArray() {
		t.Fatalf("output kind %s has wrong shape", output.Kind)
	}
	if output.Value != "alpha" {
		t.Errorf("snapshot = %v, want alpha", output.Value)
	}

	var seen []any
	cancel := output.Values.Watch(func(v any) { seen = append(seen, v) })
	value.Set("beta")
	cancel()
	value.Set("gamma")

	if diff := cmp.Diff([]any{"beta"}, seen); diff != "" {
		t.Errorf("watched (-want +got):\n%s", diff)
	}
}

func TestDynamicListSourceConvertsChanges(t *testing.T) {
	list := observable.NewList(1, 2, 3)
	output := DynamicList(appobject.Text, list)

	if diff := cmp.Diff([]any{1, 2, 3}, output.Items); diff != "" {
		t.Errorf("snapshot (-want +got):\n%s", diff)
	}

	var changes []observable.ListChange[any]
	output.List.Watch(func(change observable.ListChange[any]) { changes = append(changes, change) })
	if _, err := list.Splice(0, 1, 9); err != nil {
		t.Fatalf("Splice: %v", err)
	}

	want := []observable.ListChange[any]{
		{Kind: observable.ChangeSplice, Index: 0, Old: 0, New: 0, Removed: []any{1}, Added: []any{9}},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes (-want +got):\n%s", diff)
	}
}

func TestStaticArrayCopiesItems(t *testing.T) {
	items := []string{"a", "b"}
	output := Array(appobject.Text, items)
	items[0] = "z"
	if output.Items[0] != "a" {
		t.Errorf("Items[0] = %v, want a", output.Items[0])
	}
}
