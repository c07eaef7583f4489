// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/observable"
)

// OutputKind is the shape of an [Output].
type OutputKind int

const (
	StaticValue OutputKind = iota
	DynamicValue
	StaticArray
	DynamicArray
)

func (k OutputKind) String() string {
	switch k {
	case StaticValue:
		return "static-value"
	case DynamicValue:
		return "dynamic-value"
	case StaticArray:
		return "static-array"
	case DynamicArray:
		return "dynamic-array"
	default:
		return fmt.Sprintf("output(%d)", int(k))
	}
}

// ValueSource reports later values of a dynamic value.
type ValueSource interface {
	Get() any
	Watch(fn func(any)) (cancel func())
}

// ListSource reports later structural changes of a dynamic array.
type ListSource interface {
	Items() []any
	Watch(fn func(observable.ListChange[any])) (cancel func())
}

// Output is the record produced by executing a [Command].
type Output struct {
	Kind OutputKind
	Type appobject.Type

	// Value is the value snapshot for StaticValue and DynamicValue.
	Value any

	// Items is the item snapshot for StaticArray and DynamicArray.
	Items []any

	// Values is set for DynamicValue.
	Values ValueSource

	// List is set for DynamicArray.
	List ListSource
}

// IsArray reports whether the output carries items.
func (o Output) IsArray() bool {
	return o.Kind == StaticArray || o.Kind == DynamicArray
}

// IsDynamic reports whether the output carries a live source.
func (o Output) IsDynamic() bool {
	return o.Kind == DynamicValue || o.Kind == DynamicArray
}

// Void is the output of a command executed only for its effect.
func Void() Output {
	return Output{Kind: StaticValue, Type: appobject.None}
}

// Static returns a StaticValue output.
func Static(objectType appobject.Type, value any) Output {
	return Output{Kind: StaticValue, Type: objectType, Value: value}
}

// Array returns a StaticArray output holding a copy of items.
func Array[T any](objectType appobject.Type, items []T) Output {
	return Output{Kind: StaticArray, Type: objectType, Items: toAny(items)}
}

// Dynamic returns a DynamicValue output backed by value.
func Dynamic[T any](objectType appobject.Type, value *observable.Value[T]) Output {
	source := valueSource[T]{value: value}
	return Output{Kind: DynamicValue, Type: objectType, Value: source.Get(), Values: source}
}

// DynamicList returns a DynamicArray output backed by list.
func DynamicList[T any](objectType appobject.Type, list *observable.List[T]) Output {
	source := listSource[T]{list: list}
	return Output{Kind: DynamicArray, Type: objectType, Items: source.Items(), List: source}
}

type valueSource[T any] struct {
	value *observable.Value[T]
}

func (s valueSource[T]) Get() any { return s.value.Get() }

func (s valueSource[T]) Watch(fn func(any)) func() {
	return s.value.Watch(func(v T) { fn(v) })
}

type listSource[T any] struct {
	list *observable.List[T]
}

func (s listSource[T]) Items() []any { return toAny(s.list.Items()) }

func (s listSource[T]) Watch(fn func(observable.ListChange[any])) func() {
	return s.list.Watch(func(change observable.ListChange[T]) {
		fn(observable.ListChange[any]{
			Kind:    change.Kind,
			Index:   change.Index,
			Old:     change.Old,
			New:     change.New,
			Removed: toAny(change.Removed),
			Added:   toAny(change.Added),
		})
	})
}

func toAny[T any](items []T) []any {
	if items == nil {
		return nil
	}
	converted := make([]any, len(items))
	for i, item := range items {
		converted[i] = item
	}
	return converted
}
