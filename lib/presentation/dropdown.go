// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package presentation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/command"
	"github.com/bureau-foundation/workbench/lib/observable"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// DropdownPresentation presents a [Selector] as a dropdown.
type DropdownPresentation struct {
	base
	selector *Selector

	// ctx outlives the Render call and is cancelled by Dispose. Items
	// rendered in response to list changes use it.
	ctx    context.Context
	cancel context.CancelFunc

	node   *OutputNode
	stream *Stream
	queue  serialQueue

	mu       sync.Mutex
	itemType appobject.Type
	items    []Presentation
	// itemStreams[i] unsubscribes the stream of items[i] from the
	// dropdown's stream. Entries for static items are no-ops.
	itemStreams []func()
	// selection is the last known current selection and
	// selectionIndex its position as last sent to subscribers.
	selection      any
	selectionIndex *int
	disposed       bool

	sources subscriptions
}

// NewDropdown is the [Constructor] for dropdowns.
func NewDropdown(presenter *Presenter, object any, options Options) (Presentation, error) {
	selector, ok := object.(*Selector)
	if !ok {
		return nil, fmt.Errorf("dropdown presentation needs *Selector, got %T", object)
	}
	if selector.List == nil || selector.Select == nil || selector.Current == nil {
		return nil, fmt.Errorf("dropdown %q needs list, select, and current commands", selector.ID)
	}
	return &DropdownPresentation{
		base:     base{presenter: presenter, object: object, id: objectID(object, options)},
		selector: selector,
		stream:   NewStream(),
	}, nil
}

// Render executes the list command, renders one item presentation per
// element, derives the selection index from the current-selection
// command, and subscribes to whichever of the two outputs is dynamic.
func (p *DropdownPresentation) Render(ctx context.Context, node *OutputNode) (widget.Widget, *Stream, error) {
	list, err := p.selector.List.Execute(ctx, nil)
	if err != nil {
		return widget.Widget{}, nil, fmt.Errorf("dropdown %q: listing items: %w", p.id, err)
	}
	if !list.IsArray() {
		return widget.Widget{}, nil, fmt.Errorf("dropdown %q: list command produced %s, want an array", p.id, list.Kind)
	}

	p.ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	p.node = node

	items := make([]Presentation, 0, len(list.Items))
	for i, item := range list.Items {
		presentation, err := p.presenter.Present(item, list.Type, widget.KindDropdownItem, Options{})
		if err != nil {
			disposeAll(items)
			return widget.Widget{}, nil, fmt.Errorf("dropdown %q: item %d: %w", p.id, i, err)
		}
		items = append(items, presentation)
	}

	widgets := make([]widget.Widget, 0, len(items))
	itemStreams := make([]func(), 0, len(items))
	for i, presentation := range items {
		rendered, itemStream, err := presentation.Render(ctx, node.AddChild("items"))
		if err != nil {
			for _, unsubscribe := range itemStreams {
				unsubscribe()
			}
			disposeAll(items)
			return widget.Widget{}, nil, fmt.Errorf("dropdown %q: rendering item %d: %w", p.id, i, err)
		}
		widgets = append(widgets, rendered)
		itemStreams = append(itemStreams, p.stream.Forward(itemStream))
	}

	current, err := p.selector.Current.Execute(ctx, nil)
	if err != nil {
		for _, unsubscribe := range itemStreams {
			unsubscribe()
		}
		disposeAll(items)
		return widget.Widget{}, nil, fmt.Errorf("dropdown %q: reading current selection: %w", p.id, err)
	}

	p.mu.Lock()
	p.itemType = list.Type
	p.items = items
	p.itemStreams = itemStreams
	p.selection = current.Value
	selectionIndex := p.selectionIndexLocked()
	p.selectionIndex = selectionIndex
	p.mu.Unlock()

	if current.Kind == command.DynamicValue && current.Values != nil {
		p.sources.add(current.Values.Watch(func(value any) {
			p.queue.enqueue(func() { p.applySelection(value) })
		}))
	}
	if list.Kind == command.DynamicArray && list.List != nil {
		p.sources.add(list.List.Watch(func(change observable.ListChange[any]) {
			p.queue.enqueue(func() { p.applyListChange(change) })
		}))
	}

	node.SetPresentation(p)
	return widget.Widget{
		Kind:           widget.KindDropdown,
		ID:             p.id,
		Path:           node.Path(),
		Items:          widgets,
		SelectionIndex: copyIndex(selectionIndex),
	}, p.stream, nil
}

// HandleEvent executes the select command with the item at the event's
// index. An event whose item id no longer matches that index is stale
// and dropped.
func (p *DropdownPresentation) HandleEvent(ctx context.Context, event widget.Event) error {
	if event.Kind != widget.EventDidSelectDropdownItem {
		return fmt.Errorf("dropdown %q: %s: %w", p.id, event.Kind, ErrUnsupportedEvent)
	}
	if event.ItemIndex == nil {
		return fmt.Errorf("dropdown %q: selection without itemIndex: %w", p.id, ErrMalformedEvent)
	}
	index := *event.ItemIndex

	p.mu.Lock()
	count := len(p.items)
	var item Presentation
	if index >= 0 && index < count {
		item = p.items[index]
	}
	p.mu.Unlock()

	if item == nil {
		return fmt.Errorf("dropdown %q: itemIndex %d outside [0, %d): %w", p.id, index, count, ErrMalformedEvent)
	}
	if event.ItemID != "" && event.ItemID != item.ID() {
		p.presenter.Logger().Debug("dropping stale dropdown selection",
			"dropdown", p.id,
			"item_index", index,
			"item_id", event.ItemID,
			"current_id", item.ID(),
		)
		return nil
	}
	if _, err := p.selector.Select.Execute(ctx, item.AppObject()); err != nil {
		return fmt.Errorf("dropdown %q: selecting item %d: %w", p.id, index, err)
	}
	return nil
}

// Dispose stops following the command outputs and disposes every item.
// A list change already being applied finishes without emitting and
// disposes the items it rendered.
func (p *DropdownPresentation) Dispose() {
	p.sources.close()
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	items, itemStreams := p.items, p.itemStreams
	p.items, p.itemStreams = nil, nil
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	for _, unsubscribe := range itemStreams {
		unsubscribe()
	}
	disposeAll(items)
}

// applySelection records a new current selection and emits its index.
// Runs on the queue.
func (p *DropdownPresentation) applySelection(value any) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.selection = value
	p.mu.Unlock()
	p.emitSelection(true)
}

// emitSelection sends the selection index derived from the current
// items. Unless force is set, nothing is sent when the index is the
// one subscribers already have.
func (p *DropdownPresentation) emitSelection(force bool) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	index := p.selectionIndexLocked()
	unchanged := equalIndex(index, p.selectionIndex)
	p.selectionIndex = index
	p.mu.Unlock()
	if unchanged && !force {
		return
	}

	path := p.node.Path()
	if path == nil {
		return
	}
	var encoded any
	if index != nil {
		encoded = *index
	}
	p.stream.Emit(widget.Patch{widget.ReplaceValue(path.AppendName("selectionIndex"), encoded)})
}

// applyListChange turns one list change into one patch. Runs on the
// queue, so changes are applied in the order the list emitted them.
func (p *DropdownPresentation) applyListChange(change observable.ListChange[any]) {
	p.mu.Lock()
	disposed := p.disposed
	itemType := p.itemType
	p.mu.Unlock()
	if disposed {
		return
	}

	logger := p.presenter.Logger()
	var err error
	switch change.Kind {
	case observable.ChangeUpdate:
		err = p.replaceItem(change.Index, change.New, itemType)
	case observable.ChangeSplice:
		err = p.spliceItems(change.Index, len(change.Removed), change.Added, itemType)
	default:
		err = fmt.Errorf("unknown list change %s", change.Kind)
	}
	if err != nil {
		logger.Error("dropdown list change not applied",
			"dropdown", p.id,
			"change", change.Kind.String(),
			"index", change.Index,
			"error", err,
		)
		return
	}
	// Items moving under the selection shift its index.
	p.emitSelection(false)
}

func (p *DropdownPresentation) replaceItem(index int, value any, itemType appobject.Type) error {
	p.mu.Lock()
	count := len(p.items)
	p.mu.Unlock()
	if index < 0 || index >= count {
		return fmt.Errorf("update index %d outside [0, %d)", index, count)
	}

	presentation, err := p.presenter.Present(value, itemType, widget.KindDropdownItem, Options{})
	if err != nil {
		return err
	}
	rendered, streams, err := p.renderItems(index, []Presentation{presentation})
	if err != nil {
		return err
	}
	if !p.commitItems(index, 1, []Presentation{presentation}) {
		return nil
	}
	p.stream.Emit(widget.Patch{widget.ReplaceWidget(p.itemsPath().AppendIndex(index), rendered[0])})
	p.forwardItems(index, streams)
	return nil
}

func (p *DropdownPresentation) spliceItems(index, removeCount int, added []any, itemType appobject.Type) error {
	p.mu.Lock()
	count := len(p.items)
	p.mu.Unlock()
	if index < 0 || index > count {
		return fmt.Errorf("splice index %d outside [0, %d]", index, count)
	}
	removeCount = min(removeCount, count-index)

	presentations := make([]Presentation, 0, len(added))
	for i, value := range added {
		presentation, err := p.presenter.Present(value, itemType, widget.KindDropdownItem, Options{})
		if err != nil {
			disposeAll(presentations)
			return fmt.Errorf("added item %d: %w", i, err)
		}
		presentations = append(presentations, presentation)
	}
	widgets, streams, err := p.renderItems(index, presentations)
	if err != nil {
		return err
	}
	if !p.commitItems(index, removeCount, presentations) {
		return nil
	}
	p.stream.Emit(widget.Patch{widget.SpliceWidgetArray(p.itemsPath(), index, removeCount, widgets...)})
	p.forwardItems(index, streams)
	return nil
}

// renderItems renders presentations into fresh output nodes inserted at
// index, ahead of the items they will replace, so each renders with its
// final path. On error every inserted node is removed again and every
// presentation disposed, leaving the dropdown as it was.
func (p *DropdownPresentation) renderItems(index int, presentations []Presentation) ([]widget.Widget, []*Stream, error) {
	widgets := make([]widget.Widget, 0, len(presentations))
	streams := make([]*Stream, 0, len(presentations))
	inserted := 0
	var err error
	for i, presentation := range presentations {
		var node *OutputNode
		node, err = p.node.AddChildAt("items", index+i)
		if err != nil {
			break
		}
		inserted++
		rendered, stream, renderErr := presentation.Render(p.ctx, node)
		if renderErr != nil {
			err = fmt.Errorf("rendering item %d: %w", index+i, renderErr)
			break
		}
		widgets = append(widgets, rendered)
		streams = append(streams, stream)
	}
	if err != nil {
		if removeErr := p.node.RemoveChildren("items", index, inserted); removeErr != nil {
			err = errors.Join(err, removeErr)
		}
		disposeAll(presentations)
		return nil, nil, err
	}
	return widgets, streams, nil
}

// commitItems swaps removeCount items at index for presentations, whose
// nodes renderItems already inserted, and tears the removed items down.
// It reports false, disposing presentations instead, when the dropdown
// was disposed while they rendered.
func (p *DropdownPresentation) commitItems(index, removeCount int, presentations []Presentation) bool {
	placeholders := make([]func(), len(presentations))
	for i := range placeholders {
		placeholders[i] = func() {}
	}

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		disposeAll(presentations)
		return false
	}
	var removedItems []Presentation
	var removedStreams []func()
	p.items, removedItems, _ = widget.SpliceSlice(p.items, index, removeCount, presentations...)
	p.itemStreams, removedStreams, _ = widget.SpliceSlice(p.itemStreams, index, removeCount, placeholders...)
	p.mu.Unlock()

	for _, unsubscribe := range removedStreams {
		unsubscribe()
	}
	disposeAll(removedItems)
	if err := p.node.RemoveChildren("items", index+len(presentations), removeCount); err != nil {
		p.presenter.Logger().Error("dropdown output nodes out of step with items",
			"dropdown", p.id,
			"index", index,
			"error", err,
		)
	}
	return true
}

// forwardItems subscribes the dropdown's stream to the streams of the
// items committed at index. Patches an item emitted since it rendered
// follow the patch that inserted it.
func (p *DropdownPresentation) forwardItems(index int, streams []*Stream) {
	for i, stream := range streams {
		if stream == nil {
			continue
		}
		unsubscribe := p.stream.Forward(stream)
		p.mu.Lock()
		if p.disposed {
			p.mu.Unlock()
			unsubscribe()
			return
		}
		p.itemStreams[index+i] = unsubscribe
		p.mu.Unlock()
	}
}

func (p *DropdownPresentation) itemsPath() widget.Path {
	return p.node.Path().AppendName("items")
}

// selectionIndexLocked returns the position of the current selection
// among the items, or nil when it is absent.
func (p *DropdownPresentation) selectionIndexLocked() *int {
	if p.selection == nil {
		return nil
	}
	for i, item := range p.items {
		if sameObject(item.AppObject(), p.selection) {
			return widget.IntPtr(i)
		}
	}
	return nil
}

func equalIndex(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyIndex(index *int) *int {
	if index == nil {
		return nil
	}
	return widget.IntPtr(*index)
}

// sameObject compares application objects by ObjectID when both have
// one, by == when their type is comparable, and structurally
// otherwise.
func sameObject(a, b any) bool {
	ia, aok := a.(Identified)
	ib, bok := b.(Identified)
	if aok && bok {
		return ia.ObjectID() == ib.ObjectID()
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta != nil && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// wait blocks until every queued list or selection change has been
// applied.
func (p *DropdownPresentation) wait() {
	p.queue.wait()
}
