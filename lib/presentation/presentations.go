// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package presentation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/command"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// Errors returned by HandleEvent implementations.
var (
	ErrUnsupportedEvent = errors.New("event not supported by this presentation")
	ErrMalformedEvent   = errors.New("malformed event")
)

// Identified is implemented by application objects with a stable
// identifier. Presentations use it as the widget id.
type Identified interface {
	ObjectID() string
}

// Labeled is implemented by application objects with a display label.
type Labeled interface {
	ObjectLabel() string
}

// Container describes a window, layout container, panel, or toolbar.
// The widget kind comes from the registration it is presented under.
type Container struct {
	ID        string
	Title     string
	Direction widget.Direction
	Resizable bool
	Children  []Child
}

// Child is one entry of a container: an application object, its type,
// and the widget kind to present it as.
type Child struct {
	Object any
	Type   appobject.Type
	Kind   widget.Kind
}

// ObjectID returns the container id.
func (c *Container) ObjectID() string { return c.ID }

// Action is a command bound to a label, presented as a button.
type Action struct {
	ID      string
	Label   string
	Tooltip string
	Command command.Command
	Arg     any
}

// ObjectID returns the action id.
func (a *Action) ObjectID() string { return a.ID }

// ObjectLabel returns the action label.
func (a *Action) ObjectLabel() string { return a.Label }

// Selector is a list/select/current command triple presented as a
// dropdown.
type Selector struct {
	ID string

	// List produces the items. A DynamicArray output keeps the
	// dropdown in sync with later list changes.
	List command.Command

	// Select is executed with the chosen item.
	Select command.Command

	// Current produces the selected item. A DynamicValue output keeps
	// the dropdown's selection in sync.
	Current command.Command
}

// ObjectID returns the selector id.
func (s *Selector) ObjectID() string { return s.ID }

// objectID picks the widget id for object.
func objectID(object any, options Options) string {
	if options.ID != "" {
		return options.ID
	}
	if identified, ok := object.(Identified); ok {
		return identified.ObjectID()
	}
	return objectLabel(object)
}

func objectLabel(object any) string {
	switch value := object.(type) {
	case Labeled:
		return value.ObjectLabel()
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(object)
	}
}

type base struct {
	presenter *Presenter
	object    any
	id        string
}

func (b *base) AppObject() any { return b.object }
func (b *base) ID() string     { return b.id }

// ContainerPresentation presents a [Container] as a window, layout
// container, panel, or toolbar.
type ContainerPresentation struct {
	base
	container *Container
	kind      widget.Kind

	mu            sync.Mutex
	children      []Presentation
	subscriptions subscriptions
}

// NewContainer is the [Constructor] for containers.
func NewContainer(presenter *Presenter, object any, options Options) (Presentation, error) {
	container, ok := object.(*Container)
	if !ok {
		return nil, fmt.Errorf("container presentation needs *Container, got %T", object)
	}
	if !options.Kind.IsContainer() {
		return nil, fmt.Errorf("container presentation cannot render as %s", options.Kind)
	}
	return &ContainerPresentation{
		base:      base{presenter: presenter, object: object, id: objectID(object, options)},
		container: container,
		kind:      options.Kind,
	}, nil
}

// Render renders every child in order under node's "children"
// collection and merges their streams.
func (p *ContainerPresentation) Render(ctx context.Context, node *OutputNode) (widget.Widget, *Stream, error) {
	stream := NewStream()
	var widgets []widget.Widget
	var children []Presentation
	dynamic := false
	for i, child := range p.container.Children {
		presentation, err := p.presenter.Present(child.Object, child.Type, child.Kind, Options{})
		if err != nil {
			disposeAll(children)
			return widget.Widget{}, nil, fmt.Errorf("%s %q child %d: %w", p.kind, p.id, i, err)
		}
		children = append(children, presentation)
		rendered, childStream, err := presentation.Render(ctx, node.AddChild("children"))
		if err != nil {
			disposeAll(children)
			return widget.Widget{}, nil, fmt.Errorf("%s %q child %d: %w", p.kind, p.id, i, err)
		}
		widgets = append(widgets, rendered)
		if childStream != nil {
			dynamic = true
			p.subscriptions.add(stream.Forward(childStream))
		}
	}

	p.mu.Lock()
	p.children = children
	p.mu.Unlock()
	node.SetPresentation(p)

	result := widget.Widget{
		Kind:      p.kind,
		ID:        p.id,
		Path:      node.Path(),
		Title:     p.container.Title,
		Direction: p.container.Direction,
		Resizable: p.container.Resizable,
		Children:  widgets,
	}
	if !dynamic {
		return result, nil, nil
	}
	return result, stream, nil
}

// HandleEvent rejects every event: containers have no interactive
// behavior of their own.
func (p *ContainerPresentation) HandleEvent(_ context.Context, event widget.Event) error {
	return fmt.Errorf("%s %q: %s: %w", p.kind, p.id, event.Kind, ErrUnsupportedEvent)
}

// Dispose disposes every child presentation.
func (p *ContainerPresentation) Dispose() {
	p.subscriptions.close()
	p.mu.Lock()
	children := p.children
	p.children = nil
	p.mu.Unlock()
	disposeAll(children)
}

// ButtonPresentation presents an [Action] as a button.
type ButtonPresentation struct {
	base
	action *Action
}

// NewButton is the [Constructor] for buttons.
func NewButton(presenter *Presenter, object any, options Options) (Presentation, error) {
	action, ok := object.(*Action)
	if !ok {
		return nil, fmt.Errorf("button presentation needs *Action, got %T", object)
	}
	if action.Command == nil {
		return nil, fmt.Errorf("button %q has no command", action.ID)
	}
	return &ButtonPresentation{
		base:   base{presenter: presenter, object: object, id: objectID(object, options)},
		action: action,
	}, nil
}

func (p *ButtonPresentation) Render(_ context.Context, node *OutputNode) (widget.Widget, *Stream, error) {
	node.SetPresentation(p)
	return widget.Widget{
		Kind:    widget.KindButton,
		ID:      p.id,
		Path:    node.Path(),
		Label:   p.action.Label,
		Tooltip: p.action.Tooltip,
	}, nil, nil
}

// HandleEvent executes the action's command on a click.
func (p *ButtonPresentation) HandleEvent(ctx context.Context, event widget.Event) error {
	if event.Kind != widget.EventDidClickButton {
		return fmt.Errorf("button %q: %s: %w", p.id, event.Kind, ErrUnsupportedEvent)
	}
	if _, err := p.action.Command.Execute(ctx, p.action.Arg); err != nil {
		return fmt.Errorf("button %q: %w", p.id, err)
	}
	return nil
}

func (p *ButtonPresentation) Dispose() {}

// ItemPresentation presents any application object as a dropdown
// item. The label comes from [Labeled], a string, a fmt.Stringer, or
// fmt.Sprint, in that order.
type ItemPresentation struct {
	base
}

// NewItem is the [Constructor] for dropdown items.
func NewItem(presenter *Presenter, object any, options Options) (Presentation, error) {
	return &ItemPresentation{
		base: base{presenter: presenter, object: object, id: objectID(object, options)},
	}, nil
}

func (p *ItemPresentation) Render(_ context.Context, node *OutputNode) (widget.Widget, *Stream, error) {
	node.SetPresentation(p)
	return widget.Widget{
		Kind:  widget.KindDropdownItem,
		ID:    p.id,
		Path:  node.Path(),
		Label: objectLabel(p.object),
	}, nil, nil
}

func (p *ItemPresentation) HandleEvent(_ context.Context, event widget.Event) error {
	return fmt.Errorf("dropdown item %q: %s: %w", p.id, event.Kind, ErrUnsupportedEvent)
}

func (p *ItemPresentation) Dispose() {}

func disposeAll(presentations []Presentation) {
	for _, presentation := range presentations {
		if presentation != nil {
			presentation.Dispose()
		}
	}
}
