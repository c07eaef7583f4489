// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package presentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// Presentation is the producer-side binding between one application
// object and its widget.
type Presentation interface {
	// AppObject returns the bound application object.
	AppObject() any

	// ID returns the stable identifier used as the widget id.
	ID() string

	// Render renders the presentation into node and returns its widget
	// snapshot and its patch stream. The stream is nil when the
	// presentation never changes after rendering.
	Render(ctx context.Context, node *OutputNode) (widget.Widget, *Stream, error)

	// HandleEvent handles one UI event addressed to this presentation.
	// Expected no-op events return nil; malformed events return an
	// error.
	HandleEvent(ctx context.Context, event widget.Event) error

	// Dispose releases subscriptions held by the presentation and its
	// children. Safe to call more than once.
	Dispose()
}

// Options carries per-presentation settings from the caller of
// [Presenter.Present] to the constructor.
type Options struct {
	// ID overrides the identifier derived from the application object.
	ID string

	// Kind is the widget kind being presented. Present fills it in.
	Kind widget.Kind
}

// Constructor builds a presentation of object.
type Constructor func(presenter *Presenter, object any, options Options) (Presentation, error)

// Errors wrapped by [MappingError].
var (
	ErrUnmappedType = errors.New("no presentations registered for type")
	ErrUnmappedKind = errors.New("no presentation registered for widget kind")
)

// MappingError reports a Present call that no registration satisfies.
type MappingError struct {
	Type appobject.Type
	Kind widget.Kind
	Err  error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("presenting %s as %s: %v", e.Type, e.Kind, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

type mapping struct {
	kind        widget.Kind
	constructor Constructor
}

// Presenter maps (application-object type, widget kind) pairs to
// presentation constructors. Safe for concurrent use.
type Presenter struct {
	logger *slog.Logger

	mu       sync.RWMutex
	mappings map[appobject.Type][]mapping
}

// NewPresenter returns an empty presenter. Presentations it constructs
// log through logger.
func NewPresenter(logger *slog.Logger) *Presenter {
	return &Presenter{
		logger:   logger,
		mappings: make(map[appobject.Type][]mapping),
	}
}

// Logger returns the logger presentations use.
func (p *Presenter) Logger() *slog.Logger {
	return p.logger
}

// Register maps (objectType, kind) to constructor and returns p for
// chaining. A later registration for the same pair replaces the
// earlier one.
func (p *Presenter) Register(constructor Constructor, objectType appobject.Type, kind widget.Kind) *Presenter {
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := p.mappings[objectType]
	for i := range entries {
		if entries[i].kind == kind {
			entries[i].constructor = constructor
			return p
		}
	}
	p.mappings[objectType] = append(entries, mapping{kind: kind, constructor: constructor})
	return p
}

// Present constructs the presentation registered for (objectType,
// kind). There is no fallback between types: an object type without
// its own registration for kind is a configuration error.
func (p *Presenter) Present(object any, objectType appobject.Type, kind widget.Kind, options Options) (Presentation, error) {
	p.mu.RLock()
	entries, ok := p.mappings[objectType]
	var constructor Constructor
	for _, entry := range entries {
		if entry.kind == kind {
			constructor = entry.constructor
		}
	}
	p.mu.RUnlock()

	if !ok {
		return nil, &MappingError{Type: objectType, Kind: kind, Err: ErrUnmappedType}
	}
	if constructor == nil {
		return nil, &MappingError{Type: objectType, Kind: kind, Err: ErrUnmappedKind}
	}
	options.Kind = kind
	presentation, err := constructor(p, object, options)
	if err != nil {
		return nil, fmt.Errorf("presenting %s as %s: %w", objectType, kind, err)
	}
	return presentation, nil
}
