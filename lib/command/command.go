// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Command is an action that may block on back-end work.
type Command interface {
	Execute(ctx context.Context, arg any) (Output, error)
}

// Func adapts a function to the Command interface.
type Func func(ctx context.Context, arg any) (Output, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, arg any) (Output, error) {
	return f(ctx, arg)
}

// ErrUnknownCommand is returned by [Registry.Execute] for names with
// no registered command.
var ErrUnknownCommand = errors.New("unknown command")

// Registry maps command names to commands. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register binds name to command, replacing any previous binding.
func (r *Registry) Register(name string, command Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = command
}

// Lookup returns the command bound to name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	command, ok := r.commands[name]
	return command, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the command bound to name.
func (r *Registry) Execute(ctx context.Context, name string, arg any) (Output, error) {
	command, ok := r.Lookup(name)
	if !ok {
		return Output{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	output, err := command.Execute(ctx, arg)
	if err != nil {
		return Output{}, fmt.Errorf("command %q: %w", name, err)
	}
	return output, nil
}
