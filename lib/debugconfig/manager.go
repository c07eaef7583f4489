// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package debugconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/clock"
	"github.com/bureau-foundation/workbench/lib/command"
	"github.com/bureau-foundation/workbench/lib/observable"
)

// Command names registered by [Manager.RegisterCommands].
const (
	CommandList    = "debugconfig.list"
	CommandSelect  = "debugconfig.select"
	CommandCurrent = "debugconfig.current"
)

// ErrUnknownConfiguration is returned when selecting a name that is
// not in the list.
var ErrUnknownConfiguration = errors.New("unknown debug configuration")

// Manager holds the configuration list and the current selection.
type Manager struct {
	logger *slog.Logger
	clock  clock.Clock

	// mu serializes Replace and Select so list and selection change
	// together.
	mu             sync.Mutex
	configurations *observable.List[Configuration]
	current        *observable.Value[Configuration]
}

// NewManager returns a Manager with no configurations.
func NewManager(logger *slog.Logger, clk clock.Clock) *Manager {
	return &Manager{
		logger:         logger,
		clock:          clk,
		configurations: observable.NewList[Configuration](),
		current:        observable.NewValue(Configuration{}),
	}
}

// Configurations is the live configuration list.
func (m *Manager) Configurations() *observable.List[Configuration] { return m.configurations }

// Current is the live selection. Its zero value means nothing is
// selected.
func (m *Manager) Current() *observable.Value[Configuration] { return m.current }

// Select makes the configuration named name current.
func (m *Manager) Select(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, configuration := range m.configurations.Items() {
		if configuration.Name == name {
			if !configuration.Equal(m.current.Get()) {
				m.current.Set(configuration)
				m.logger.Info("debug configuration selected", "name", name)
			}
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownConfiguration, name)
}

// Replace makes next the configuration list. Entries whose name stays
// at the same place from either end are updated in place; the rest is
// replaced by a single splice. The selection follows its name, or
// falls back to the first configuration when the name disappears.
func (m *Manager) Replace(next []Configuration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.configurations.Items()
	prefix := 0
	for prefix < len(previous) && prefix < len(next) && previous[prefix].Name == next[prefix].Name {
		m.update(prefix, previous[prefix], next[prefix])
		prefix++
	}
	suffix := 0
	for suffix < len(previous)-prefix && suffix < len(next)-prefix {
		before := previous[len(previous)-1-suffix]
		after := next[len(next)-1-suffix]
		if before.Name != after.Name {
			break
		}
		m.update(len(previous)-1-suffix, before, after)
		suffix++
	}
	removed := len(previous) - prefix - suffix
	added := next[prefix : len(next)-suffix]
	if removed > 0 || len(added) > 0 {
		if _, err := m.configurations.Splice(prefix, removed, added...); err != nil {
			m.logger.Error("splicing configurations", "start", prefix, "removed", removed, "error", err)
		}
	}

	m.followSelection(next)
}

func (m *Manager) update(index int, before, after Configuration) {
	if before.Equal(after) {
		return
	}
	if err := m.configurations.SetAt(index, after); err != nil {
		m.logger.Error("updating configuration", "index", index, "error", err)
	}
}

func (m *Manager) followSelection(next []Configuration) {
	current := m.current.Get()
	for _, configuration := range next {
		if configuration.Name == current.Name && current.Name != "" {
			if !configuration.Equal(current) {
				m.current.Set(configuration)
			}
			return
		}
	}
	var fallback Configuration
	if len(next) > 0 {
		fallback = next[0]
	}
	if !fallback.Equal(current) {
		m.current.Set(fallback)
		m.logger.Info("debug configuration selected", "name", fallback.Name, "previous", current.Name)
	}
}

// ListCommand returns the configurations as a dynamic array.
func (m *Manager) ListCommand() command.Command {
	return command.Func(func(context.Context, any) (command.Output, error) {
		return command.DynamicList(appobject.DebugConfig, m.configurations), nil
	})
}

// SelectCommand selects the configuration given as a Configuration or
// a name.
func (m *Manager) SelectCommand() command.Command {
	return command.Func(func(_ context.Context, arg any) (command.Output, error) {
		switch value := arg.(type) {
		case Configuration:
			return command.Void(), m.Select(value.Name)
		case string:
			return command.Void(), m.Select(value)
		default:
			return command.Output{}, fmt.Errorf("select: %T is not a debug configuration", arg)
		}
	})
}

// CurrentCommand returns the selection as a dynamic value.
func (m *Manager) CurrentCommand() command.Command {
	return command.Func(func(context.Context, any) (command.Output, error) {
		return command.Dynamic(appobject.DebugConfig, m.current), nil
	})
}

// RegisterCommands adds the list, select, and current commands to
// registry.
func (m *Manager) RegisterCommands(registry *command.Registry) {
	registry.Register(CommandList, m.ListCommand())
	registry.Register(CommandSelect, m.SelectCommand())
	registry.Register(CommandCurrent, m.CurrentCommand())
}
