// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workbench

import (
	"fmt"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/command"
	"github.com/bureau-foundation/workbench/lib/config"
	"github.com/bureau-foundation/workbench/lib/debugconfig"
	"github.com/bureau-foundation/workbench/lib/presentation"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// Widget ids of the fixed parts of the main window.
const (
	WindowID         = "workbench"
	ToolbarID        = "toolbar"
	PanelsID         = "panels"
	ConfigurationsID = "configurations"
)

// BuildWindow describes the main window: a toolbar above the panel
// layout. Toolbar buttons are bound to commands looked up in registry.
func BuildWindow(window config.WindowConfig, registry *command.Registry, configurations *debugconfig.Manager) (*presentation.Container, error) {
	toolbar := &presentation.Container{ID: ToolbarID}
	if window.Configurations {
		toolbar.Children = append(toolbar.Children, presentation.Child{
			Object: &presentation.Selector{
				ID:      ConfigurationsID,
				List:    configurations.ListCommand(),
				Select:  configurations.SelectCommand(),
				Current: configurations.CurrentCommand(),
			},
			Type: appobject.Selector,
			Kind: widget.KindDropdown,
		})
	}
	for _, button := range window.Toolbar {
		bound, ok := registry.Lookup(button.Command)
		if !ok {
			return nil, fmt.Errorf("toolbar button %q: %w: %s", button.ID, command.ErrUnknownCommand, button.Command)
		}
		toolbar.Children = append(toolbar.Children, presentation.Child{
			Object: &presentation.Action{ID: button.ID, Label: button.Label, Tooltip: button.Tooltip, Command: bound},
			Type:   appobject.Command,
			Kind:   widget.KindButton,
		})
	}

	panels := &presentation.Container{ID: PanelsID, Direction: widget.Direction(window.Direction)}
	for _, panel := range window.Panels {
		panels.Children = append(panels.Children, presentation.Child{
			Object: &presentation.Container{ID: panel.ID, Title: panel.Title, Resizable: panel.Resizable},
			Type:   appobject.Panel,
			Kind:   widget.KindPanel,
		})
	}

	return &presentation.Container{
		ID:    WindowID,
		Title: window.Title,
		Children: []presentation.Child{
			{Object: toolbar, Type: appobject.Toolbar, Kind: widget.KindToolbar},
			{Object: panels, Type: appobject.Layout, Kind: widget.KindLayoutContainer},
		},
	}, nil
}
