// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workbench

import (
	"log/slog"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/presentation"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// NewPresenter returns a presenter with every workbench presentation
// registered.
func NewPresenter(logger *slog.Logger) *presentation.Presenter {
	return presentation.NewPresenter(logger).
		Register(presentation.NewContainer, appobject.Window, widget.KindWindow).
		Register(presentation.NewContainer, appobject.Layout, widget.KindLayoutContainer).
		Register(presentation.NewContainer, appobject.Panel, widget.KindPanel).
		Register(presentation.NewContainer, appobject.Toolbar, widget.KindToolbar).
		Register(presentation.NewButton, appobject.Command, widget.KindButton).
		Register(presentation.NewDropdown, appobject.Selector, widget.KindDropdown).
		Register(presentation.NewItem, appobject.DebugConfig, widget.KindDropdownItem).
		Register(presentation.NewItem, appobject.Text, widget.KindDropdownItem)
}
