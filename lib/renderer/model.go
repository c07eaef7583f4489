// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package renderer

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/workbench/lib/component"
	"github.com/bureau-foundation/workbench/lib/observable"
)

// statusFadeDelay is how long a log record stays in the status line.
const statusFadeDelay = 5 * time.Second

// Source is the model tree being drawn. displayserver.Client
// implements it.
type Source interface {
	// View calls fn with the root model, or nil before the first
	// render, while the tree cannot change.
	View(fn func(root component.Model))

	// Updates changes after every applied render or patch.
	Updates() *observable.Value[uint64]
}

// Options configures a Model. Zero fields take defaults.
type Options struct {
	Keys     KeyMap
	Theme    *Theme
	Renderer *lipgloss.Renderer
	Logger   *slog.Logger
}

// treeChangedMsg reports that the source applied a render or patch.
type treeChangedMsg struct{}

// statusFadeMsg clears the status line if no newer record replaced it.
type statusFadeMsg struct {
	sequence int
}

// Model is the bubbletea model drawing a [Source].
type Model struct {
	source Source
	keys   KeyMap
	styles styles
	logger *slog.Logger

	changes     chan struct{}
	stopWatch   func()
	width       int
	height      int
	ready       bool
	focused     string
	overlay     *dropdownOverlay
	status      string
	statusLevel slog.Level
	statusSeq   int
}

// NewModel returns a model drawing source. Call Close once the program
// has exited.
func NewModel(source Source, options Options) Model {
	if options.Keys.Quit.Keys() == nil {
		options.Keys = DefaultKeyMap
	}
	if options.Theme == nil {
		options.Theme = &DefaultTheme
	}
	if options.Renderer == nil {
		options.Renderer = lipgloss.DefaultRenderer()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	changes := make(chan struct{}, 1)
	stop := source.Updates().Watch(func(uint64) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	return Model{
		source:    source,
		keys:      options.Keys,
		styles:    newStyles(options.Renderer, *options.Theme),
		logger:    options.Logger,
		changes:   changes,
		stopWatch: stop,
	}
}

// Close stops watching the source.
func (m Model) Close() {
	m.stopWatch()
}

// Focused returns the id of the focused control, or "".
func (m Model) Focused() string { return m.focused }

// Init implements tea.Model. It starts listening for tree changes.
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// waitForChange returns a tea.Cmd that blocks until the tree changes.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return treeChangedMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if m.overlay != nil {
			return m.handleOverlayKeys(message)
		}
		switch {
		case key.Matches(message, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(message, m.keys.Next):
			m.moveFocus(1)
		case key.Matches(message, m.keys.Previous):
			m.moveFocus(-1)
		case key.Matches(message, m.keys.Activate):
			m.activate()
		}

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true

	case treeChangedMsg:
		m.syncWithTree()
		return m, waitForChange(m.changes)

	case logRecordMsg:
		m.statusSeq++
		m.status = message.summary
		m.statusLevel = message.level
		sequence := m.statusSeq
		return m, tea.Tick(statusFadeDelay, func(time.Time) tea.Msg {
			return statusFadeMsg{sequence: sequence}
		})

	case statusFadeMsg:
		if message.sequence == m.statusSeq {
			m.status = ""
		}
	}
	return m, nil
}

func (m Model) handleOverlayKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, m.keys.Quit) && message.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(message, m.keys.Dismiss):
		m.overlay = nil
	case key.Matches(message, m.keys.Up):
		m.overlay.moveUp()
	case key.Matches(message, m.keys.Down):
		m.overlay.moveDown()
	case key.Matches(message, m.keys.Activate):
		overlay := m.overlay
		m.overlay = nil
		m.source.View(func(root component.Model) {
			dropdown, ok := find(root, overlay.dropdownID).(*component.DropdownModel)
			if !ok || len(overlay.labels) == 0 {
				return
			}
			if err := dropdown.Select(overlay.cursor); err != nil {
				m.logger.Warn("selecting dropdown item", "dropdown", overlay.dropdownID, "index", overlay.cursor, "error", err)
			}
		})
	}
	return m, nil
}

// moveFocus steps through the focusable controls in tree order.
func (m *Model) moveFocus(step int) {
	var targets []string
	m.source.View(func(root component.Model) { targets = focusable(root, nil) })
	if len(targets) == 0 {
		m.focused = ""
		return
	}
	current := -1
	for i, id := range targets {
		if id == m.focused {
			current = i
		}
	}
	if current < 0 {
		m.focused = targets[0]
		return
	}
	m.focused = targets[(current+step+len(targets))%len(targets)]
}

// activate clicks the focused button or opens the focused dropdown.
func (m *Model) activate() {
	m.source.View(func(root component.Model) {
		switch target := find(root, m.focused).(type) {
		case *component.ButtonModel:
			target.Click()
		case *component.DropdownModel:
			m.overlay = openOverlay(target)
		}
	})
}

// syncWithTree keeps focus and an open overlay valid after a patch.
func (m *Model) syncWithTree() {
	m.source.View(func(root component.Model) {
		targets := focusable(root, nil)
		valid := false
		for _, id := range targets {
			valid = valid || id == m.focused
		}
		if !valid {
			m.focused = ""
			if len(targets) > 0 {
				m.focused = targets[0]
			}
		}
		if m.overlay != nil {
			if dropdown, ok := find(root, m.overlay.dropdownID).(*component.DropdownModel); ok {
				m.overlay.refresh(dropdown)
			} else {
				m.overlay = nil
			}
		}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return ""
	}
	treeHeight := max(m.height-1, 0)
	var body string
	var anchors map[string]point
	m.source.View(func(root component.Model) {
		if root == nil {
			body = fit(m.styles.faint.Render("waiting for the workbench…"), m.width, treeHeight)
			return
		}
		painter := newPainter(m.styles, m.focused)
		body = painter.draw(root, point{}, m.width, treeHeight)
		anchors = painter.anchors
	})
	if m.overlay != nil {
		if anchor, ok := anchors[m.overlay.dropdownID]; ok {
			body = spliceOverlay(body, m.overlay.render(m.styles), anchor.x, anchor.y+1)
		}
	}
	return body + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	switch {
	case m.status == "":
		return fit(m.styles.help.Render(m.keys.help()), m.width, 1)
	case m.statusLevel >= slog.LevelError:
		return fit(m.styles.error.Render(m.status), m.width, 1)
	default:
		return fit(m.styles.warn.Render(m.status), m.width, 1)
	}
}

// focusable lists the ids of buttons and dropdowns in tree order.
func focusable(model component.Model, ids []string) []string {
	switch m := model.(type) {
	case *component.ButtonModel, *component.DropdownModel:
		return append(ids, model.ID())
	case *component.ContainerModel:
		for _, child := range m.Children.Models() {
			ids = focusable(child, ids)
		}
	case *component.LayoutContainerModel:
		for _, child := range m.Logical() {
			ids = focusable(child, ids)
		}
	}
	return ids
}

// find returns the model with id below model, or nil.
func find(model component.Model, id string) component.Model {
	if model == nil || id == "" {
		return nil
	}
	if model.ID() == id {
		return model
	}
	var children []component.Model
	switch m := model.(type) {
	case *component.ContainerModel:
		children = m.Children.Models()
	case *component.LayoutContainerModel:
		children = m.Logical()
	}
	for _, child := range children {
		if found := find(child, id); found != nil {
			return found
		}
	}
	return nil
}
