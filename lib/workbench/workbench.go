// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workbench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/clock"
	"github.com/bureau-foundation/workbench/lib/command"
	"github.com/bureau-foundation/workbench/lib/config"
	"github.com/bureau-foundation/workbench/lib/debugconfig"
	"github.com/bureau-foundation/workbench/lib/dispatch"
	"github.com/bureau-foundation/workbench/lib/displayserver"
	"github.com/bureau-foundation/workbench/lib/presentation"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// DebuggerKey is the dispatch key debug adapters subscribe to.
const DebuggerKey = "debugger"

// ChannelLaunch carries launch requests under DebuggerKey. The
// payload is the configuration's raw launch file entry; the answer is
// a [LaunchResult].
const ChannelLaunch = "launch"

// Command names registered by [New] in addition to the debugconfig
// commands.
const (
	CommandStart  = "debug.start"
	CommandReload = "debugconfig.reload"
)

// ErrNoConfiguration is returned by the start command when nothing is
// selected.
var ErrNoConfiguration = errors.New("no debug configuration selected")

// LaunchResult is a debug adapter's answer to a launch request.
type LaunchResult struct {
	SessionID string `json:"sessionId"`
}

// Options configures a Workbench.
type Options struct {
	Config     *config.Config
	Dispatcher *dispatch.Dispatcher
	Logger     *slog.Logger
	Clock      clock.Clock
}

// Workbench is the back end: configurations, commands, presentations,
// and the display server publishing them.
type Workbench struct {
	logger         *slog.Logger
	config         *config.Config
	registry       *command.Registry
	configurations *debugconfig.Manager
	server         *displayserver.Server
	debugger       *dispatch.Node
}

// New opens the workbench's dispatch nodes and registers its commands.
func New(options Options) (*Workbench, error) {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	server, err := displayserver.NewServer(options.Dispatcher, options.Logger)
	if err != nil {
		return nil, err
	}
	debugger, err := options.Dispatcher.Open(DebuggerKey)
	if err != nil {
		server.Close()
		return nil, fmt.Errorf("opening %s node: %w", DebuggerKey, err)
	}
	debugger.OnConnect(func(peer string) {
		options.Logger.Info("debug adapter connected", "peer", peer)
	})

	w := &Workbench{
		logger:         options.Logger,
		config:         options.Config,
		registry:       command.NewRegistry(),
		configurations: debugconfig.NewManager(options.Logger, options.Clock),
		server:         server,
		debugger:       debugger,
	}
	w.configurations.RegisterCommands(w.registry)
	w.registry.Register(CommandStart, command.Func(w.start))
	w.registry.Register(CommandReload, command.Func(w.reload))
	return w, nil
}

// Registry returns the command registry toolbar buttons bind to.
func (w *Workbench) Registry() *command.Registry { return w.registry }

// Configurations returns the debug configuration manager.
func (w *Workbench) Configurations() *debugconfig.Manager { return w.configurations }

// Snapshot returns the tree currently published to renderers.
func (w *Workbench) Snapshot() (widget.Widget, error) { return w.server.Snapshot() }

// Run mounts the main window and watches the launch file until ctx is
// cancelled. The window stays mounted, and renderers connected, until
// Close.
func (w *Workbench) Run(ctx context.Context) error {
	launchFile := w.config.Paths.LaunchFile
	watching, err := w.configurations.WatchFile(ctx, launchFile)
	if err != nil {
		// Without a watchable directory the file is still read once.
		w.logger.Warn("launch file not watched", "path", launchFile, "error", err)
		if err := w.configurations.LoadFile(launchFile); err != nil {
			return err
		}
	}

	window, err := BuildWindow(w.config.Window, w.registry, w.configurations)
	if err != nil {
		return err
	}
	root, err := NewPresenter(w.logger).Present(window, appobject.Window, widget.KindWindow, presentation.Options{})
	if err != nil {
		return fmt.Errorf("presenting main window: %w", err)
	}
	if err := w.server.Mount(ctx, root); err != nil {
		return err
	}
	w.logger.Info("workbench window mounted",
		"panels", len(w.config.Window.Panels),
		"configurations", w.configurations.Configurations().Len(),
	)

	<-ctx.Done()
	if watching != nil {
		<-watching
	}
	return nil
}

// Close unmounts the window and withdraws the workbench's nodes.
func (w *Workbench) Close() {
	w.server.Close()
	w.debugger.Close()
}

func (w *Workbench) start(ctx context.Context, _ any) (command.Output, error) {
	current := w.configurations.Current().Get()
	if current.Name == "" {
		return command.Output{}, ErrNoConfiguration
	}
	var result LaunchResult
	if err := w.debugger.Request(ctx, ChannelLaunch, json.RawMessage(current.Raw), &result); err != nil {
		return command.Output{}, fmt.Errorf("launching %q: %w", current.Name, err)
	}
	w.logger.Info("debug session started", "configuration", current.Name, "session", result.SessionID)
	return command.Static(appobject.Text, result.SessionID), nil
}

func (w *Workbench) reload(context.Context, any) (command.Output, error) {
	if err := w.configurations.LoadFile(w.config.Paths.LaunchFile); err != nil {
		return command.Output{}, err
	}
	return command.Void(), nil
}
