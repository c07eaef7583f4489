// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// workbench-renderer draws the workbench window in a terminal. It
// connects to the back end's socket, mirrors the window it publishes,
// and sends button clicks and dropdown selections back.
//
// Warnings and errors appear in the status line; --log-output
// additionally writes every record as JSON to a file, since stderr is
// covered by the alternate screen.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/workbench/lib/clock"
	"github.com/bureau-foundation/workbench/lib/config"
	"github.com/bureau-foundation/workbench/lib/dispatch"
	"github.com/bureau-foundation/workbench/lib/displayserver"
	"github.com/bureau-foundation/workbench/lib/ipc"
	"github.com/bureau-foundation/workbench/lib/process"
	"github.com/bureau-foundation/workbench/lib/renderer"
	"github.com/bureau-foundation/workbench/lib/version"
)

// dialTimeout bounds connecting to the back end.
const dialTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		socketPath  string
		color       string
		logOutput   string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("workbench-renderer", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to workbench.yaml (default: $WORKBENCH_CONFIG)")
	flagSet.StringVar(&socketPath, "socket", "", "back end socket (default: paths.socket from the config)")
	flagSet.StringVar(&color, "color", "", "color profile: auto, truecolor, ansi256, ansi, none (default: renderer.color from the config)")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (in addition to the status line)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println(version.Banner("workbench-renderer"))
		return nil
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	if socketPath == "" {
		socketPath = cfg.Paths.Socket
	}
	if color == "" {
		color = cfg.Renderer.Color
	}
	profile, err := renderer.ColorProfile(color)
	if err != nil {
		return err
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return err
	}

	statusHandler := renderer.NewStatusLogHandler(slog.LevelWarn)
	var logger *slog.Logger
	if logOutput != "" {
		fileHandler, closeFile, err := openFileLogHandler(logOutput)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", logOutput, err)
		}
		defer closeFile()
		logger = slog.New(fanoutHandler{statusHandler, fileHandler})
	} else {
		logger = slog.New(statusHandler)
	}

	dialCtx, cancelDial := context.WithTimeout(context.Background(), dialTimeout)
	port, err := ipc.Dial(dialCtx, socketPath)
	cancelDial()
	if err != nil {
		return fmt.Errorf("is the workbench running? %w", err)
	}

	dispatcher := dispatch.New(dispatch.Options{
		Logger:         logger.With("component", "dispatch"),
		Clock:          clock.Real(),
		RequestTimeout: timeout,
	})
	defer dispatcher.Close()

	client, err := displayserver.NewClient(dispatcher, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	model := renderer.NewModel(client, renderer.Options{
		Renderer: renderer.NewLipglossRenderer(os.Stdout, profile),
		Logger:   logger,
	})
	defer model.Close()
	dispatcher.AddPeer(port)

	program := tea.NewProgram(model, tea.WithAltScreen())
	statusHandler.SetProgram(program)
	_, err = program.Run()
	return err
}

// openFileLogHandler creates a JSON handler writing every record to
// path. The returned function closes the file.
func openFileLogHandler(path string) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler sends each record to every handler that accepts its
// level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			errs = append(errs, handler.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
