// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// workbench is the workbench back end. It loads the launch
// configurations, presents the main window, and serves it to renderers
// connecting over a unix socket and, when configured, over WebSocket.
//
// Usage:
//
//	workbench [--config path] [--log-level level]
//
// Without --config the WORKBENCH_CONFIG environment variable names the
// config file; without either the built-in defaults are used.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/workbench/lib/clock"
	"github.com/bureau-foundation/workbench/lib/config"
	"github.com/bureau-foundation/workbench/lib/dispatch"
	"github.com/bureau-foundation/workbench/lib/ipc"
	"github.com/bureau-foundation/workbench/lib/process"
	"github.com/bureau-foundation/workbench/lib/version"
	"github.com/bureau-foundation/workbench/lib/workbench"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("workbench", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to workbench.yaml (default: $WORKBENCH_CONFIG)")
	flagSet.StringVar(&logLevel, "log-level", "info", "minimum log level: debug, info, warn, error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println(version.Banner("workbench"))
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger := newLogger(level)

	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return err
	}

	ctx, stop := process.SignalContext(context.Background())
	defer stop()

	clk := clock.Real()
	dispatcher := dispatch.New(dispatch.Options{
		Logger:         logger.With("component", "dispatch"),
		Clock:          clk,
		RequestTimeout: timeout,
	})
	defer dispatcher.Close()

	bench, err := workbench.New(workbench.Options{
		Config:     cfg,
		Dispatcher: dispatcher,
		Logger:     logger,
		Clock:      clk,
	})
	if err != nil {
		return err
	}
	defer bench.Close()

	listener, err := ipc.Listen(cfg.Paths.Socket, logger)
	if err != nil {
		return err
	}
	listenerDone := make(chan error, 1)
	go func() { listenerDone <- listener.Serve(ctx, dispatcher.AddPeer) }()

	if address := cfg.Renderer.WebSocketAddress; address != "" {
		server := &http.Server{
			Addr:              address,
			Handler:           ipc.NewWebSocketHandler(dispatcher.AddPeer, cfg.Renderer.AllowedOrigins, clk, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("serving websocket renderers", "address", address)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("websocket server failed", "address", address, "error", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("workbench starting",
		"version", version.Info(),
		"environment", cfg.Environment,
		"socket", cfg.Paths.Socket,
		"launch_file", cfg.Paths.LaunchFile,
	)
	runErr := bench.Run(ctx)
	stop()
	if err := <-listenerDone; err != nil && runErr == nil {
		runErr = err
	}
	logger.Info("workbench stopped")
	return runErr
}

// newLogger writes human-readable text to a terminal and JSON lines
// otherwise.
func newLogger(level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, options))
}
