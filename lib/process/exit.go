// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ExitCoder is implemented by errors that choose the process exit
// code.
type ExitCoder interface {
	ExitCode() int
}

// Fatal reports err on stderr and exits. The exit code is 1 unless err
// wraps an [ExitCoder].
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

func report(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. A
// second signal falls through to the default handler and kills the
// process.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
