// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

func TestReport(t *testing.T) {
	var output bytes.Buffer
	if code := report(&output, errors.New("socket in use")); code != 1 {
		t.Errorf("plain error exit code = %d, want 1", code)
	}
	if got := output.String(); got != "error: socket in use\n" {
		t.Errorf("output = %q", got)
	}

	output.Reset()
	if code := report(&output, fmt.Errorf("renderer: %w", exitError{code: 3})); code != 3 {
		t.Errorf("wrapped exit code = %d, want 3", code)
	}
}

func TestSignalContext(t *testing.T) {
	ctx, cancel := SignalContext(t.Context())
	if ctx.Err() != nil {
		t.Fatal("context cancelled before any signal")
	}
	cancel()
	if ctx.Err() == nil {
		t.Error("cancel did not cancel the context")
	}
}
