// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package renderer

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a log record to the model for display in the
// status line.
type logRecordMsg struct {
	summary string
	level   slog.Level
}

// StatusLogHandler is a slog.Handler that shows records in the
// renderer's status line. Records below its level are dropped, as are
// records arriving before SetProgram.
//
// Handlers derived through WithAttrs and WithGroup share the program
// pointer, so one SetProgram call reaches all of them.
type StatusLogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	group   string
}

// NewStatusLogHandler returns a handler for records at or above level.
func NewStatusLogHandler(level slog.Level) *StatusLogHandler {
	return &StatusLogHandler{level: level, program: &atomic.Pointer[tea.Program]{}}
}

// SetProgram sets the program that receives records. Safe to call from
// any goroutine.
func (h *StatusLogHandler) SetProgram(program *tea.Program) {
	h.program.Store(program)
}

func (h *StatusLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *StatusLogHandler) Handle(_ context.Context, record slog.Record) error {
	program := h.program.Load()
	if program == nil {
		return nil
	}
	program.Send(logRecordMsg{summary: h.summary(record), level: record.Level})
	return nil
}

// summary formats a record as "message (key=value, ...)".
func (h *StatusLogHandler) summary(record slog.Record) string {
	var parts []string
	for _, attr := range h.attrs {
		parts = append(parts, attr.Key+"="+attr.Value.String())
	}
	record.Attrs(func(attr slog.Attr) bool {
		key := attr.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		parts = append(parts, key+"="+attr.Value.String())
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (h *StatusLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *h
	derived.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	if h.group != "" {
		for i := len(h.attrs); i < len(derived.attrs); i++ {
			derived.attrs[i].Key = h.group + "." + derived.attrs[i].Key
		}
	}
	return &derived
}

func (h *StatusLogHandler) WithGroup(name string) slog.Handler {
	derived := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	derived.group = name
	return &derived
}
