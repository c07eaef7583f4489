// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package debugconfig

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// pollInterval bounds how long the watch loop waits before
	// checking for cancellation.
	pollInterval = 100 * time.Millisecond

	// settleDelay coalesces the bursts of events editors produce when
	// saving.
	settleDelay = 50 * time.Millisecond
)

// LoadFile replaces the configuration list with the content of path.
func (m *Manager) LoadFile(path string) error {
	file, err := Load(path)
	if err != nil {
		return err
	}
	m.Replace(file.Configurations)
	return nil
}

// WatchFile loads path and keeps the list in sync with it until ctx is
// cancelled. The returned channel is closed once the watcher has
// stopped.
//
// The parent directory is watched rather than the file, so editors
// that save by writing a temporary file and renaming it over the
// original are seen. A reload that fails to parse is logged and the
// previous list is kept.
func (m *Manager) WatchFile(ctx context.Context, path string) (<-chan struct{}, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := m.LoadFile(absolute); err != nil {
		return nil, err
	}

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	mask := uint32(unix.IN_CLOSE_WRITE | unix.IN_MOVED_TO | unix.IN_DELETE | unix.IN_MOVED_FROM)
	if _, err := unix.InotifyAddWatch(fd, filepath.Dir(absolute), mask); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(absolute), err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer unix.Close(fd)
		m.watchLoop(ctx, fd, absolute)
	}()
	return done, nil
}

func (m *Manager) watchLoop(ctx context.Context, fd int, path string) {
	filename := filepath.Base(path)
	buffer := make([]byte, 4096)
	for ctx.Err() == nil {
		descriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(descriptors, int(pollInterval/time.Millisecond))
		if err == unix.EINTR || (err == nil && count == 0) {
			continue
		}
		if err != nil {
			m.logger.Error("launch file watch stopped", "path", path, "error", err)
			return
		}

		read, err := unix.Read(fd, buffer)
		if err == unix.EAGAIN || err == unix.EINTR {
			continue
		}
		if err != nil {
			m.logger.Error("launch file watch stopped", "path", path, "error", err)
			return
		}
		if !eventsName(buffer[:read], filename) {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(settleDelay):
		}
		drain(fd, buffer)

		if err := m.LoadFile(path); err != nil {
			m.logger.Warn("launch file reload failed, keeping previous configurations", "path", path, "error", err)
			continue
		}
		m.logger.Debug("launch file reloaded", "path", path, "configurations", m.configurations.Len())
	}
}

// eventsName reports whether any inotify event in buffer names
// filename. Each event is a fixed header whose last field is the
// length of the null-padded name that follows it.
func eventsName(buffer []byte, filename string) bool {
	for offset := 0; offset+unix.SizeofInotifyEvent <= len(buffer); {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		end := offset + unix.SizeofInotifyEvent + nameLength
		if end > len(buffer) {
			return false
		}
		name := buffer[offset+unix.SizeofInotifyEvent : end]
		if index := bytes.IndexByte(name, 0); index >= 0 {
			name = name[:index]
		}
		if string(name) == filename {
			return true
		}
		offset = end
	}
	return false
}

func drain(fd int, buffer []byte) {
	for {
		if _, err := unix.Read(fd, buffer); err != nil {
			return
		}
	}
}
