// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/workbench/lib/clock"
	"github.com/bureau-foundation/workbench/lib/testutil"
)

type frame struct {
	Kind    int             `json:"kind"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var frames = []frame{
	{Kind: 0, Channel: "render", Payload: json.RawMessage(`{"kind":0,"id":"main","path":[]}`)},
	{Kind: 1, Channel: "snapshot"},
	{Kind: 0, Channel: "patch", Payload: json.RawMessage(`[{"op":1,"path":["children",0,"title"],"value":"x"}]`)},
}

// exchange sends frames from a to b and back, checking both directions.
func exchange(t *testing.T, a, b Port) {
	t.Helper()
	for _, pair := range [][2]Port{{a, b}, {b, a}} {
		sender, receiver := pair[0], pair[1]
		errs := make(chan error, 1)
		go func() {
			for _, f := range frames {
				if err := sender.Send(f); err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}()
		var received []frame
		for range frames {
			var f frame
			if err := receiver.Receive(&f); err != nil {
				t.Fatalf("Receive: %v", err)
			}
			received = append(received, f)
		}
		if err := testutil.RequireReceive(t, errs, 5*time.Second, "sender finished"); err != nil {
			t.Fatalf("Send: %v", err)
		}
		if diff := cmp.Diff(frames, received); diff != "" {
			t.Errorf("frames mismatch (-sent +received):\n%s", diff)
		}
	}
}

func TestPipe(t *testing.T) {
	a, b := Pipe()
	if a.Peer() == b.Peer() {
		t.Errorf("both ends report peer %q", a.Peer())
	}
	exchange(t, a, b)

	if err := a.Send(frames[0]); err != nil {
		t.Fatalf("Send before close: %v", err)
	}
	a.Close()

	// A value sent before Close is still delivered.
	var f frame
	if err := b.Receive(&f); err != nil {
		t.Fatalf("Receive buffered value after close: %v", err)
	}
	if err := b.Receive(&f); !errors.Is(err, io.EOF) {
		t.Errorf("Receive after close: got %v, want io.EOF", err)
	}
	if err := b.Send(frames[0]); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after close: got %v, want ErrClosed", err)
	}
}

func TestPipeCopiesValues(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	sent := map[string]any{"items": []any{"server", "tests"}}
	if err := a.Send(sent); err != nil {
		t.Fatalf("Send: %v", err)
	}
	sent["items"].([]any)[0] = "changed"

	var received map[string]any
	if err := b.Receive(&received); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got := received["items"].([]any)[0]; got != "server" {
		t.Errorf("receiver saw %v, want the value at send time", got)
	}
}

func TestUnixSocket(t *testing.T) {
	path := filepath.Join(testutil.SocketDir(t), "workbench.sock")
	listener, err := Listen(path, testutil.Logger())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("socket mode = %o, want 600", mode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	accepted := make(chan Port, 1)
	served := make(chan error, 1)
	go func() { served <- listener.Serve(ctx, func(p Port) { accepted <- p }) }()

	client, err := Dial(ctx, path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	server := testutil.RequireReceive(t, accepted, 5*time.Second, "connection accepted")

	wantPrefix := fmt.Sprintf("unix:%d:", os.Getpid())
	if !strings.HasPrefix(server.Peer(), wantPrefix) {
		t.Errorf("server-side peer = %q, want prefix %q", server.Peer(), wantPrefix)
	}

	exchange(t, client, server)

	client.Close()
	var f frame
	if err := server.Receive(&f); !errors.Is(err, io.EOF) {
		t.Errorf("Receive after peer close: got %v, want io.EOF", err)
	}
	server.Close()
	if err := server.Receive(&f); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive after local close: got %v, want ErrClosed", err)
	}

	cancel()
	if err := testutil.RequireReceive(t, served, 5*time.Second, "Serve returned"); err != nil {
		t.Errorf("Serve: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("socket file still present after Serve returned: %v", err)
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(testutil.SocketDir(t), "stale.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("writing stale file: %v", err)
	}
	listener, err := Listen(path, testutil.Logger())
	if err != nil {
		t.Fatalf("Listen over stale file: %v", err)
	}
	listener.Close()
}

func TestWebSocket(t *testing.T) {
	accepted := make(chan Port, 1)
	handler := NewWebSocketHandler(func(p Port) { accepted <- p }, nil, clock.Real(), testutil.Logger())
	server := httptest.NewServer(handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, err := DialWebSocket(context.Background(), url, clock.Real())
	if err != nil {
		t.Fatalf("DialWebSocket: %v", err)
	}
	remote := testutil.RequireReceive(t, accepted, 5*time.Second, "websocket accepted")

	exchange(t, client, remote)

	client.Close()
	var f frame
	if err := remote.Receive(&f); !errors.Is(err, io.EOF) {
		t.Errorf("Receive after peer close: got %v, want io.EOF", err)
	}
	remote.Close()
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	handler := NewWebSocketHandler(func(p Port) { p.Close() }, []string{"http://localhost:7070"}, clock.Real(), testutil.Logger())
	request := httptest.NewRequest("GET", "/renderer", nil)
	request.Header.Set("Connection", "Upgrade")
	request.Header.Set("Upgrade", "websocket")
	request.Header.Set("Sec-WebSocket-Version", "13")
	request.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	request.Header.Set("Origin", "http://evil.example")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)
	if recorder.Code != 403 {
		t.Errorf("status = %d, want 403", recorder.Code)
	}
}
