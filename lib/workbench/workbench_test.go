// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workbench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/command"
	"github.com/bureau-foundation/workbench/lib/component"
	"github.com/bureau-foundation/workbench/lib/config"
	"github.com/bureau-foundation/workbench/lib/debugconfig"
	"github.com/bureau-foundation/workbench/lib/dispatch"
	"github.com/bureau-foundation/workbench/lib/displayserver"
	"github.com/bureau-foundation/workbench/lib/ipc"
	"github.com/bureau-foundation/workbench/lib/presentation"
	"github.com/bureau-foundation/workbench/lib/testutil"
	"github.com/bureau-foundation/workbench/lib/widget"
)

const wait = 5 * time.Second

// outline flattens a widget tree into "kind id" lines, children
// indented below their parent.
func outline(w widget.Widget, depth int, lines []string) []string {
	lines = append(lines, fmt.Sprintf("%*s%s %s", 2*depth, "", w.Kind, w.ID))
	for _, child := range w.Children {
		lines = outline(child, depth+1, lines)
	}
	for _, item := range w.Items {
		lines = outline(item, depth+1, lines)
	}
	return lines
}

func writeLaunchFile(t *testing.T, path, content string) {
	t.Helper()
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(temporary, path); err != nil {
		t.Fatal(err)
	}
}

// connected returns a workbench on one dispatcher and a second
// dispatcher joined to it by a pipe.
func connected(t *testing.T, cfg *config.Config) (*Workbench, *dispatch.Dispatcher) {
	t.Helper()
	backend := dispatch.New(dispatch.Options{Logger: testutil.Logger()})
	remote := dispatch.New(dispatch.Options{Logger: testutil.Logger()})
	t.Cleanup(func() {
		remote.Close()
		backend.Close()
	})
	portA, portB := ipc.Pipe()
	backend.AddPeer(portA)
	remote.AddPeer(portB)

	w, err := New(Options{Config: cfg, Dispatcher: backend, Logger: testutil.Logger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(w.Close)
	return w, remote
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Paths.LaunchFile = filepath.Join(t.TempDir(), "launch.json")
	return cfg
}

func TestBuildWindow(t *testing.T) {
	cfg := testConfig(t)
	w, _ := connected(t, cfg)
	w.Configurations().Replace(nil)

	window, err := BuildWindow(cfg.Window, w.Registry(), w.Configurations())
	if err != nil {
		t.Fatalf("BuildWindow: %v", err)
	}
	root, err := NewPresenter(testutil.Logger()).Present(window, appobject.Window, widget.KindWindow, presentation.Options{})
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	defer root.Dispose()
	rendered, _, err := root.Render(context.Background(), presentation.NewOutputTree())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []string{
		"window workbench",
		"  toolbar toolbar",
		"    dropdown configurations",
		"    button start",
		"    button reload",
		"  layout-container panels",
		"    panel source",
		"    panel variables",
		"    panel console",
	}
	if diff := cmp.Diff(want, outline(rendered, 0, nil)); diff != "" {
		t.Errorf("window outline mismatch (-want +got):\n%s", diff)
	}
	if rendered.Title != "Workbench" || rendered.Children[1].Direction != widget.Horizontal {
		t.Errorf("window = %q direction %q", rendered.Title, rendered.Children[1].Direction)
	}
}

func TestBuildWindowUnknownCommand(t *testing.T) {
	cfg := testConfig(t)
	cfg.Window.Toolbar = append(cfg.Window.Toolbar, config.ButtonConfig{ID: "stop", Command: "debug.stop"})
	w, _ := connected(t, cfg)

	_, err := BuildWindow(cfg.Window, w.Registry(), w.Configurations())
	if !errors.Is(err, command.ErrUnknownCommand) {
		t.Errorf("BuildWindow error = %v, want ErrUnknownCommand", err)
	}
}

func TestStartWithoutConfiguration(t *testing.T) {
	w, _ := connected(t, testConfig(t))
	_, err := w.Registry().Execute(context.Background(), CommandStart, nil)
	if !errors.Is(err, ErrNoConfiguration) {
		t.Errorf("start error = %v, want ErrNoConfiguration", err)
	}
}

func TestStartSendsLaunchRequest(t *testing.T) {
	cfg := testConfig(t)
	writeLaunchFile(t, cfg.Paths.LaunchFile, `{"configurations": [{"name": "server", "program": "./cmd/server"}]}`)
	w, remote := connected(t, cfg)
	if _, err := w.Registry().Execute(context.Background(), CommandReload, nil); err != nil {
		t.Fatalf("reload: %v", err)
	}

	adapter, err := remote.Open(DebuggerKey)
	if err != nil {
		t.Fatal(err)
	}
	launches := make(chan json.RawMessage, 1)
	adapter.Handle(ChannelLaunch, func(_ context.Context, call dispatch.Call) (any, error) {
		launches <- call.Payload
		return LaunchResult{SessionID: "session-1"}, nil
	})
	deadline := time.Now().Add(wait)
	for len(w.debugger.Subscribers()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("debug adapter never announced")
		}
		time.Sleep(5 * time.Millisecond)
	}

	output, err := w.Registry().Execute(context.Background(), CommandStart, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if output.Value != "session-1" {
		t.Errorf("start output = %+v, want session id", output)
	}
	payload := testutil.RequireReceive(t, launches, wait, "launch request")
	if got, want := string(payload), `{"name":"server","program":"./cmd/server"}`; got != want {
		t.Errorf("launch payload = %s, want %s", got, want)
	}
}

func TestStartWithoutAdapter(t *testing.T) {
	cfg := testConfig(t)
	w, _ := connected(t, cfg)
	w.Configurations().Replace([]debugconfig.Configuration{{Name: "server", Raw: json.RawMessage(`{"name":"server"}`)}})
	_, err := w.Registry().Execute(context.Background(), CommandStart, nil)
	if !errors.Is(err, dispatch.ErrNoSubscribers) {
		t.Errorf("start error = %v, want ErrNoSubscribers", err)
	}
}

func TestRunPublishesWindow(t *testing.T) {
	cfg := testConfig(t)
	writeLaunchFile(t, cfg.Paths.LaunchFile, `{"configurations": [{"name": "server"}]}`)
	w, remote := connected(t, cfg)

	client, err := displayserver.NewClient(remote, testutil.Logger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := testutil.RequireReceive(t, done, wait, "Run returned"); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()

	dropdownItems := func() int {
		count := -1
		client.View(func(root component.Model) {
			window, ok := root.(*component.ContainerModel)
			if !ok || window.Children.Len() == 0 {
				return
			}
			toolbar, ok := window.Children.Model(0).(*component.ContainerModel)
			if !ok || toolbar.Children.Len() == 0 {
				return
			}
			if dropdown, ok := toolbar.Children.Model(0).(*component.DropdownModel); ok {
				count = dropdown.Items.Len()
			}
		})
		return count
	}
	waitFor := func(what string, check func() bool) {
		t.Helper()
		deadline := time.Now().Add(wait)
		for !check() {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %s", what)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitFor("initial window", func() bool { return dropdownItems() == 1 })

	writeLaunchFile(t, cfg.Paths.LaunchFile, `{"configurations": [{"name": "server"}, {"name": "tests"}]}`)
	waitFor("second configuration", func() bool { return dropdownItems() == 2 })

	snapshot, err := w.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	dropdown := snapshot.Children[0].Children[0]
	if len(dropdown.Items) != 2 || dropdown.Items[1].Label != "tests" {
		t.Errorf("snapshot dropdown items = %+v", dropdown.Items)
	}
	if dropdown.SelectionIndex == nil || *dropdown.SelectionIndex != 0 {
		t.Errorf("snapshot selection = %v, want 0", dropdown.SelectionIndex)
	}
}
