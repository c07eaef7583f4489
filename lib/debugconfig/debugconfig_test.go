// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package debugconfig

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/workbench/lib/clock"
	"github.com/bureau-foundation/workbench/lib/command"
	"github.com/bureau-foundation/workbench/lib/observable"
	"github.com/bureau-foundation/workbench/lib/testutil"
)

const launchFile = `{
	// Comments are allowed.
	"version": "0.2.0",
	"configurations": [
		{
			"name": "server",
			"type": "go",
			"request": "launch",
			"program": "./cmd/server", // trailing comment
			"args": ["--verbose",],
		},
		{"name": "tests", "type": "go", "request": "launch", "mode": "test"},
	],
}`

func configuration(name, raw string) Configuration {
	var header Configuration
	if err := json.Unmarshal([]byte(raw), &header); err != nil {
		panic(err)
	}
	header.Name = name
	header.Raw = json.RawMessage(raw)
	return header
}

func named(names ...string) []Configuration {
	configurations := make([]Configuration, len(names))
	for i, name := range names {
		configurations[i] = configuration(name, `{"name":"`+name+`"}`)
	}
	return configurations
}

func names(configurations []Configuration) []string {
	result := make([]string, len(configurations))
	for i, configuration := range configurations {
		result[i] = configuration.Name
	}
	return result
}

func newTestManager() *Manager {
	return NewManager(testutil.Logger(), clock.Real())
}

func TestParse(t *testing.T) {
	file, err := Parse([]byte(launchFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if file.Version != "0.2.0" {
		t.Errorf("Version = %q", file.Version)
	}
	want := []Configuration{
		configuration("server", `{"name":"server","type":"go","request":"launch","program":"./cmd/server","args":["--verbose"]}`),
		configuration("tests", `{"name":"tests","type":"go","request":"launch","mode":"test"}`),
	}
	if diff := cmp.Diff(want, file.Configurations); diff != "" {
		t.Errorf("configurations mismatch (-want +got):\n%s", diff)
	}
	if got := file.Configurations[0].ObjectLabel(); got != "server" {
		t.Errorf("ObjectLabel = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `{"configurations": [`, "parsing launch file"},
		{"missing name", `{"configurations": [{"type": "go"}]}`, "configuration 0: missing name"},
		{"duplicate", `{"configurations": [{"name": "a"}, {"name": "a"}]}`, `configuration 1: name "a" already used by configuration 0`},
		{"wrong shape", `{"configurations": [42]}`, "configuration 0"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.content))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("Parse error = %v, want containing %q", err, test.want)
			}
		})
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	file, err := Load(filepath.Join(t.TempDir(), "launch.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(file.Configurations) != 0 {
		t.Errorf("configurations = %v, want none", file.Configurations)
	}
}

func recordChanges(list *observable.List[Configuration]) *[]observable.ListChange[Configuration] {
	var changes []observable.ListChange[Configuration]
	list.Watch(func(change observable.ListChange[Configuration]) {
		changes = append(changes, change)
	})
	return &changes
}

func TestReplaceUpdatesInPlace(t *testing.T) {
	manager := newTestManager()
	manager.Replace(named("a", "b", "c"))
	changes := recordChanges(manager.Configurations())

	next := named("a", "b", "c")
	next[1] = configuration("b", `{"name":"b","type":"go"}`)
	manager.Replace(next)

	if len(*changes) != 1 {
		t.Fatalf("changes = %d, want 1: %+v", len(*changes), *changes)
	}
	change := (*changes)[0]
	if change.Kind != observable.ChangeUpdate || change.Index != 1 || change.New.Type != "go" {
		t.Errorf("change = %+v, want update of index 1", change)
	}
}

func TestReplaceSplicesMiddle(t *testing.T) {
	manager := newTestManager()
	manager.Replace(named("a", "b", "c", "d"))
	changes := recordChanges(manager.Configurations())

	manager.Replace(named("a", "x", "y", "z", "d"))

	if len(*changes) != 1 {
		t.Fatalf("changes = %d, want 1: %+v", len(*changes), *changes)
	}
	change := (*changes)[0]
	if change.Kind != observable.ChangeSplice || change.Index != 1 {
		t.Fatalf("change = %+v, want splice at 1", change)
	}
	if diff := cmp.Diff([]string{"b", "c"}, names(change.Removed)); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x", "y", "z"}, names(change.Added)); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "x", "y", "z", "d"}, names(manager.Configurations().Items())); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceIdenticalIsSilent(t *testing.T) {
	manager := newTestManager()
	manager.Replace(named("a", "b"))
	changes := recordChanges(manager.Configurations())
	manager.Replace(named("a", "b"))
	if len(*changes) != 0 {
		t.Errorf("changes = %+v, want none", *changes)
	}
}

func TestSelectionFollowsName(t *testing.T) {
	manager := newTestManager()
	manager.Replace(named("a", "b", "c"))
	if got := manager.Current().Get().Name; got != "a" {
		t.Fatalf("initial selection = %q, want first configuration", got)
	}
	if err := manager.Select("c"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	manager.Replace(named("c", "a"))
	if got := manager.Current().Get().Name; got != "c" {
		t.Errorf("after reorder selection = %q, want c", got)
	}

	changed := configuration("c", `{"name":"c","request":"attach"}`)
	manager.Replace([]Configuration{changed, named("a")[0]})
	if got := manager.Current().Get(); !got.Equal(changed) {
		t.Errorf("selection = %+v, want updated content", got)
	}

	manager.Replace(named("a"))
	if got := manager.Current().Get().Name; got != "a" {
		t.Errorf("after removal selection = %q, want fallback to a", got)
	}

	manager.Replace(nil)
	if got := manager.Current().Get(); got.Name != "" {
		t.Errorf("empty list selection = %+v, want zero", got)
	}
}

func TestSelectUnknown(t *testing.T) {
	manager := newTestManager()
	manager.Replace(named("a"))
	if err := manager.Select("missing"); !errors.Is(err, ErrUnknownConfiguration) {
		t.Errorf("Select error = %v, want ErrUnknownConfiguration", err)
	}
}

func TestCommands(t *testing.T) {
	manager := newTestManager()
	manager.Replace(named("a", "b"))
	registry := command.NewRegistry()
	manager.RegisterCommands(registry)
	ctx := context.Background()

	list, err := registry.Execute(ctx, CommandList, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Kind != command.DynamicArray || len(list.Items) != 2 {
		t.Fatalf("list output = %+v", list)
	}

	if _, err := registry.Execute(ctx, CommandSelect, list.Items[1]); err != nil {
		t.Fatalf("select by configuration: %v", err)
	}
	current, err := registry.Execute(ctx, CommandCurrent, nil)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.Kind != command.DynamicValue || current.Value.(Configuration).Name != "b" {
		t.Errorf("current output = %+v, want b", current)
	}

	if _, err := registry.Execute(ctx, CommandSelect, "a"); err != nil {
		t.Fatalf("select by name: %v", err)
	}
	if got := current.Values.Get().(Configuration).Name; got != "a" {
		t.Errorf("live current = %q, want a", got)
	}

	if _, err := registry.Execute(ctx, CommandSelect, 7); err == nil {
		t.Error("select with an int succeeded")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(temporary, path); err != nil {
		t.Fatal(err)
	}
}

func TestWatchFile(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "launch.json")
	writeFile(t, path, `{"configurations": [{"name": "a"}]}`)

	manager := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	done, err := manager.WatchFile(ctx, path)
	if err != nil {
		t.Fatalf("WatchFile: %v", err)
	}
	defer func() {
		cancel()
		testutil.RequireClosed(t, done, 5*time.Second, "watcher stopped")
	}()

	if diff := cmp.Diff([]string{"a"}, names(manager.Configurations().Items())); diff != "" {
		t.Fatalf("initial list mismatch (-want +got):\n%s", diff)
	}

	changes := make(chan observable.ListChange[Configuration], 8)
	manager.Configurations().Watch(func(change observable.ListChange[Configuration]) { changes <- change })

	writeFile(t, path, `{"configurations": [{"name": "a"}, {"name": "b"},]}`)
	change := testutil.RequireReceive(t, changes, 5*time.Second, "reload after rename")
	if change.Kind != observable.ChangeSplice || change.Index != 1 {
		t.Errorf("change = %+v, want splice adding b", change)
	}

	// A broken file keeps the previous list.
	writeFile(t, path, `{"configurations": [`)
	testutil.RequireNoReceive(t, changes, 300*time.Millisecond, "broken reload")
	if diff := cmp.Diff([]string{"a", "b"}, names(manager.Configurations().Items())); diff != "" {
		t.Errorf("list after broken reload mismatch (-want +got):\n%s", diff)
	}

	// Other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(directory, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNoReceive(t, changes, 200*time.Millisecond, "unrelated file")
}
