// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package displayserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/bureau-foundation/workbench/lib/appobject"
	"github.com/bureau-foundation/workbench/lib/command"
	"github.com/bureau-foundation/workbench/lib/component"
	"github.com/bureau-foundation/workbench/lib/dispatch"
	"github.com/bureau-foundation/workbench/lib/ipc"
	"github.com/bureau-foundation/workbench/lib/observable"
	"github.com/bureau-foundation/workbench/lib/presentation"
	"github.com/bureau-foundation/workbench/lib/testutil"
	"github.com/bureau-foundation/workbench/lib/widget"
)

const wait = 5 * time.Second

var widgetOptions = cmp.Options{cmp.AllowUnexported(widget.Step{}), cmpopts.EquateEmpty()}

type config struct {
	name string
}

func (c config) ObjectID() string    { return c.name }
func (c config) ObjectLabel() string { return c.name }

// workbench is a window holding a configuration dropdown and a run
// button, backed by observables.
type workbench struct {
	configs *observable.List[config]
	current *observable.Value[config]
	runs    chan any
	fail    chan error
}

func newWorkbench(current config, configs ...config) *workbench {
	return &workbench{
		configs: observable.NewList(configs...),
		current: observable.NewValue(current),
		runs:    make(chan any, 8),
		fail:    make(chan error, 1),
	}
}

func (w *workbench) window() *presentation.Container {
	selector := &presentation.Selector{
		ID: "configs",
		List: command.Func(func(context.Context, any) (command.Output, error) {
			return command.DynamicList(appobject.DebugConfig, w.configs), nil
		}),
		Select: command.Func(func(_ context.Context, arg any) (command.Output, error) {
			w.current.Set(arg.(config))
			return command.Void(), nil
		}),
		Current: command.Func(func(context.Context, any) (command.Output, error) {
			return command.Dynamic(appobject.DebugConfig, w.current), nil
		}),
	}
	run := &presentation.Action{
		ID:    "run",
		Label: "Run",
		Command: command.Func(func(_ context.Context, arg any) (command.Output, error) {
			select {
			case err := <-w.fail:
				return command.Output{}, err
			default:
			}
			w.runs <- w.current.Get()
			return command.Void(), nil
		}),
	}
	return &presentation.Container{
		ID:    "main",
		Title: "Workbench",
		Children: []presentation.Child{
			{Object: selector, Type: appobject.Selector, Kind: widget.KindDropdown},
			{Object: run, Type: appobject.Command, Kind: widget.KindButton},
		},
	}
}

func presenter() *presentation.Presenter {
	return presentation.NewPresenter(testutil.Logger()).
		Register(presentation.NewContainer, appobject.Window, widget.KindWindow).
		Register(presentation.NewDropdown, appobject.Selector, widget.KindDropdown).
		Register(presentation.NewItem, appobject.DebugConfig, widget.KindDropdownItem).
		Register(presentation.NewButton, appobject.Command, widget.KindButton)
}

func mount(t *testing.T, server *Server, fixture *workbench) {
	t.Helper()
	root, err := presenter().Present(fixture.window(), appobject.Window, widget.KindWindow, presentation.Options{})
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	if err := server.Mount(context.Background(), root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
}

type harness struct {
	server *Server
	client *Client
}

func newHarness(t *testing.T, fixture *workbench) *harness {
	t.Helper()
	backend := dispatch.New(dispatch.Options{Logger: testutil.Logger()})
	renderer := dispatch.New(dispatch.Options{Logger: testutil.Logger()})
	t.Cleanup(func() {
		renderer.Close()
		backend.Close()
	})
	portA, portB := ipc.Pipe()
	backend.AddPeer(portA)
	renderer.AddPeer(portB)

	server, err := NewServer(backend, testutil.Logger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(server.Close)
	if fixture != nil {
		mount(t, server, fixture)
	}
	client, err := NewClient(renderer, testutil.Logger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(client.Close)
	return &harness{server: server, client: client}
}

// waitFor polls the client's model tree until check passes.
func (h *harness) waitFor(t *testing.T, what string, check func(root component.Model) bool) {
	t.Helper()
	deadline := time.Now().Add(wait)
	for {
		var ok bool
		h.client.View(func(root component.Model) { ok = root != nil && check(root) })
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// inSync waits until the client's tree equals the server's snapshot.
func (h *harness) inSync(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(wait)
	for {
		snapshot, err := h.server.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		var diff string
		h.client.View(func(root component.Model) {
			if root == nil {
				diff = "no model tree"
				return
			}
			diff = cmp.Diff(snapshot, root.Widget(), widgetOptions...)
		})
		if diff == "" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("client tree differs from server snapshot (-server +client):\n%s", diff)
		}
		time.Sleep(time.Millisecond)
	}
}

func dropdownOf(root component.Model) *component.DropdownModel {
	return root.(*component.ContainerModel).Children.Model(0).(*component.DropdownModel)
}

func buttonOf(root component.Model) *component.ButtonModel {
	return root.(*component.ContainerModel).Children.Model(1).(*component.ButtonModel)
}

func labels(dropdown *component.DropdownModel) []string {
	var result []string
	for _, item := range dropdown.Items.Models() {
		result = append(result, item.(*component.DropdownItemModel).Label)
	}
	return result
}

func TestClientReceivesSnapshotOnConnect(t *testing.T) {
	fixture := newWorkbench(config{"tests"}, config{"server"}, config{"tests"})
	h := newHarness(t, fixture)

	h.waitFor(t, "initial render", func(root component.Model) bool { return true })
	h.client.View(func(root component.Model) {
		dropdown := dropdownOf(root)
		if diff := cmp.Diff([]string{"server", "tests"}, labels(dropdown)); diff != "" {
			t.Errorf("items mismatch (-want +got):\n%s", diff)
		}
		if dropdown.SelectedItemIndex == nil || *dropdown.SelectedItemIndex != 1 {
			t.Errorf("selection = %v, want 1", dropdown.SelectedItemIndex)
		}
	})
	h.inSync(t)
}

func TestMountAfterConnectBroadcasts(t *testing.T) {
	h := newHarness(t, nil)
	waitSubscribed(t, h.server)

	mount(t, h.server, newWorkbench(config{"server"}, config{"server"}))
	h.waitFor(t, "render after mount", func(root component.Model) bool {
		return root.ID() == "main"
	})
	h.inSync(t)
}

func waitSubscribed(t *testing.T, server *Server) {
	t.Helper()
	deadline := time.Now().Add(wait)
	for len(server.node.Subscribers()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never subscribed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestListChangesReachClient(t *testing.T) {
	fixture := newWorkbench(config{"tests"}, config{"server"}, config{"tests"})
	h := newHarness(t, fixture)
	h.inSync(t)

	fixture.configs.Append(config{"bench"})
	h.waitFor(t, "appended item", func(root component.Model) bool {
		return dropdownOf(root).Items.Len() == 3
	})
	h.inSync(t)

	if err := fixture.configs.SetAt(0, config{"server-debug"}); err != nil {
		t.Fatalf("SetAt: %v", err)
	}
	h.waitFor(t, "replaced item", func(root component.Model) bool {
		return labels(dropdownOf(root))[0] == "server-debug"
	})

	if _, err := fixture.configs.Splice(0, 1); err != nil {
		t.Fatalf("Splice: %v", err)
	}
	h.waitFor(t, "removed item and shifted selection", func(root component.Model) bool {
		dropdown := dropdownOf(root)
		return dropdown.Items.Len() == 2 && dropdown.SelectedItemIndex != nil && *dropdown.SelectedItemIndex == 0
	})
	h.inSync(t)
}

func TestDropdownSelectionRoundTrip(t *testing.T) {
	fixture := newWorkbench(config{"server"}, config{"server"}, config{"tests"})
	h := newHarness(t, fixture)
	h.inSync(t)

	h.client.View(func(root component.Model) {
		if err := dropdownOf(root).Select(1); err != nil {
			t.Fatalf("Select: %v", err)
		}
	})
	h.waitFor(t, "selection patch", func(root component.Model) bool {
		index := dropdownOf(root).SelectedItemIndex
		return index != nil && *index == 1
	})
	if got := fixture.current.Get(); got.name != "tests" {
		t.Errorf("current = %q, want tests", got.name)
	}
	h.inSync(t)
}

func TestButtonClickRunsCommand(t *testing.T) {
	fixture := newWorkbench(config{"server"}, config{"server"})
	h := newHarness(t, fixture)
	h.inSync(t)

	// A failing command is logged; later events are still handled.
	fixture.fail <- errors.New("debugger not installed")
	h.client.View(func(root component.Model) { buttonOf(root).Click() })
	h.client.View(func(root component.Model) { buttonOf(root).Click() })

	got := testutil.RequireReceive(t, fixture.runs, wait, "run command")
	if got.(config).name != "server" {
		t.Errorf("ran %v, want server", got)
	}
	testutil.RequireNoReceive(t, fixture.runs, 50*time.Millisecond, "one successful run")
}

func TestBadPatchTriggersResync(t *testing.T) {
	fixture := newWorkbench(config{"server"}, config{"server"})
	h := newHarness(t, fixture)
	h.inSync(t)

	before := h.client.Updates().Get()
	resynced := make(chan uint64, 4)
	cancel := h.client.Updates().Watch(func(n uint64) { resynced <- n })
	defer cancel()

	bogus := widget.Patch{widget.ReplaceValue(widget.NewPath("children", 7, "label"), "ghost")}
	if err := h.server.node.Broadcast(ChannelPatch, bogus); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	// One update for the patch, one for the resync.
	testutil.RequireReceive(t, resynced, wait, "patch applied")
	if got := testutil.RequireReceive(t, resynced, wait, "resync applied"); got < before+2 {
		t.Errorf("updates = %d, want at least %d", got, before+2)
	}
	h.inSync(t)
}

func TestSnapshotBeforeMount(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.server.Snapshot(); !errors.Is(err, ErrNotMounted) {
		t.Errorf("Snapshot: got %v, want ErrNotMounted", err)
	}
	deadline := time.Now().Add(wait)
	for len(h.client.node.Subscribers()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("server node never announced")
		}
		time.Sleep(time.Millisecond)
	}
	err := h.client.Resync(context.Background())
	var remote *dispatch.RemoteError
	if !errors.As(err, &remote) {
		t.Errorf("Resync: got %v, want *dispatch.RemoteError", err)
	}
}

// relabelingButton changes its label before its Render returns, so the
// change lands between the snapshot and the server's subscription.
type relabelingButton struct{}

func (b *relabelingButton) AppObject() any { return nil }
func (b *relabelingButton) ID() string     { return "run" }

func (b *relabelingButton) Render(_ context.Context, node *presentation.OutputNode) (widget.Widget, *presentation.Stream, error) {
	node.SetPresentation(b)
	stream := presentation.NewStream()
	stream.Emit(widget.Patch{widget.ReplaceValue(widget.NewPath("label"), "Run tests")})
	return widget.Widget{Kind: widget.KindButton, ID: "run", Path: node.Path(), Label: "Run"}, stream, nil
}

func (b *relabelingButton) HandleEvent(context.Context, widget.Event) error { return nil }
func (b *relabelingButton) Dispose()                                        {}

func TestMountKeepsChangesMadeWhileRendering(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.server.Mount(context.Background(), &relabelingButton{}); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	snapshot, err := h.server.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.Label != "Run tests" {
		t.Errorf("snapshot label = %q, want the label set during render", snapshot.Label)
	}
	h.waitFor(t, "relabeled button", func(root component.Model) bool {
		button, ok := root.(*component.ButtonModel)
		return ok && button.Label == "Run tests"
	})
	h.inSync(t)
}
