// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package displayserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/workbench/lib/component"
	"github.com/bureau-foundation/workbench/lib/dispatch"
	"github.com/bureau-foundation/workbench/lib/observable"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// resyncTimeout bounds a snapshot request made after a bad patch.
const resyncTimeout = 10 * time.Second

// Client mirrors the server's widget tree as component models.
type Client struct {
	logger  *slog.Logger
	node    *dispatch.Node
	factory *component.Factory

	// mu guards the model tree. Models are not safe for concurrent
	// use; readers go through View.
	mu        sync.Mutex
	root      component.Model
	resyncing bool
	applied   uint64

	// updates counts applied renders and patches.
	updates *observable.Value[uint64]
}

// NewClient opens a display node on d. The server pushes its tree as
// soon as the node is announced.
func NewClient(d *dispatch.Dispatcher, logger *slog.Logger) (*Client, error) {
	c := &Client{logger: logger, updates: observable.NewValue[uint64](0)}
	c.factory = component.NewFactory(c.sendEvent)

	node, err := d.Open(Key)
	if err != nil {
		return nil, fmt.Errorf("opening %s node: %w", Key, err)
	}
	c.node = node
	node.Handle(ChannelRender, c.handleRender)
	node.Handle(ChannelPatch, c.handlePatch)
	node.OnDisconnect(func(peer string) {
		c.logger.Info("display server disconnected", "peer", peer)
	})
	return c, nil
}

// Updates reports a counter incremented after every applied render or
// patch. Renderers watch it to know when to redraw.
func (c *Client) Updates() *observable.Value[uint64] { return c.updates }

// View calls fn with the current root model, or nil before the first
// render, while holding the tree lock. fn may call model methods that
// emit events.
func (c *Client) View(fn func(root component.Model)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.root)
}

// Resync replaces the model tree with a fresh snapshot from the
// server.
func (c *Client) Resync(ctx context.Context) error {
	var w widget.Widget
	if err := c.node.Request(ctx, ChannelSnapshot, nil, &w); err != nil {
		return fmt.Errorf("requesting snapshot: %w", err)
	}
	return c.replaceRoot(w)
}

// Close withdraws the node.
func (c *Client) Close() {
	c.node.Close()
}

func (c *Client) handleRender(_ context.Context, call dispatch.Call) (any, error) {
	var w widget.Widget
	if err := call.Decode(&w); err != nil {
		return nil, fmt.Errorf("decoding rendered tree: %w", err)
	}
	return nil, c.replaceRoot(w)
}

func (c *Client) replaceRoot(w widget.Widget) error {
	root, err := c.factory.CreateModel(w)
	if err != nil {
		return fmt.Errorf("building model tree: %w", err)
	}
	c.mu.Lock()
	c.root = root
	c.mu.Unlock()
	c.bump()
	c.logger.Debug("model tree rebuilt", "root", w.ID, "kind", w.Kind.String())
	return nil
}

// handlePatch applies each change of a patch in order. A change that
// fails is logged and skipped, and a resync is scheduled.
func (c *Client) handlePatch(_ context.Context, call dispatch.Call) (any, error) {
	var patch widget.Patch
	if err := call.Decode(&patch); err != nil {
		return nil, fmt.Errorf("decoding patch: %w", err)
	}

	c.mu.Lock()
	root := c.root
	if root == nil {
		c.mu.Unlock()
		c.logger.Debug("dropping patch before first render", "changes", len(patch))
		return nil, nil
	}
	var failed bool
	for _, change := range patch {
		if err := root.ApplyWidgetChange(change, c.factory.Create()); err != nil {
			failed = true
			c.logger.Error("change does not fit the model tree",
				"op", change.Op.String(), "path", change.Path.String(), "error", err)
		}
	}
	c.mu.Unlock()
	c.bump()

	if failed {
		c.scheduleResync()
	}
	return nil, nil
}

// scheduleResync requests a fresh snapshot on its own goroutine: the
// answer arrives on the same peer reader that is running the patch
// handler.
func (c *Client) scheduleResync() {
	c.mu.Lock()
	if c.resyncing {
		c.mu.Unlock()
		return
	}
	c.resyncing = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.resyncing = false
			c.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
		defer cancel()
		if err := c.Resync(ctx); err != nil && !errors.Is(err, dispatch.ErrCancelled) {
			c.logger.Error("resync failed", "error", err)
		}
	}()
}

func (c *Client) bump() {
	c.mu.Lock()
	c.applied++
	applied := c.applied
	c.mu.Unlock()
	c.updates.Set(applied)
}

// sendEvent forwards a user action to the server.
func (c *Client) sendEvent(event widget.Event) {
	if err := c.node.Send(ChannelEvent, event); err != nil {
		c.logger.Warn("sending event", "kind", event.Kind.String(), "path", event.Path.String(), "error", err)
	}
}
