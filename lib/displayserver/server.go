// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package displayserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/workbench/lib/dispatch"
	"github.com/bureau-foundation/workbench/lib/presentation"
	"github.com/bureau-foundation/workbench/lib/widget"
)

// Key is the dispatch key shared by the server and its clients.
const Key = "displayserver"

// Channels under Key.
const (
	ChannelRender   = "render"
	ChannelPatch    = "patch"
	ChannelEvent    = "event"
	ChannelSnapshot = "snapshot"
)

// ErrNotMounted is returned while no root presentation is mounted.
var ErrNotMounted = errors.New("no presentation mounted")

// Server publishes one presentation tree to every connected renderer.
type Server struct {
	logger *slog.Logger
	node   *dispatch.Node

	// mu orders snapshot updates against sends, so every renderer
	// sees its snapshot before any patch made after it.
	mu          sync.Mutex
	root        presentation.Presentation
	output      *presentation.OutputNode
	snapshot    any
	unsubscribe func()
	patches     uint64
}

// NewServer opens the display server node on d.
func NewServer(d *dispatch.Dispatcher, logger *slog.Logger) (*Server, error) {
	node, err := d.Open(Key)
	if err != nil {
		return nil, fmt.Errorf("opening %s node: %w", Key, err)
	}
	s := &Server{logger: logger, node: node}
	node.Handle(ChannelEvent, s.handleEvent)
	node.Handle(ChannelSnapshot, s.handleSnapshot)
	node.OnConnect(s.sendSnapshot)
	node.OnDisconnect(func(peer string) {
		s.logger.Info("renderer disconnected", "peer", peer)
	})
	return s, nil
}

// Mount renders root and publishes it to every connected renderer,
// replacing any previously mounted presentation.
func (s *Server) Mount(ctx context.Context, root presentation.Presentation) error {
	output := presentation.NewOutputTree()
	rendered, stream, err := root.Render(ctx, output)
	if err != nil {
		root.Dispose()
		return fmt.Errorf("rendering %s: %w", root.ID(), err)
	}
	snapshot, err := widget.ToValue(rendered)
	if err != nil {
		root.Dispose()
		return fmt.Errorf("encoding rendered tree: %w", err)
	}

	s.mu.Lock()
	previous, previousUnsubscribe := s.root, s.unsubscribe
	s.root, s.output, s.snapshot = root, output, snapshot
	s.unsubscribe = nil
	encoded, err := json.Marshal(snapshot)
	if err == nil {
		err = s.node.Broadcast(ChannelRender, json.RawMessage(encoded))
	}
	s.mu.Unlock()

	// Subscribing delivers the patches root emitted since it rendered,
	// which take s.mu, so it happens outside it.
	if stream != nil {
		unsubscribe := stream.Subscribe(func(patch widget.Patch) { s.publish(root, patch) })
		s.mu.Lock()
		current := s.root == root
		if current {
			s.unsubscribe = unsubscribe
		}
		s.mu.Unlock()
		if !current {
			unsubscribe()
		}
	}

	if previousUnsubscribe != nil {
		previousUnsubscribe()
	}
	if previous != nil {
		previous.Dispose()
	}
	s.logger.Info("presentation mounted", "id", root.ID(), "kind", rendered.Kind.String())
	if err != nil {
		return fmt.Errorf("publishing rendered tree: %w", err)
	}
	return nil
}

// Snapshot returns the current widget tree.
func (s *Server) Snapshot() (widget.Widget, error) {
	s.mu.Lock()
	encoded, err := s.encodeLocked()
	s.mu.Unlock()
	if err != nil {
		return widget.Widget{}, err
	}
	var w widget.Widget
	if err := json.Unmarshal(encoded, &w); err != nil {
		return widget.Widget{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return w, nil
}

// Close disposes the mounted presentation and withdraws the node.
func (s *Server) Close() {
	s.mu.Lock()
	root, unsubscribe := s.root, s.unsubscribe
	s.root, s.output, s.snapshot, s.unsubscribe = nil, nil, nil, nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	if root != nil {
		root.Dispose()
	}
	s.node.Close()
}

// publish applies a patch from root to the snapshot and forwards it to
// renderers. Patches from a root that is no longer mounted are dropped.
func (s *Server) publish(root presentation.Presentation, patch widget.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil || s.root != root {
		return
	}
	for _, change := range patch {
		if err := widget.ApplyToValue(s.snapshot, change); err != nil {
			s.logger.Error("patch does not fit the rendered tree",
				"op", change.Op.String(), "path", change.Path.String(), "error", err)
		}
	}
	s.patches++
	if err := s.node.Broadcast(ChannelPatch, patch); err != nil {
		s.logger.Warn("broadcasting patch", "error", err)
	}
}

// sendSnapshot pushes the current tree to a renderer that just
// subscribed.
func (s *Server) sendSnapshot(peer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		s.logger.Info("renderer connected before mount", "peer", peer)
		return
	}
	encoded, err := s.encodeLocked()
	if err == nil {
		err = s.node.SendTo(peer, ChannelRender, json.RawMessage(encoded))
	}
	if err != nil {
		s.logger.Warn("sending snapshot", "peer", peer, "error", err)
		return
	}
	s.logger.Info("renderer connected", "peer", peer, "patches_so_far", s.patches)
}

func (s *Server) encodeLocked() ([]byte, error) {
	if s.snapshot == nil {
		return nil, ErrNotMounted
	}
	encoded, err := json.Marshal(s.snapshot)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return encoded, nil
}

func (s *Server) handleSnapshot(_ context.Context, call dispatch.Call) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	encoded, err := s.encodeLocked()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("snapshot requested", "peer", call.Peer)
	return json.RawMessage(encoded), nil
}

// handleEvent routes a UI event to the presentation owning its path.
// Failures are logged, never returned: a bad event must not stop the
// peer's message stream.
func (s *Server) handleEvent(ctx context.Context, call dispatch.Call) (any, error) {
	var event widget.Event
	if err := call.Decode(&event); err != nil {
		s.logger.Warn("dropping undecodable event", "peer", call.Peer, "error", err)
		return nil, nil
	}

	s.mu.Lock()
	output := s.output
	s.mu.Unlock()
	if output == nil {
		s.logger.Debug("dropping event before mount", "path", event.Path.String())
		return nil, nil
	}

	target := output.Resolve(event.Path).Presentation()
	if target == nil {
		s.logger.Debug("no presentation for event", "path", event.Path.String())
		return nil, nil
	}
	if err := target.HandleEvent(ctx, event); err != nil {
		s.logger.Error("event handler failed",
			"kind", event.Kind.String(), "path", event.Path.String(), "presentation", target.ID(), "error", err)
	}
	return nil, nil
}
