// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package presentation is the producer side of the widget protocol.
//
// A [Presentation] binds one application object (a command, a window
// description, a debug configuration) to a widget rendering and to
// the handling of UI events addressed to that widget. A [Presenter]
// is the registry that picks a presentation constructor for an
// (application-object type, widget kind) pair, so the same object can
// be presented as different widgets in different places.
//
// Rendering produces two things: a fully populated [widget.Widget]
// snapshot and a [Stream] of patches describing every later change.
// Patches emitted before the stream's first subscriber are held for
// it, so nothing between the snapshot and the subscription is lost;
// later subscribers see only what is emitted after they join. Container presentations render their children
// depth-first and forward every child stream into their own, so the
// root presentation's stream carries all patches of the tree.
//
// While rendering, each presentation attaches itself to an
// [OutputNode]. The output tree mirrors the widget tree on the
// producing side only and computes node paths from positions, so a
// splice that shifts siblings also shifts the paths their later
// patches use. An inbound event is routed by resolving its path to the
// deepest output node and asking that node (or its nearest ancestor)
// for its presentation.
//
// The dropdown presentation is the most involved: it renders an item
// list produced by a command, tracks the current selection, and turns
// live list changes into item patches. List changes are processed one
// at a time on a per-presentation queue so index bookkeeping never
// drifts.
package presentation
