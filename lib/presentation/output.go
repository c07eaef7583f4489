// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package presentation

import (
	"fmt"
	"sync"

	"github.com/bureau-foundation/workbench/lib/widget"
)

// OutputNode is one node of the producer-side tree that mirrors the
// rendered widget tree. It remembers which presentation produced the
// widget at its position so events can be routed back by path.
//
// Children live in named collections ("children", "items"). A child's
// path is its parent's path followed by the collection name and its
// current position, computed on demand, so inserting or removing
// siblings renumbers later children without touching them.
//
// All nodes of one tree share a lock.
type OutputNode struct {
	tree     *outputTree
	parent   *OutputNode
	property string
	detached bool

	presentation Presentation
	collections  map[string][]*OutputNode
}

type outputTree struct {
	mu sync.Mutex
}

// NewOutputTree returns the root node of an empty tree. Its path is
// the empty path.
func NewOutputTree() *OutputNode {
	return &OutputNode{tree: &outputTree{}}
}

func (n *OutputNode) newChild(property string) *OutputNode {
	return &OutputNode{tree: n.tree, parent: n, property: property}
}

// AddChild appends a node to the named collection.
func (n *OutputNode) AddChild(property string) *OutputNode {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	child := n.newChild(property)
	if n.collections == nil {
		n.collections = make(map[string][]*OutputNode)
	}
	n.collections[property] = append(n.collections[property], child)
	return child
}

// AddChildAt inserts a node into the named collection at index.
func (n *OutputNode) AddChildAt(property string, index int) (*OutputNode, error) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	children := n.collections[property]
	if index < 0 || index > len(children) {
		return nil, fmt.Errorf("output node %s: insert %s[%d] outside [0, %d]", n.pathLocked(), property, index, len(children))
	}
	child := n.newChild(property)
	spliced, _, _ := widget.SpliceSlice(children, index, 0, child)
	if n.collections == nil {
		n.collections = make(map[string][]*OutputNode)
	}
	n.collections[property] = spliced
	return child, nil
}

// RemoveChildren detaches count nodes starting at start from the named
// collection.
func (n *OutputNode) RemoveChildren(property string, start, count int) error {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	children := n.collections[property]
	spliced, removed, err := widget.SpliceSlice(children, start, count)
	if err != nil {
		return fmt.Errorf("output node %s: remove %s: %w", n.pathLocked(), property, err)
	}
	for _, child := range removed {
		child.detachLocked()
	}
	n.collections[property] = spliced
	return nil
}

// Children returns the nodes of the named collection.
func (n *OutputNode) Children(property string) []*OutputNode {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return append([]*OutputNode(nil), n.collections[property]...)
}

func (n *OutputNode) detachLocked() {
	n.detached = true
	n.presentation = nil
	for _, children := range n.collections {
		for _, child := range children {
			child.detachLocked()
		}
	}
}

// Path returns the node's current path. A node removed from its tree
// has a nil path.
func (n *OutputNode) Path() widget.Path {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.pathLocked()
}

func (n *OutputNode) pathLocked() widget.Path {
	if n.detached {
		return nil
	}
	if n.parent == nil {
		return widget.Path{}
	}
	parentPath := n.parent.pathLocked()
	if parentPath == nil {
		return nil
	}
	for i, sibling := range n.parent.collections[n.property] {
		if sibling == n {
			return parentPath.Append(widget.Name(n.property), widget.Index(i))
		}
	}
	return nil
}

// SetPresentation records the presentation that produced this node.
func (n *OutputNode) SetPresentation(presentation Presentation) {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	n.presentation = presentation
}

// Presentation returns the presentation of this node, or of its
// nearest ancestor that has one.
func (n *OutputNode) Presentation() Presentation {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	for node := n; node != nil; node = node.parent {
		if node.presentation != nil {
			return node.presentation
		}
	}
	return nil
}

// Resolve returns the deepest node below n whose path is a prefix of
// path. Steps are consumed in (collection, index) pairs; resolution
// stops at the first pair that names no child.
func (n *OutputNode) Resolve(path widget.Path) *OutputNode {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	node := n
	for i := 0; i+1 < len(path); i += 2 {
		name, index := path[i], path[i+1]
		if name.IsIndex() || !index.IsIndex() {
			break
		}
		children := node.collections[name.Name()]
		if index.Index() < 0 || index.Index() >= len(children) {
			break
		}
		node = children[index.Index()]
	}
	return node
}
