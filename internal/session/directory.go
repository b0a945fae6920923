// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation synchronization core.
package session

import (
	"sort"
	"strings"

	"github.com/sprouts-ai/sprouts-tui/internal/model"
)

// =============================================================================
// CONVERSATION DIRECTORY
// =============================================================================

// Directory holds the server's conversation listing. The listing is
// replaced wholesale on every refresh; the client never edits it
// locally, renames included, because the server answers every mutation
// with a fresh listing.
type Directory struct {
	conversations []model.Conversation
}

// Refresh replaces the listing with the server's latest snapshot.
func (d *Directory) Refresh(list []model.Conversation) {
	d.conversations = list
}

// All returns a copy of the listing in server order.
func (d *Directory) All() []model.Conversation {
	out := make([]model.Conversation, len(d.conversations))
	copy(out, d.conversations)
	return out
}

// Len returns the number of listed conversations.
func (d *Directory) Len() int {
	return len(d.conversations)
}

// =============================================================================
// DIRECTORY TREE
// =============================================================================

// Node is one entry in the grouped sidebar tree: either a leaf carrying
// a conversation, or a named group with children.
type Node struct {
	Name         string
	Conversation *model.Conversation
	Children     []*Node

	index map[string]*Node
}

// IsGroup reports whether the node is a group rather than a leaf.
func (n *Node) IsGroup() bool {
	return n.Conversation == nil
}

// Tree groups the listing by the "/" segments of conversation names:
// "projects/demo" becomes a "demo" leaf under a "projects" group, and
// deeper paths nest accordingly. Conversations with blank names are
// excluded entirely.
//
// When two names collide at the same position the later entry wins,
// whether the collision is leaf-on-leaf or leaf-on-group. Within each
// level, groups sort before leaves and both sort by name, so grouped
// conversations always lead the sidebar.
func (d *Directory) Tree() []*Node {
	root := newGroup("")
	for i := range d.conversations {
		c := &d.conversations[i]
		parts := splitName(c.ConversationName)
		if len(parts) == 0 {
			continue
		}
		root.insert(parts, c)
	}
	root.sortChildren()
	return root.Children
}

// splitName breaks a conversation name into path segments, discarding
// empties so names like "projects/" cannot produce nameless nodes.
func splitName(name string) []string {
	var parts []string
	for _, p := range strings.Split(name, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func newGroup(name string) *Node {
	return &Node{Name: name, index: make(map[string]*Node)}
}

func (n *Node) insert(parts []string, c *model.Conversation) {
	cur := n
	for _, part := range parts[:len(parts)-1] {
		child := cur.index[part]
		if child == nil || !child.IsGroup() {
			// A leaf sitting where a group belongs is displaced;
			// last write wins at every level.
			child = newGroup(part)
			cur.put(child)
		}
		cur = child
	}
	cur.put(&Node{Name: parts[len(parts)-1], Conversation: c})
}

func (n *Node) put(child *Node) {
	if old, ok := n.index[child.Name]; ok {
		for i, c := range n.Children {
			if c == old {
				n.Children[i] = child
				break
			}
		}
	} else {
		n.Children = append(n.Children, child)
	}
	n.index[child.Name] = child
}

func (n *Node) sortChildren() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		gi, gj := n.Children[i].IsGroup(), n.Children[j].IsGroup()
		if gi != gj {
			return gi
		}
		return n.Children[i].Name < n.Children[j].Name
	})
	for _, c := range n.Children {
		if c.IsGroup() {
			c.sortChildren()
		}
	}
}
