package graph

import (
	"duskhollow/server/internal/blackboard"
)

// Template is the compiled, immutable form of an authored graph document.
// After validation succeeds it is shared read-only across every runner
// bound to it; nothing mutates it post-validation.
type Template struct {
	Name        string
	Description string
	Variables   []blackboard.Definition
	Nodes       []Node
	Root        NodeID

	index map[NodeID]*Node
}

// BuildLookupCache rebuilds the id lookup map. Call it after any mutation
// of the node list and before relying on GetNode.
func (t *Template) BuildLookupCache() {
	if t == nil {
		return
	}
	t.index = make(map[NodeID]*Node, len(t.Nodes))
	for i := range t.Nodes {
		t.index[t.Nodes[i].ID] = &t.Nodes[i]
	}
}

// GetNode returns the node with the given id, or nil if absent. The cache
// must have been built.
func (t *Template) GetNode(id NodeID) *Node {
	if t == nil || t.index == nil {
		return nil
	}
	return t.index[id]
}

// EffectiveRoot returns the declared root, or the structural root when
// none is declared: the single node no other node references through
// children or successors. NodeNone when neither resolves.
func (t *Template) EffectiveRoot() NodeID {
	if t == nil {
		return NodeNone
	}
	if !t.Root.IsNone() {
		return t.Root
	}
	referenced := make(map[NodeID]struct{}, len(t.Nodes))
	for _, n := range t.Nodes {
		for _, child := range n.Children {
			referenced[child] = struct{}{}
		}
		if !n.NextOnSuccess.IsNone() {
			referenced[n.NextOnSuccess] = struct{}{}
		}
		if !n.NextOnFailure.IsNone() {
			referenced[n.NextOnFailure] = struct{}{}
		}
	}
	root := NodeNone
	for _, n := range t.Nodes {
		if _, ok := referenced[n.ID]; ok {
			continue
		}
		if !root.IsNone() {
			return NodeNone
		}
		root = n.ID
	}
	return root
}

// NewStore builds a blackboard seeded from the template's variable schema.
func (t *Template) NewStore() (*blackboard.Store, error) {
	if t == nil {
		return blackboard.NewStore(nil)
	}
	return blackboard.NewStore(t.Variables)
}
