package graph

import (
	"fmt"
	"sort"
)

// MessageSeverity grades validation findings. Only errors make a template
// unusable; warnings surface authoring smells that still load.
type MessageSeverity int

const (
	SeverityInfo MessageSeverity = iota
	SeverityWarning
	SeverityError
)

func (s MessageSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ValidationMessage is one finding. NodeID is NodeNone for graph-level
// findings.
type ValidationMessage struct {
	Severity MessageSeverity
	NodeID   NodeID
	Message  string
	Remedy   string
}

func (m ValidationMessage) String() string {
	if m.NodeID.IsNone() {
		return fmt.Sprintf("%s: %s", m.Severity, m.Message)
	}
	return fmt.Sprintf("%s: node %d: %s", m.Severity, m.NodeID, m.Message)
}

// HasErrors reports whether any message is error severity. A template with
// errors must never reach the execution engine.
func HasErrors(msgs []ValidationMessage) bool {
	for _, m := range msgs {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

type arity struct {
	min int
	max int // -1 = unbounded
}

var roleArity = map[Role]arity{
	RoleAtomicTask: {min: 0, max: 0},
	RoleSequence:   {min: 1, max: -1},
	RoleSelector:   {min: 1, max: -1},
	RoleParallel:   {min: 1, max: -1},
	RoleDecorator:  {min: 1, max: 1},
	RoleRoot:       {min: 1, max: 1},
}

// Validate runs the structural rule set in a fixed order: non-empty node
// list, duplicate ids, declared root resolution, child/successor
// resolution, cycle detection over child edges, orphan reachability from
// the structural root, and per-role arity. Reference and cycle failures
// short-circuit the later passes since those assume a resolvable graph.
func (t *Template) Validate() []ValidationMessage {
	var msgs []ValidationMessage
	if t == nil || len(t.Nodes) == 0 {
		return append(msgs, ValidationMessage{
			Severity: SeverityError,
			NodeID:   NodeNone,
			Message:  "template has no nodes",
			Remedy:   "author at least one node before saving",
		})
	}

	ids := make(map[NodeID]struct{}, len(t.Nodes))
	for _, n := range t.Nodes {
		if _, dup := ids[n.ID]; dup {
			msgs = append(msgs, ValidationMessage{
				Severity: SeverityError,
				NodeID:   n.ID,
				Message:  fmt.Sprintf("duplicate node id %d", n.ID),
				Remedy:   "renumber the node so every id is unique",
			})
			continue
		}
		ids[n.ID] = struct{}{}
	}
	if HasErrors(msgs) {
		return msgs
	}

	if !t.Root.IsNone() {
		if _, ok := ids[t.Root]; !ok {
			msgs = append(msgs, ValidationMessage{
				Severity: SeverityError,
				NodeID:   NodeNone,
				Message:  fmt.Sprintf("declared root %d does not resolve to a node", t.Root),
				Remedy:   "point rootNodeId at an existing node",
			})
			return msgs
		}
	}

	for _, n := range t.Nodes {
		for _, child := range n.Children {
			if _, ok := ids[child]; !ok {
				msgs = append(msgs, ValidationMessage{
					Severity: SeverityError,
					NodeID:   n.ID,
					Message:  fmt.Sprintf("node %d references unknown child/successor %d", n.ID, child),
					Remedy:   "remove the reference or restore the missing node",
				})
				return msgs
			}
		}
		for _, next := range []NodeID{n.NextOnSuccess, n.NextOnFailure} {
			if next.IsNone() {
				continue
			}
			if _, ok := ids[next]; !ok {
				msgs = append(msgs, ValidationMessage{
					Severity: SeverityError,
					NodeID:   n.ID,
					Message:  fmt.Sprintf("node %d references unknown child/successor %d", n.ID, next),
					Remedy:   "remove the reference or restore the missing node",
				})
				return msgs
			}
		}
	}

	if cycle := t.findCycle(); cycle != nil {
		msgs = append(msgs, *cycle)
		return msgs
	}

	msgs = append(msgs, t.checkOrphans(ids)...)

	for _, n := range t.Nodes {
		bounds, ok := roleArity[n.Role]
		if !ok {
			continue
		}
		count := len(n.Children)
		if count < bounds.min || (bounds.max >= 0 && count > bounds.max) {
			limit := "unbounded"
			if bounds.max >= 0 {
				limit = fmt.Sprintf("%d", bounds.max)
			}
			msgs = append(msgs, ValidationMessage{
				Severity: SeverityError,
				NodeID:   n.ID,
				Message:  fmt.Sprintf("%s node %d has %d children, expected %d..%s", n.Role, n.ID, count, bounds.min, limit),
				Remedy:   "adjust the node's children to satisfy its role",
			})
		}
	}
	return msgs
}

// findCycle runs a DFS over child edges. Successor chains may
// legitimately loop (patrol graphs re-enter their first node), so only
// child and decorator-child edges participate.
func (t *Template) findCycle() *ValidationMessage {
	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[NodeID]int, len(t.Nodes))
	children := make(map[NodeID][]NodeID, len(t.Nodes))
	for _, n := range t.Nodes {
		children[n.ID] = n.Children
	}

	var visit func(id NodeID) *ValidationMessage
	visit = func(id NodeID) *ValidationMessage {
		state[id] = onStack
		for _, child := range children[id] {
			switch state[child] {
			case onStack:
				return &ValidationMessage{
					Severity: SeverityError,
					NodeID:   child,
					Message:  fmt.Sprintf("cycle detected involving node %d", child),
					Remedy:   "break the child loop; graphs must be acyclic over child edges",
				}
			case unvisited:
				if msg := visit(child); msg != nil {
					return msg
				}
			}
		}
		state[id] = done
		return nil
	}

	for _, n := range t.Nodes {
		if state[n.ID] == unvisited {
			if msg := visit(n.ID); msg != nil {
				return msg
			}
		}
	}
	return nil
}

// checkOrphans determines the structural root (the node no other node
// references through children or successors) and flags every node BFS
// cannot reach from it. Orphans are warnings: disconnected subgraphs are
// sometimes staged intentionally during authoring.
func (t *Template) checkOrphans(ids map[NodeID]struct{}) []ValidationMessage {
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

	var unreferenced []NodeID
	for id := range ids {
		if _, ok := referenced[id]; !ok {
			unreferenced = append(unreferenced, id)
		}
	}
	sort.Slice(unreferenced, func(i, j int) bool { return unreferenced[i] < unreferenced[j] })

	start := t.Root
	if start.IsNone() {
		if len(unreferenced) != 1 {
			return []ValidationMessage{{
				Severity: SeverityError,
				NodeID:   NodeNone,
				Message:  fmt.Sprintf("no declared root and %d candidate structural roots", len(unreferenced)),
				Remedy:   "declare rootNodeId or leave exactly one unreferenced node",
			}}
		}
		start = unreferenced[0]
	}

	edges := make(map[NodeID][]NodeID, len(t.Nodes))
	for _, n := range t.Nodes {
		out := append([]NodeID(nil), n.Children...)
		if !n.NextOnSuccess.IsNone() {
			out = append(out, n.NextOnSuccess)
		}
		if !n.NextOnFailure.IsNone() {
			out = append(out, n.NextOnFailure)
		}
		edges[n.ID] = out
	}

	reached := map[NodeID]struct{}{start: {}}
	queue := []NodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range edges[cur] {
			if _, seen := reached[next]; seen {
				continue
			}
			reached[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	var msgs []ValidationMessage
	for _, n := range t.Nodes {
		if _, ok := reached[n.ID]; !ok {
			msgs = append(msgs, ValidationMessage{
				Severity: SeverityWarning,
				NodeID:   n.ID,
				Message:  fmt.Sprintf("orphan node %d is unreachable from the root", n.ID),
				Remedy:   "connect the node or remove it before shipping",
			})
		}
	}
	return msgs
}
