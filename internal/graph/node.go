package graph

import (
	"duskhollow/server/internal/value"
)

// NodeID identifies a node within one template. Ids are only unique per
// template, never globally.
type NodeID int32

// NodeNone is the sentinel id: no successor, or graph complete.
const NodeNone NodeID = -1

// IsNone reports whether the id is the sentinel.
func (id NodeID) IsNone() bool { return id == NodeNone }

// Role classifies what a node contributes to the graph. Only AtomicTask
// nodes execute behaviors; structural roles exist for authoring and
// validation and are flattened into successor chains before play.
type Role int

const (
	RoleAtomicTask Role = iota
	RoleSequence
	RoleSelector
	RoleParallel
	RoleDecorator
	RoleRoot
)

func (r Role) String() string {
	switch r {
	case RoleAtomicTask:
		return "atomicTask"
	case RoleSequence:
		return "sequence"
	case RoleSelector:
		return "selector"
	case RoleParallel:
		return "parallel"
	case RoleDecorator:
		return "decorator"
	case RoleRoot:
		return "root"
	default:
		return "unknown"
	}
}

// BindingMode selects how a parameter binding produces its value at tick
// time.
type BindingMode int

const (
	// BindLiteral passes the embedded value through unchanged.
	BindLiteral BindingMode = iota
	// BindVariableRef resolves a blackboard variable by name each tick.
	BindVariableRef
)

// ParameterBinding carries either an embedded literal or a variable name
// resolved against the runner's blackboard when the node ticks.
type ParameterBinding struct {
	Mode     BindingMode
	Literal  value.Value
	Variable string
}

// LiteralBinding wraps a value in a literal binding.
func LiteralBinding(v value.Value) ParameterBinding {
	return ParameterBinding{Mode: BindLiteral, Literal: v}
}

// VariableBinding references a blackboard variable by name.
func VariableBinding(name string) ParameterBinding {
	return ParameterBinding{Mode: BindVariableRef, Variable: name}
}

// Node is one definition in a template's node list.
type Node struct {
	ID       NodeID
	Name     string
	Role     Role
	Children []NodeID
	// Behavior names the registered task factory when Role is AtomicTask.
	Behavior string
	Params   map[string]ParameterBinding
	// NextOnSuccess and NextOnFailure drive the flat-chain execution model.
	// NodeNone means the graph completes when this node finishes with the
	// matching status.
	NextOnSuccess NodeID
	NextOnFailure NodeID
}
