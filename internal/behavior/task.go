package behavior

import (
	"time"

	"duskhollow/server/internal/value"
)

// Status is a task's per-tick verdict.
type Status int

const (
	StatusNone Status = iota
	StatusRunning
	StatusSuccess
	StatusFailure
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Params is the resolved parameter map handed to a task each tick. Every
// binding has already been resolved against the blackboard; tasks read it
// with the typed value accessors.
type Params map[string]value.Value

// World is the entity accessor a task uses to touch gameplay state. The
// engine never reads it itself.
type World interface {
	Position(ref value.EntityRef) (value.Vec3, bool)
	Velocity(ref value.EntityRef) (value.Vec3, bool)
	SetVelocity(ref value.EntityRef, vel value.Vec3) bool
}

// TickContext carries everything a task may touch during one tick.
type TickContext struct {
	Entity value.EntityRef
	World  World
	Vars   VariableAccess
	Params Params
	// Delta is the frame's elapsed time; Elapsed accumulates since the
	// current node began.
	Delta   time.Duration
	Elapsed time.Duration
	Tick    uint64
	Now     time.Time
}

// VariableAccess is the blackboard surface tasks see: typed get/set only,
// no schema mutation.
type VariableAccess interface {
	Get(name string) (value.Value, error)
	Set(name string, v value.Value) error
}

// Task is one live leaf-behavior instance. The engine creates it on first
// visit to its node, ticks it until it reports Success or Failure, and
// calls Abort exactly once if the runner is cancelled while it is Running.
type Task interface {
	Tick(ctx TickContext) Status
	Abort()
}

// Factory constructs a fresh task instance per activation.
type Factory func() Task
