package runner

import (
	"fmt"
	"time"

	"duskhollow/server/internal/behavior"
	"duskhollow/server/internal/blackboard"
	"duskhollow/server/internal/graph"
	"duskhollow/server/internal/value"
)

// Runner is the per-entity execution cursor bound to one template: the
// current node id, the last completion status, the state timer, one
// blackboard, and an owned slot for at most one live task instance. It
// shares its template by reference with every other runner bound to it
// and shares nothing else.
type Runner struct {
	template *graph.Template
	entity   value.EntityRef
	current  graph.NodeID
	last     behavior.Status
	timer    time.Duration
	vars     *blackboard.Store
	active   behavior.Task
}

// New binds an entity to a template. The cursor starts at the declared
// root and the blackboard is seeded from the template schema.
func New(tpl *graph.Template, entity value.EntityRef) (*Runner, error) {
	if tpl == nil {
		return nil, fmt.Errorf("runner: nil template")
	}
	vars, err := tpl.NewStore()
	if err != nil {
		return nil, fmt.Errorf("runner: seed blackboard: %w", err)
	}
	return &Runner{
		template: tpl,
		entity:   entity,
		current:  tpl.Root,
		vars:     vars,
	}, nil
}

// Template returns the shared template.
func (r *Runner) Template() *graph.Template { return r.template }

// Entity returns the bound entity handle.
func (r *Runner) Entity() value.EntityRef { return r.entity }

// CurrentNode returns the cursor position.
func (r *Runner) CurrentNode() graph.NodeID { return r.current }

// SetCurrentNode moves the cursor externally. Moving it to the sentinel
// while a task is running schedules the abort path on the next tick.
func (r *Runner) SetCurrentNode(id graph.NodeID) {
	if r == nil {
		return
	}
	r.current = id
	r.timer = 0
}

// Cancel parks the cursor at the sentinel.
func (r *Runner) Cancel() { r.SetCurrentNode(graph.NodeNone) }

// Restart moves the cursor back to the template root.
func (r *Runner) Restart() { r.SetCurrentNode(r.template.Root) }

// LastStatus reports the most recent completion status.
func (r *Runner) LastStatus() behavior.Status { return r.last }

// StateTimer reports how long the current node has been active.
func (r *Runner) StateTimer() time.Duration { return r.timer }

// Vars exposes the runner's blackboard.
func (r *Runner) Vars() *blackboard.Store { return r.vars }

// ResetVars restores every blackboard entry to its default without
// touching the cursor or the active task.
func (r *Runner) ResetVars() {
	if r == nil {
		return
	}
	r.vars.Reset()
}

// HasActiveTask reports whether a live task instance occupies the slot.
func (r *Runner) HasActiveTask() bool { return r != nil && r.active != nil }
