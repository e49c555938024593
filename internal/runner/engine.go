package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"duskhollow/server/internal/behavior"
	"duskhollow/server/internal/graph"
	"duskhollow/server/logging"
)

// ErrUnboundVariable reports a variable-ref binding naming a blackboard
// variable absent from the runner's schema.
var ErrUnboundVariable = errors.New("unbound variable")

const (
	EventTaskAborted     logging.EventType = "engine.task_aborted"
	EventBehaviorMissing logging.EventType = "engine.behavior_missing"
	EventUnboundVariable logging.EventType = "engine.unbound_variable"
	EventStructuralNode  logging.EventType = "engine.structural_node"
)

// Engine drives runners one tick at a time. It holds no per-runner state
// itself, so one engine serves every runner; a runner's tick runs to
// completion before the next runner's begins.
type Engine struct {
	registry *behavior.Registry
	world    behavior.World
	pub      logging.Publisher
}

func NewEngine(registry *behavior.Registry, world behavior.World, pub logging.Publisher) *Engine {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Engine{registry: registry, world: world, pub: pub}
}

// Tick advances one runner by at most one node transition. Recoverable
// problems (missing behavior, unbound variable) are published and leave
// the runner in its last stable state; only a template-integrity failure
// returns an error, since it should be impossible post-validation.
func (e *Engine) Tick(r *Runner, dt time.Duration, tick uint64, now time.Time) error {
	if r == nil {
		return fmt.Errorf("engine: nil runner")
	}

	// Sentinel cursor: the graph is complete, unless an instance is still
	// alive because the cursor was moved externally mid-run. That abort is
	// the only teardown that skips a Success/Failure return.
	if r.current.IsNone() {
		if r.active != nil {
			r.active.Abort()
			r.active = nil
			r.last = behavior.StatusAborted
			e.publish(EventTaskAborted, logging.SeverityInfo, tick, now, r, map[string]any{
				"entity": uint64(r.entity),
			})
		}
		return nil
	}

	node := r.template.GetNode(r.current)
	if node == nil {
		return fmt.Errorf("engine: template %q has no node %d", r.template.Name, r.current)
	}

	// Structural roles should have been flattened into successor chains by
	// the authoring tool; hitting one at runtime is an authoring gap, not
	// a crash. Skip along the success edge, consuming the tick.
	if node.Role != graph.RoleAtomicTask {
		e.publish(EventStructuralNode, logging.SeverityWarn, tick, now, r, map[string]any{
			"node": int32(node.ID),
			"role": node.Role.String(),
		})
		r.current = node.NextOnSuccess
		r.timer = 0
		return nil
	}

	params, err := e.resolveParams(node, r)
	if err != nil {
		e.publish(EventUnboundVariable, logging.SeverityWarn, tick, now, r, map[string]any{
			"node":  int32(node.ID),
			"error": err.Error(),
		})
		return nil
	}

	if r.active == nil {
		task, err := e.registry.Create(node.Behavior)
		if err != nil {
			e.publish(EventBehaviorMissing, logging.SeverityWarn, tick, now, r, map[string]any{
				"node":     int32(node.ID),
				"behavior": node.Behavior,
				"error":    err.Error(),
			})
			return nil
		}
		r.active = task
	}

	status := r.active.Tick(behavior.TickContext{
		Entity:  r.entity,
		World:   e.world,
		Vars:    r.vars,
		Params:  params,
		Delta:   dt,
		Elapsed: r.timer,
		Tick:    tick,
		Now:     now,
	})

	switch status {
	case behavior.StatusRunning:
		r.timer += dt
		return nil
	case behavior.StatusSuccess:
		r.active = nil
		r.last = behavior.StatusSuccess
		r.timer = 0
		r.current = node.NextOnSuccess
	case behavior.StatusFailure:
		r.active = nil
		r.last = behavior.StatusFailure
		r.timer = 0
		r.current = node.NextOnFailure
	default:
		// Anything else is a misbehaving task; treat it as a failure so
		// the graph keeps moving instead of wedging the runner.
		r.active = nil
		r.last = behavior.StatusFailure
		r.timer = 0
		r.current = node.NextOnFailure
	}
	return nil
}

// Abort tears down a runner's live task immediately, outside the tick
// loop. Used when an entity is unbound or removed so the task can release
// external resources before the runner goes away.
func (e *Engine) Abort(r *Runner) {
	if r == nil || r.active == nil {
		return
	}
	r.active.Abort()
	r.active = nil
	r.last = behavior.StatusAborted
}

func (e *Engine) resolveParams(node *graph.Node, r *Runner) (behavior.Params, error) {
	if len(node.Params) == 0 {
		return nil, nil
	}
	params := make(behavior.Params, len(node.Params))
	for name, binding := range node.Params {
		switch binding.Mode {
		case graph.BindLiteral:
			params[name] = binding.Literal
		case graph.BindVariableRef:
			v, err := r.vars.Get(binding.Variable)
			if err != nil {
				return nil, fmt.Errorf("%w: parameter %q references %q", ErrUnboundVariable, name, binding.Variable)
			}
			params[name] = v
		default:
			return nil, fmt.Errorf("parameter %q has unknown binding mode", name)
		}
	}
	return params, nil
}

func (e *Engine) publish(evt logging.EventType, sev logging.Severity, tick uint64, now time.Time, r *Runner, payload map[string]any) {
	e.pub.Publish(context.Background(), logging.Event{
		Type:     evt,
		Tick:     tick,
		Time:     now,
		Severity: sev,
		Category: logging.CategoryRuntime,
		Subject: logging.EntityRef{
			ID:   fmt.Sprintf("%d", uint64(r.entity)),
			Kind: logging.EntityKindEntity,
		},
		Payload: payload,
	})
}
