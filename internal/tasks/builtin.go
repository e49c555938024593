package tasks

import (
	"context"
	"math"
	"strconv"
	"time"

	"duskhollow/server/internal/behavior"
	"duskhollow/server/internal/value"
	"duskhollow/server/logging"
)

const EventTaskLog logging.EventType = "task.log"

// RegisterBuiltins installs the stock leaf behaviors. Authored documents
// may reference them by these ids or by the legacy Task_-prefixed forms.
func RegisterBuiltins(reg *behavior.Registry, pub logging.Publisher) {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	reg.Register("wait", func() behavior.Task { return &waitTask{} })
	reg.Register("idle", func() behavior.Task { return &idleTask{} })
	reg.Register("log", func() behavior.Task { return &logTask{pub: pub} })
	reg.Register("setVariable", func() behavior.Task { return &setVariableTask{} })
	reg.Register("moveToward", func() behavior.Task { return &moveTask{} })
}

// waitTask runs until the state timer passes its seconds parameter.
type waitTask struct{}

func (t *waitTask) Tick(ctx behavior.TickContext) behavior.Status {
	seconds, err := ctx.Params["seconds"].AsFloat()
	if err != nil {
		return behavior.StatusFailure
	}
	if ctx.Elapsed+ctx.Delta >= time.Duration(float64(seconds)*float64(time.Second)) {
		return behavior.StatusSuccess
	}
	return behavior.StatusRunning
}

func (t *waitTask) Abort() {}

// idleTask never completes on its own. Runners parked on it stay put until
// externally cancelled, which is the documented contract for open-ended
// behaviors.
type idleTask struct{}

func (t *idleTask) Tick(behavior.TickContext) behavior.Status { return behavior.StatusRunning }
func (t *idleTask) Abort()                                    {}

// logTask publishes its message parameter and succeeds.
type logTask struct {
	pub logging.Publisher
}

func (t *logTask) Tick(ctx behavior.TickContext) behavior.Status {
	msg, err := ctx.Params["message"].AsString()
	if err != nil {
		return behavior.StatusFailure
	}
	t.pub.Publish(context.Background(), logging.Event{
		Type:     EventTaskLog,
		Tick:     ctx.Tick,
		Time:     ctx.Now,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRuntime,
		Subject: logging.EntityRef{
			ID:   entityID(ctx.Entity),
			Kind: logging.EntityKindEntity,
		},
		Payload: map[string]any{"message": msg},
	})
	return behavior.StatusSuccess
}

func (t *logTask) Abort() {}

func entityID(ref value.EntityRef) string {
	return strconv.FormatUint(uint64(ref), 10)
}

// setVariableTask writes its value parameter into the named blackboard
// variable. The write is type-checked by the store, so a mismatched value
// fails the task rather than corrupting the variable.
type setVariableTask struct{}

func (t *setVariableTask) Tick(ctx behavior.TickContext) behavior.Status {
	name, err := ctx.Params["name"].AsString()
	if err != nil {
		return behavior.StatusFailure
	}
	v, ok := ctx.Params["value"]
	if !ok {
		return behavior.StatusFailure
	}
	if err := ctx.Vars.Set(name, v); err != nil {
		return behavior.StatusFailure
	}
	return behavior.StatusSuccess
}

func (t *setVariableTask) Abort() {}

// moveTask steers its entity toward a target point at a given speed,
// succeeding inside the arrival radius. Abort zeroes the velocity so a
// cancelled runner doesn't leave its entity drifting.
type moveTask struct {
	world  behavior.World
	entity value.EntityRef
	moving bool
}

const defaultArriveRadius = 0.1

func (t *moveTask) Tick(ctx behavior.TickContext) behavior.Status {
	target, err := ctx.Params["target"].AsVector3()
	if err != nil {
		return behavior.StatusFailure
	}
	speed, err := ctx.Params["speed"].AsFloat()
	if err != nil {
		return behavior.StatusFailure
	}
	radius := float32(defaultArriveRadius)
	if raw, ok := ctx.Params["arriveRadius"]; ok {
		if r, err := raw.AsFloat(); err == nil {
			radius = r
		}
	}
	if ctx.World == nil {
		return behavior.StatusFailure
	}
	pos, ok := ctx.World.Position(ctx.Entity)
	if !ok {
		return behavior.StatusFailure
	}

	dx := target.X - pos.X
	dy := target.Y - pos.Y
	dz := target.Z - pos.Z
	dist := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
	if dist <= radius {
		ctx.World.SetVelocity(ctx.Entity, value.Vec3{})
		t.moving = false
		return behavior.StatusSuccess
	}

	t.world = ctx.World
	t.entity = ctx.Entity
	t.moving = true
	scale := speed / dist
	ctx.World.SetVelocity(ctx.Entity, value.Vec3{X: dx * scale, Y: dy * scale, Z: dz * scale})
	return behavior.StatusRunning
}

func (t *moveTask) Abort() {
	if !t.moving || t.world == nil {
		return
	}
	t.world.SetVelocity(t.entity, value.Vec3{})
	t.moving = false
}
