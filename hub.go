package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"duskhollow/server/internal/assets"
	"duskhollow/server/internal/behavior"
	"duskhollow/server/internal/runner"
	"duskhollow/server/internal/value"
	"duskhollow/server/internal/world"
	"duskhollow/server/logging"
)

// HubConfig carries the tunable simulation parameters.
type HubConfig struct {
	TickRate         int
	SnapshotInterval int
}

// DefaultHubConfig returns the stock configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		TickRate:         tickRate,
		SnapshotInterval: snapshotIntervalTicks,
	}
}

// Hub owns the world, the template catalog, and every runner. One hub
// drives the whole simulation; runners tick in ascending entity order so a
// step is deterministic for a given world state.
type Hub struct {
	mu       sync.Mutex
	cfg      HubConfig
	world    *world.World
	library  *assets.Library
	registry *behavior.Registry
	engine   *runner.Engine
	runners  map[value.EntityRef]*runner.Runner
	tick     uint64
	pub      logging.Publisher
}

// NewHub wires a hub from its collaborators. The world and engine are
// owned by the hub; the library and registry are shared with the HTTP
// layer.
func NewHub(cfg HubConfig, library *assets.Library, registry *behavior.Registry, pub logging.Publisher) *Hub {
	if cfg.TickRate <= 0 {
		cfg.TickRate = tickRate
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = snapshotIntervalTicks
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	w := world.New()
	return &Hub{
		cfg:      cfg,
		world:    w,
		library:  library,
		registry: registry,
		engine:   runner.NewEngine(registry, w, pub),
		runners:  make(map[value.EntityRef]*runner.Runner),
		pub:      pub,
	}
}

// Config returns the hub's effective configuration.
func (h *Hub) Config() HubConfig { return h.cfg }

// World exposes the entity store.
func (h *Hub) World() *world.World { return h.world }

// Library exposes the template catalog.
func (h *Hub) Library() *assets.Library { return h.library }

// Tick reports the current tick counter.
func (h *Hub) Tick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tick
}

// SpawnAgent creates an entity and binds it to a template in one call.
func (h *Hub) SpawnAgent(templateID string, pos value.Vec3) (value.EntityRef, error) {
	ref := h.world.Spawn(pos)
	if err := h.Bind(ref, templateID); err != nil {
		h.world.Remove(ref)
		return 0, err
	}
	return ref, nil
}

// Bind attaches a runner for the named template to an entity, replacing
// any existing binding. The old runner's live task is aborted first.
func (h *Hub) Bind(ref value.EntityRef, templateID string) error {
	tpl, ok := h.library.Resolve(templateID)
	if !ok {
		return fmt.Errorf("hub: unknown template %q", templateID)
	}
	r, err := runner.New(tpl, ref)
	if err != nil {
		return fmt.Errorf("hub: bind %d to %q: %w", ref, templateID, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, exists := h.runners[ref]; exists {
		h.engine.Abort(old)
	}
	h.runners[ref] = r
	return nil
}

// Unbind detaches an entity's runner, aborting its live task before the
// runner is dropped so the task can release external resources.
func (h *Hub) Unbind(ref value.EntityRef) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.runners[ref]; ok {
		h.engine.Abort(r)
		delete(h.runners, ref)
	}
}

// RemoveAgent unbinds and despawns an entity.
func (h *Hub) RemoveAgent(ref value.EntityRef) {
	h.Unbind(ref)
	h.world.Remove(ref)
}

// CancelRunner parks an entity's runner at the sentinel; the next tick
// runs the abort path if a task is live.
func (h *Hub) CancelRunner(ref value.EntityRef) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.runners[ref]
	if !ok {
		return false
	}
	r.Cancel()
	return true
}

// RestartRunner moves an entity's runner back to its template root.
func (h *Hub) RestartRunner(ref value.EntityRef) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.runners[ref]
	if !ok {
		return false
	}
	r.Restart()
	return true
}

// ResetRunnerVars restores an entity's blackboard to its defaults.
func (h *Hub) ResetRunnerVars(ref value.EntityRef) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.runners[ref]
	if !ok {
		return false
	}
	r.ResetVars()
	return true
}

// Step advances the simulation by one tick: every runner in ascending
// entity order, then the physics integration.
func (h *Hub) Step(dt time.Duration, now time.Time) {
	h.mu.Lock()
	h.tick++
	tick := h.tick

	refs := make([]value.EntityRef, 0, len(h.runners))
	for ref := range h.runners {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })

	for _, ref := range refs {
		r := h.runners[ref]
		if err := h.engine.Tick(r, dt, tick, now); err != nil {
			h.pub.Publish(context.Background(), logging.Event{
				Type:     "hub.tick_error",
				Tick:     tick,
				Time:     now,
				Severity: logging.SeverityError,
				Category: logging.CategoryRuntime,
				Subject:  logging.EntityRef{ID: fmt.Sprintf("%d", uint64(ref)), Kind: logging.EntityKindEntity},
				Payload:  map[string]any{"error": err.Error()},
			})
		}
	}
	h.mu.Unlock()

	h.world.Integrate(float32(dt.Seconds()))
}

// RunSimulation drives Step at the configured tick rate until the context
// is cancelled.
func (h *Hub) RunSimulation(ctx context.Context) {
	interval := TickInterval(h.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Step(interval, now)
		}
	}
}

// RunnerSnapshot is the inspector's view of one runner.
type RunnerSnapshot struct {
	Entity     uint64         `json:"entity"`
	Template   string         `json:"template"`
	Node       int32          `json:"node"`
	LastStatus string         `json:"lastStatus"`
	StateTimer float64        `json:"stateTimer"`
	ActiveTask bool           `json:"activeTask"`
	Variables  map[string]any `json:"variables,omitempty"`
	Position   value.Vec3     `json:"position"`
}

// SnapshotRunners captures every runner for the inspector stream, in
// ascending entity order.
func (h *Hub) SnapshotRunners() []RunnerSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	refs := make([]value.EntityRef, 0, len(h.runners))
	for ref := range h.runners {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })

	out := make([]RunnerSnapshot, 0, len(refs))
	for _, ref := range refs {
		r := h.runners[ref]
		snap := RunnerSnapshot{
			Entity:     uint64(ref),
			Template:   r.Template().Name,
			Node:       int32(r.CurrentNode()),
			LastStatus: r.LastStatus().String(),
			StateTimer: r.StateTimer().Seconds(),
			ActiveTask: r.HasActiveTask(),
			Variables:  r.Vars().Snapshot(),
		}
		if pos, ok := h.world.Position(ref); ok {
			snap.Position = pos
		}
		out = append(out, snap)
	}
	return out
}
