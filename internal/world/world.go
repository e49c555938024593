package world

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"duskhollow/server/internal/value"
)

// Entity is one simulated body: a stable external id plus kinematic state.
// Tasks steer entities by velocity; Integrate applies it once per tick.
type Entity struct {
	ID       string
	Ref      value.EntityRef
	Position value.Vec3
	Velocity value.Vec3
}

// World is the entity store behind the accessor interface tasks consume.
// Refs are compact handles minted in spawn order; the zero ref is never
// issued.
type World struct {
	mu       sync.RWMutex
	entities map[value.EntityRef]*Entity
	nextRef  value.EntityRef
}

func New() *World {
	return &World{
		entities: make(map[value.EntityRef]*Entity),
		nextRef:  1,
	}
}

// Spawn creates an entity at a position and returns its handle.
func (w *World) Spawn(pos value.Vec3) value.EntityRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	ref := w.nextRef
	w.nextRef++
	w.entities[ref] = &Entity{
		ID:       uuid.NewString(),
		Ref:      ref,
		Position: pos,
	}
	return ref
}

// Remove drops an entity. Stale refs simply stop resolving.
func (w *World) Remove(ref value.EntityRef) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entities, ref)
}

// Get returns a copy of the entity's state.
func (w *World) Get(ref value.EntityRef) (Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[ref]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// Position implements the task accessor.
func (w *World) Position(ref value.EntityRef) (value.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[ref]
	if !ok {
		return value.Vec3{}, false
	}
	return e.Position, true
}

// Velocity implements the task accessor.
func (w *World) Velocity(ref value.EntityRef) (value.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[ref]
	if !ok {
		return value.Vec3{}, false
	}
	return e.Velocity, true
}

// SetVelocity implements the task accessor.
func (w *World) SetVelocity(ref value.EntityRef, vel value.Vec3) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[ref]
	if !ok {
		return false
	}
	e.Velocity = vel
	return true
}

// Refs returns every live handle in ascending order so callers iterate
// deterministically.
func (w *World) Refs() []value.EntityRef {
	w.mu.RLock()
	defer w.mu.RUnlock()
	refs := make([]value.EntityRef, 0, len(w.entities))
	for ref := range w.entities {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

// Len reports the live entity count.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entities)
}

// Integrate advances every entity by its velocity over dt seconds.
func (w *World) Integrate(dt float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.entities {
		e.Position.X += e.Velocity.X * dt
		e.Position.Y += e.Velocity.Y * dt
		e.Position.Z += e.Velocity.Z * dt
	}
}
