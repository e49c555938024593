package blackboard

import (
	"errors"
	"fmt"

	"duskhollow/server/internal/value"
)

// ErrUnknownVariable reports access to a name absent from the current schema.
var ErrUnknownVariable = errors.New("unknown variable")

// Definition describes one variable in a template's schema: its name, kind,
// default payload, and whether a future shared scope applies. Shared is
// carried through loading but every store today is per-runner local state.
type Definition struct {
	Name    string
	Kind    value.Kind
	Default value.Value
	Shared  bool
}

type entry struct {
	kind value.Kind
	def  value.Value
	cur  value.Value
}

// Store is the per-runner blackboard: a named, typed key/value table seeded
// from a template schema. It is owned exclusively by one runner and is never
// shared between runners.
type Store struct {
	entries map[string]*entry
	order   []string
}

// NewStore builds a store and seeds it from the schema.
func NewStore(defs []Definition) (*Store, error) {
	s := &Store{}
	if err := s.Initialize(defs); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize discards all state and registers one entry per definition with
// its default value and declared kind.
func (s *Store) Initialize(defs []Definition) error {
	entries := make(map[string]*entry, len(defs))
	order := make([]string, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return fmt.Errorf("blackboard: definition with empty name")
		}
		if _, exists := entries[def.Name]; exists {
			return fmt.Errorf("blackboard: duplicate variable %q", def.Name)
		}
		fallback := def.Default
		if fallback.IsNone() {
			fallback = value.Zero(def.Kind)
		}
		if fallback.Kind() != def.Kind {
			return fmt.Errorf("blackboard: variable %q default is %s, declared %s: %w", def.Name, fallback.Kind(), def.Kind, value.ErrTypeMismatch)
		}
		entries[def.Name] = &entry{kind: def.Kind, def: fallback, cur: fallback}
		order = append(order, def.Name)
	}
	s.entries = entries
	s.order = order
	return nil
}

// Reset restores every entry to its recorded default without altering the
// registered set.
func (s *Store) Reset() {
	if s == nil {
		return
	}
	for _, e := range s.entries {
		e.cur = e.def
	}
}

// Get returns the current value of a registered variable.
func (s *Store) Get(name string) (value.Value, error) {
	if s == nil {
		return value.None(), fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	e, ok := s.entries[name]
	if !ok {
		return value.None(), fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return e.cur, nil
}

// Set replaces the value of a registered variable. The incoming tag must
// equal the declared kind exactly; there is no conversion.
func (s *Store) Set(name string, v value.Value) error {
	if s == nil {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	if v.Kind() != e.kind {
		return fmt.Errorf("variable %q holds %s, got %s: %w", name, e.kind, v.Kind(), value.ErrTypeMismatch)
	}
	e.cur = v
	return nil
}

// KindOf reports the declared kind of a registered variable.
func (s *Store) KindOf(name string) (value.Kind, bool) {
	if s == nil {
		return value.KindNone, false
	}
	e, ok := s.entries[name]
	if !ok {
		return value.KindNone, false
	}
	return e.kind, true
}

// Names returns the registered variable names in registration order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Len reports the number of registered variables.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Snapshot exposes the current values for inspector payloads.
func (s *Store) Snapshot() map[string]any {
	if s == nil || len(s.order) == 0 {
		return nil
	}
	out := make(map[string]any, len(s.order))
	for _, name := range s.order {
		out[name] = s.entries[name].cur.Interface()
	}
	return out
}
