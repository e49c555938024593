package blackboard

import (
	"errors"
	"testing"

	"duskhollow/server/internal/value"
)

func testSchema() []Definition {
	return []Definition{
		{Name: "alerted", Kind: value.KindBool, Default: value.Bool(false)},
		{Name: "patience", Kind: value.KindInt, Default: value.Int(3)},
		{Name: "speed", Kind: value.KindFloat, Default: value.Float(60)},
		{Name: "home", Kind: value.KindVector3, Default: value.Vector3(value.Vec3{X: 10, Y: 20})},
		{Name: "target", Kind: value.KindEntityRef},
		{Name: "greeting", Kind: value.KindString, Default: value.String("halt")},
	}
}

func TestInitializeSeedsDefaults(t *testing.T) {
	store, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store.Len() != 6 {
		t.Fatalf("expected 6 variables, got %d", store.Len())
	}
	got, err := store.Get("patience")
	if err != nil {
		t.Fatalf("Get(patience): %v", err)
	}
	if !got.Equal(value.Int(3)) {
		t.Fatalf("expected default 3, got %v", got)
	}
	// Definitions without an explicit default pick up the kind's zero value.
	got, err = store.Get("target")
	if err != nil {
		t.Fatalf("Get(target): %v", err)
	}
	if !got.Equal(value.Entity(0)) {
		t.Fatalf("expected zero entity ref, got %v", got)
	}
}

func TestInitializeRejectsDuplicatesAndBadDefaults(t *testing.T) {
	_, err := NewStore([]Definition{
		{Name: "x", Kind: value.KindInt},
		{Name: "x", Kind: value.KindInt},
	})
	if err == nil {
		t.Fatalf("expected duplicate name to fail")
	}
	_, err = NewStore([]Definition{
		{Name: "y", Kind: value.KindInt, Default: value.Float(1)},
	})
	if !errors.Is(err, value.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch for default, got %v", err)
	}
}

func TestSetEnforcesDeclaredKind(t *testing.T) {
	store, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Set("speed", value.Float(90)); err != nil {
		t.Fatalf("Set(speed): %v", err)
	}
	err = store.Set("speed", value.Int(90))
	if !errors.Is(err, value.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	got, _ := store.Get("speed")
	if !got.Equal(value.Float(90)) {
		t.Fatalf("failed Set must not alter the stored value, got %v", got)
	}
}

func TestUnknownVariable(t *testing.T) {
	store, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, err := store.Get("missing"); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("expected ErrUnknownVariable, got %v", err)
	}
	if err := store.Set("missing", value.Int(1)); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("expected ErrUnknownVariable, got %v", err)
	}
}

func TestResetRestoresEveryDefault(t *testing.T) {
	store, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	overrides := map[string]value.Value{
		"alerted":  value.Bool(true),
		"patience": value.Int(-1),
		"speed":    value.Float(120),
		"home":     value.Vector3(value.Vec3{X: 1, Y: 2, Z: 3}),
		"target":   value.Entity(99),
		"greeting": value.String("run"),
	}
	for name, v := range overrides {
		if err := store.Set(name, v); err != nil {
			t.Fatalf("Set(%s): %v", name, err)
		}
	}
	store.Reset()
	defaults := map[string]value.Value{
		"alerted":  value.Bool(false),
		"patience": value.Int(3),
		"speed":    value.Float(60),
		"home":     value.Vector3(value.Vec3{X: 10, Y: 20}),
		"target":   value.Entity(0),
		"greeting": value.String("halt"),
	}
	for name, want := range defaults {
		got, err := store.Get(name)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if !got.Equal(want) {
			t.Fatalf("after reset %s = %v, want %v", name, got, want)
		}
	}
}

func TestNamesKeepRegistrationOrder(t *testing.T) {
	store, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	names := store.Names()
	want := []string{"alerted", "patience", "speed", "home", "target", "greeting"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("name %d = %s, want %s", i, names[i], want[i])
		}
	}
}
