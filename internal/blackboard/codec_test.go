package blackboard

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"duskhollow/server/internal/value"
	"duskhollow/server/logging"
)

type captureSink struct {
	mu     sync.Mutex
	events []logging.Event
}

func (c *captureSink) Publish(_ context.Context, event logging.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureSink) byType(t logging.EventType) []logging.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []logging.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestSerializeRoundTrip(t *testing.T) {
	store, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Set("alerted", value.Bool(true)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("patience", value.Int(-7)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("home", value.Vector3(value.Vec3{X: 1.5, Y: -2.5, Z: 3})); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("target", value.Entity(0xDEADBEEF)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("greeting", value.String("who goes there")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data := store.Serialize()

	restored, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := restored.Deserialize(data, logging.NopPublisher()); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	for _, name := range store.Names() {
		want, _ := store.Get(name)
		got, err := restored.Get(name)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if !got.Equal(want) {
			t.Fatalf("round trip %s = %v, want %v", name, got, want)
		}
	}
}

func TestDeserializeSkipsUnknownNameAndContinues(t *testing.T) {
	donor, err := NewStore([]Definition{
		{Name: "ghost", Kind: value.KindInt, Default: value.Int(11)},
		{Name: "patience", Kind: value.KindInt, Default: value.Int(42)},
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	data := donor.Serialize()

	store, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	capture := &captureSink{}
	if err := store.Deserialize(data, capture); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	// The unknown entry is skipped with a warning; the following entry is
	// still applied.
	skips := capture.byType(EventSkippedUnknown)
	if len(skips) != 1 {
		t.Fatalf("expected one skip warning, got %d", len(skips))
	}
	if skips[0].Severity != logging.SeverityWarn {
		t.Fatalf("expected warn severity, got %v", skips[0].Severity)
	}
	got, err := store.Get("patience")
	if err != nil {
		t.Fatalf("Get(patience): %v", err)
	}
	if !got.Equal(value.Int(42)) {
		t.Fatalf("expected later entry applied, got %v", got)
	}
}

func TestDeserializeSkipsKindMismatch(t *testing.T) {
	donor, err := NewStore([]Definition{
		{Name: "patience", Kind: value.KindFloat, Default: value.Float(1.5)},
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	data := donor.Serialize()

	store, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	capture := &captureSink{}
	if err := store.Deserialize(data, capture); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if len(capture.byType(EventSkippedMismatch)) != 1 {
		t.Fatalf("expected one mismatch warning")
	}
	got, _ := store.Get("patience")
	if !got.Equal(value.Int(3)) {
		t.Fatalf("mismatched entry must not alter the variable, got %v", got)
	}
}

func TestDeserializeTruncationKeepsAppliedEntries(t *testing.T) {
	donor, err := NewStore([]Definition{
		{Name: "patience", Kind: value.KindInt, Default: value.Int(9)},
		{Name: "greeting", Kind: value.KindString, Default: value.String("stand down")},
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	data := donor.Serialize()
	// Cut the stream in the middle of the second entry's payload.
	data = data[:len(data)-4]

	store, err := NewStore(testSchema())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Deserialize(data, logging.NopPublisher()); err == nil {
		t.Fatalf("expected truncation error")
	}
	got, _ := store.Get("patience")
	if !got.Equal(value.Int(9)) {
		t.Fatalf("entries applied before truncation must survive, got %v", got)
	}
	got, _ = store.Get("greeting")
	if !got.Equal(value.String("halt")) {
		t.Fatalf("truncated entry must not be applied, got %v", got)
	}
}

func TestSerializeEmptyStore(t *testing.T) {
	store, err := NewStore(nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	data := store.Serialize()
	if len(data) != 4 || binary.LittleEndian.Uint32(data) != 0 {
		t.Fatalf("expected bare zero count header, got %v", data)
	}
	if err := store.Deserialize(data, logging.NopPublisher()); err != nil {
		t.Fatalf("Deserialize empty: %v", err)
	}
}
