package loader

import (
	"errors"
	"strings"
	"testing"

	"duskhollow/server/internal/graph"
	"duskhollow/server/internal/value"
)

const legacyDoc = `{
  "name": "guard-legacy",
  "graph": {
    "rootNodeId": 1,
    "nodes": [
      {"id": 1, "type": "Selector", "children": [2, 3, 4]},
      {"id": 2, "type": "Condition", "conditionType": "CanSeePlayer", "nextOnSuccess": 3, "nextOnFailure": -1},
      {"id": 3, "type": "Action", "actionType": "Task_Wait", "parameters": {"seconds": 1.5, "label": "hold", "loops": 2}, "nextOnSuccess": 2, "nextOnFailure": -1},
      {"id": 4, "type": "Repeater", "repeatCount": 3, "decoratorChildId": 2}
    ]
  }
}`

func TestLoadLegacyDocument(t *testing.T) {
	tpl, msgs, err := Load([]byte(legacyDoc))
	if err != nil {
		t.Fatalf("Load: %v (%v)", err, msgs)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected clean load, got %v", msgs)
	}
	if tpl.Root != 1 {
		t.Fatalf("root = %d, want 1", tpl.Root)
	}

	sel := tpl.GetNode(1)
	if sel == nil || sel.Role != graph.RoleSelector {
		t.Fatalf("node 1 = %+v, want selector", sel)
	}
	cond := tpl.GetNode(2)
	if cond.Role != graph.RoleAtomicTask || cond.Behavior != "CanSeePlayer" {
		t.Fatalf("condition normalized wrong: %+v", cond)
	}
	act := tpl.GetNode(3)
	if act.Role != graph.RoleAtomicTask || act.Behavior != "Task_Wait" {
		t.Fatalf("action normalized wrong: %+v", act)
	}
	if act.NextOnSuccess != 2 || !act.NextOnFailure.IsNone() {
		t.Fatalf("successors = %d/%d", act.NextOnSuccess, act.NextOnFailure)
	}

	// Legacy parameters are flat scalars, all literal bindings. Whole
	// numbers land as ints, fractional as floats.
	checks := map[string]value.Value{
		"seconds": value.Float(1.5),
		"label":   value.String("hold"),
		"loops":   value.Int(2),
	}
	for name, want := range checks {
		binding, ok := act.Params[name]
		if !ok {
			t.Fatalf("parameter %q missing", name)
		}
		if binding.Mode != graph.BindLiteral || !binding.Literal.Equal(want) {
			t.Fatalf("parameter %q = %+v, want literal %v", name, binding, want)
		}
	}

	// Repeater becomes a decorator with the repeat count folded into a
	// literal binding.
	rep := tpl.GetNode(4)
	if rep.Role != graph.RoleDecorator {
		t.Fatalf("repeater role = %v", rep.Role)
	}
	if len(rep.Children) != 1 || rep.Children[0] != 2 {
		t.Fatalf("repeater children = %v", rep.Children)
	}
	binding := rep.Params["repeatCount"]
	if binding.Mode != graph.BindLiteral || !binding.Literal.Equal(value.Int(3)) {
		t.Fatalf("repeatCount binding = %+v", binding)
	}
}

func TestLoadLegacyUnknownKindDegrades(t *testing.T) {
	doc := `{
	  "name": "stale",
	  "graph": {
	    "rootNodeId": 1,
	    "nodes": [{"id": 1, "type": "Blackboard"}]
	  }
	}`
	tpl, msgs, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("Load: %v (%v)", err, msgs)
	}
	n := tpl.GetNode(1)
	if n.Role != graph.RoleAtomicTask || n.Behavior != "unknown" {
		t.Fatalf("expected placeholder task, got %+v", n)
	}
	var warned bool
	for _, m := range msgs {
		if m.Severity == graph.SeverityWarning && strings.Contains(m.Message, "unknown node type") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected degradation warning, got %v", msgs)
	}
}

const canonicalDoc = `{
  "version": 2,
  "name": "patrol",
  "description": "walks the route",
  "graph": {
    "rootNodeId": 1,
    "localVariables": [
      {"name": "speed", "type": "float", "isLocal": true, "default": 60},
      {"name": "target", "type": "entity"}
    ],
    "nodes": [
      {"id": 1, "type": "Root", "children": [2]},
      {"id": 2, "type": "AtomicTask", "behavior": "moveToward", "parameters": {
        "speed": {"bindingType": "variable", "variableName": "speed"},
        "pause": {"bindingType": "literal", "type": "float", "value": 2},
        "retries": 3,
        "offset": {"x": 1, "y": 2, "z": 0}
      }, "nextOnSuccess": 2, "nextOnFailure": -1}
    ]
  }
}`

func TestLoadCanonicalDocument(t *testing.T) {
	tpl, msgs, err := Load([]byte(canonicalDoc))
	if err != nil {
		t.Fatalf("Load: %v (%v)", err, msgs)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected clean load, got %v", msgs)
	}

	if len(tpl.Variables) != 2 {
		t.Fatalf("variables = %+v", tpl.Variables)
	}
	speed := tpl.Variables[0]
	if speed.Kind != value.KindFloat || !speed.Default.Equal(value.Float(60)) {
		t.Fatalf("speed definition = %+v", speed)
	}
	if tpl.Variables[1].Kind != value.KindEntityRef {
		t.Fatalf("target definition = %+v", tpl.Variables[1])
	}

	root := tpl.GetNode(1)
	if root.Role != graph.RoleRoot {
		t.Fatalf("node 1 role = %v", root.Role)
	}
	task := tpl.GetNode(2)
	if task.Behavior != "moveToward" {
		t.Fatalf("behavior = %q", task.Behavior)
	}

	if b := task.Params["speed"]; b.Mode != graph.BindVariableRef || b.Variable != "speed" {
		t.Fatalf("speed binding = %+v", b)
	}
	// A whole number under a typed literal binding keeps the forced kind.
	if b := task.Params["pause"]; b.Mode != graph.BindLiteral || !b.Literal.Equal(value.Float(2)) {
		t.Fatalf("pause binding = %+v", b)
	}
	if b := task.Params["retries"]; !b.Literal.Equal(value.Int(3)) {
		t.Fatalf("retries binding = %+v", b)
	}
	want := value.Vector3(value.Vec3{X: 1, Y: 2, Z: 0})
	if b := task.Params["offset"]; !b.Literal.Equal(want) {
		t.Fatalf("offset binding = %+v", b)
	}
}

func TestLoadResolvesStructuralRoot(t *testing.T) {
	doc := `{
	  "version": 2,
	  "name": "headless",
	  "graph": {
	    "nodes": [
	      {"id": 7, "type": "AtomicTask", "behavior": "idle", "nextOnSuccess": 8, "nextOnFailure": -1},
	      {"id": 8, "type": "AtomicTask", "behavior": "idle", "nextOnSuccess": -1, "nextOnFailure": -1}
	    ]
	  }
	}`
	tpl, msgs, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("Load: %v (%v)", err, msgs)
	}
	// Without a declared root the single unreferenced node becomes the
	// entry point, so bound runners have somewhere to start.
	if tpl.Root != 7 {
		t.Fatalf("root = %d, want 7", tpl.Root)
	}
}

func TestLoadRejectsInvalidStructure(t *testing.T) {
	doc := `{
	  "version": 2,
	  "name": "looped",
	  "graph": {
	    "rootNodeId": 1,
	    "nodes": [
	      {"id": 1, "type": "Sequence", "children": [2]},
	      {"id": 2, "type": "Sequence", "children": [1]}
	    ]
	  }
	}`
	tpl, msgs, err := Load([]byte(doc))
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", err)
	}
	if tpl != nil {
		t.Fatalf("failed template must be discarded")
	}
	if !graph.HasErrors(msgs) {
		t.Fatalf("expected error findings, got %v", msgs)
	}
}

func TestLoadRejectsDuplicateVariables(t *testing.T) {
	doc := `{
	  "version": 2,
	  "name": "dupes",
	  "graph": {
	    "rootNodeId": 1,
	    "localVariables": [
	      {"name": "speed", "type": "float", "default": 40},
	      {"name": "speed", "type": "float", "default": 60}
	    ],
	    "nodes": [{"id": 1, "type": "AtomicTask", "behavior": "idle"}]
	  }
	}`
	tpl, msgs, err := Load([]byte(doc))
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", err)
	}
	if tpl != nil {
		t.Fatalf("template with a broken schema must be discarded")
	}
	var found bool
	for _, m := range msgs {
		if m.Severity == graph.SeverityError && strings.Contains(m.Message, `duplicate variable "speed"`) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected duplicate variable error, got %v", msgs)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	if _, _, err := Load([]byte(`{"name": `)); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadCollectsVariableErrors(t *testing.T) {
	doc := `{
	  "version": 2,
	  "name": "badvars",
	  "graph": {
	    "rootNodeId": 1,
	    "localVariables": [
	      {"name": "a", "type": "quaternion"},
	      {"name": "b", "type": "int", "default": 1.5}
	    ],
	    "nodes": [{"id": 1, "type": "AtomicTask", "behavior": "idle"}]
	  }
	}`
	_, msgs, err := Load([]byte(doc))
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", err)
	}
	var count int
	for _, m := range msgs {
		if m.Severity == graph.SeverityError {
			count++
		}
	}
	// Both variable problems are reported in one pass.
	if count != 2 {
		t.Fatalf("expected 2 errors, got %v", msgs)
	}
}
