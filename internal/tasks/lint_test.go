package tasks

import (
	"strings"
	"testing"

	"duskhollow/server/internal/graph"
	"duskhollow/server/internal/value"
)

func lintTemplate(nodes ...graph.Node) []graph.ValidationMessage {
	tpl := &graph.Template{Name: "lint", Nodes: nodes, Root: nodes[0].ID}
	tpl.BuildLookupCache()
	return LintBindings(tpl)
}

func TestLintFlagsWholeNumberSeconds(t *testing.T) {
	// A legacy document authoring "seconds": 2 parses as an int literal,
	// which the wait task rejects every tick. The lint surfaces it offline.
	msgs := lintTemplate(graph.Node{
		ID: 1, Role: graph.RoleAtomicTask, Behavior: "Task_wait",
		Params: map[string]graph.ParameterBinding{
			"seconds": graph.LiteralBinding(value.Int(2)),
		},
		NextOnSuccess: graph.NodeNone, NextOnFailure: graph.NodeNone,
	})
	if len(msgs) != 1 {
		t.Fatalf("msgs = %v", msgs)
	}
	m := msgs[0]
	if m.Severity != graph.SeverityWarning || m.NodeID != 1 {
		t.Fatalf("msg = %+v", m)
	}
	if !strings.Contains(m.Message, `"seconds"`) || !strings.Contains(m.Message, "expects float") {
		t.Fatalf("message = %q", m.Message)
	}
}

func TestLintAcceptsMatchingKinds(t *testing.T) {
	msgs := lintTemplate(graph.Node{
		ID: 1, Role: graph.RoleAtomicTask, Behavior: "moveToward",
		Params: map[string]graph.ParameterBinding{
			"target": graph.LiteralBinding(value.Vector3(value.Vec3{X: 1})),
			"speed":  graph.LiteralBinding(value.Float(40)),
		},
		NextOnSuccess: graph.NodeNone, NextOnFailure: graph.NodeNone,
	})
	if len(msgs) != 0 {
		t.Fatalf("expected clean lint, got %v", msgs)
	}
}

func TestLintSkipsVariableRefsAndUnknownBehaviors(t *testing.T) {
	// Variable refs resolve at tick time against the blackboard; the lint
	// cannot prove them wrong. Unknown behaviors carry no signature.
	msgs := lintTemplate(graph.Node{
		ID: 1, Role: graph.RoleAtomicTask, Behavior: "wait",
		Params: map[string]graph.ParameterBinding{
			"seconds": graph.VariableBinding("pauseSeconds"),
		},
		NextOnSuccess: 2, NextOnFailure: graph.NodeNone,
	}, graph.Node{
		ID: 2, Role: graph.RoleAtomicTask, Behavior: "customBehavior",
		Params: map[string]graph.ParameterBinding{
			"seconds": graph.LiteralBinding(value.Int(2)),
		},
		NextOnSuccess: graph.NodeNone, NextOnFailure: graph.NodeNone,
	})
	if len(msgs) != 0 {
		t.Fatalf("expected clean lint, got %v", msgs)
	}
}
