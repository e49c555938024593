package tasks

import (
	"fmt"
	"strings"

	"duskhollow/server/internal/graph"
	"duskhollow/server/internal/value"
)

// builtinParams records the parameter kinds each builtin reads at tick
// time. setVariable's "value" is excluded: its kind depends on the target
// variable, not the behavior.
var builtinParams = map[string]map[string]value.Kind{
	"wait":        {"seconds": value.KindFloat},
	"log":         {"message": value.KindString},
	"setVariable": {"name": value.KindString},
	"moveToward": {
		"target":       value.KindVector3,
		"speed":        value.KindFloat,
		"arriveRadius": value.KindFloat,
	},
}

// LintBindings flags literal bindings whose kind cannot satisfy a known
// builtin's parameter, so authors catch a wrong payload offline instead of
// watching the task fail every tick. Unknown behaviors and variable refs
// are left alone; only provable mismatches warn. A whole number authored
// for a float parameter is the classic case: it parses as an int literal
// unless the document forces the kind with a typed binding.
func LintBindings(tpl *graph.Template) []graph.ValidationMessage {
	if tpl == nil {
		return nil
	}
	var msgs []graph.ValidationMessage
	for i := range tpl.Nodes {
		n := &tpl.Nodes[i]
		if n.Role != graph.RoleAtomicTask {
			continue
		}
		expected, known := builtinParams[strings.TrimPrefix(n.Behavior, "Task_")]
		if !known {
			continue
		}
		for name, binding := range n.Params {
			want, tracked := expected[name]
			if !tracked || binding.Mode != graph.BindLiteral {
				continue
			}
			if got := binding.Literal.Kind(); got != want {
				msgs = append(msgs, graph.ValidationMessage{
					Severity: graph.SeverityWarning,
					NodeID:   n.ID,
					Message:  fmt.Sprintf("behavior %q parameter %q is %s, expects %s", n.Behavior, name, got, want),
					Remedy:   fmt.Sprintf("author the value as %s (a typed literal binding forces the kind)", want),
				})
			}
		}
	}
	return msgs
}
