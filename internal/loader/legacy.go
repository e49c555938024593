package loader

import (
	"fmt"

	"duskhollow/server/internal/graph"
	"duskhollow/server/internal/value"
)

// parseLegacy handles the flat node vocabulary shipped before versioned
// documents: Selector/Sequence/Parallel/Repeater/Action/Condition, with
// plain scalar parameters and the behavior identifier split across
// actionType/conditionType. Unrecognized kinds degrade to a placeholder
// task with a warning so stale authored content keeps loading.
func parseLegacy(docs []NodeDocument, msgs *[]graph.ValidationMessage) []graph.Node {
	nodes := make([]graph.Node, 0, len(docs))
	for _, d := range docs {
		n := graph.Node{
			ID:            graph.NodeID(d.ID),
			Name:          d.Name,
			Children:      childIDs(d),
			NextOnSuccess: optionalID(d.NextOnSuccess),
			NextOnFailure: optionalID(d.NextOnFailure),
		}

		switch d.Type {
		case "Selector":
			n.Role = graph.RoleSelector
		case "Sequence":
			n.Role = graph.RoleSequence
		case "Parallel":
			n.Role = graph.RoleParallel
		case "Repeater":
			n.Role = graph.RoleDecorator
			repeat := int32(1)
			if d.RepeatCount != nil {
				repeat = *d.RepeatCount
			}
			n.Params = map[string]graph.ParameterBinding{
				"repeatCount": graph.LiteralBinding(value.Int(repeat)),
			}
		case "Action":
			n.Role = graph.RoleAtomicTask
			n.Behavior = d.ActionType
		case "Condition":
			n.Role = graph.RoleAtomicTask
			n.Behavior = d.ConditionType
		default:
			n.Role = graph.RoleAtomicTask
			n.Behavior = "unknown"
			unknownNodeType(d.ID, d.Type, msgs)
		}

		for name, raw := range d.Parameters {
			v, err := scalarValue(raw)
			if err != nil {
				*msgs = append(*msgs, graph.ValidationMessage{
					Severity: graph.SeverityError,
					NodeID:   n.ID,
					Message:  fmt.Sprintf("parameter %q: %v", name, err),
					Remedy:   "legacy parameters must be plain scalars",
				})
				continue
			}
			if n.Params == nil {
				n.Params = make(map[string]graph.ParameterBinding, len(d.Parameters))
			}
			n.Params[name] = graph.LiteralBinding(v)
		}

		nodes = append(nodes, n)
	}
	return nodes
}

func childIDs(d NodeDocument) []graph.NodeID {
	if len(d.Children) == 0 && d.DecoratorChildID == nil {
		return nil
	}
	out := make([]graph.NodeID, 0, len(d.Children)+1)
	for _, id := range d.Children {
		out = append(out, graph.NodeID(id))
	}
	if d.DecoratorChildID != nil {
		out = append(out, graph.NodeID(*d.DecoratorChildID))
	}
	return out
}
