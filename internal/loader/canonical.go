package loader

import (
	"fmt"

	"duskhollow/server/internal/graph"
	"duskhollow/server/internal/value"
)

// parseCanonical handles the versioned schema: explicit roles including
// Root and Decorator, the behavior identifier in one field, and parameters
// that may be scalars or structured bindings referencing blackboard
// variables.
func parseCanonical(docs []NodeDocument, msgs *[]graph.ValidationMessage) []graph.Node {
	nodes := make([]graph.Node, 0, len(docs))
	for _, d := range docs {
		n := graph.Node{
			ID:            graph.NodeID(d.ID),
			Name:          d.Name,
			Behavior:      d.Behavior,
			Children:      childIDs(d),
			NextOnSuccess: optionalID(d.NextOnSuccess),
			NextOnFailure: optionalID(d.NextOnFailure),
		}

		switch d.Type {
		case "Root":
			n.Role = graph.RoleRoot
		case "Selector":
			n.Role = graph.RoleSelector
		case "Sequence":
			n.Role = graph.RoleSequence
		case "Parallel":
			n.Role = graph.RoleParallel
		case "Decorator":
			n.Role = graph.RoleDecorator
		case "AtomicTask":
			n.Role = graph.RoleAtomicTask
		default:
			n.Role = graph.RoleAtomicTask
			n.Behavior = "unknown"
			unknownNodeType(d.ID, d.Type, msgs)
		}

		for name, raw := range d.Parameters {
			binding, err := parseBinding(raw)
			if err != nil {
				*msgs = append(*msgs, graph.ValidationMessage{
					Severity: graph.SeverityError,
					NodeID:   n.ID,
					Message:  fmt.Sprintf("parameter %q: %v", name, err),
					Remedy:   "author a scalar, a vector object, or a {bindingType, ...} binding",
				})
				continue
			}
			if n.Params == nil {
				n.Params = make(map[string]graph.ParameterBinding, len(d.Parameters))
			}
			n.Params[name] = binding
		}

		nodes = append(nodes, n)
	}
	return nodes
}

// parseBinding interprets one canonical parameter value. Scalars and
// vector objects become literal bindings; objects carrying a bindingType
// select between typed literals and variable references.
func parseBinding(raw any) (graph.ParameterBinding, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		v, err := scalarValue(raw)
		if err != nil {
			return graph.ParameterBinding{}, err
		}
		return graph.LiteralBinding(v), nil
	}

	mode, hasMode := obj["bindingType"].(string)
	if !hasMode {
		v, err := scalarValue(obj)
		if err != nil {
			return graph.ParameterBinding{}, err
		}
		return graph.LiteralBinding(v), nil
	}

	switch mode {
	case "variable":
		name, _ := obj["variableName"].(string)
		if name == "" {
			return graph.ParameterBinding{}, fmt.Errorf("variable binding missing variableName")
		}
		return graph.VariableBinding(name), nil
	case "literal":
		payload, ok := obj["value"]
		if !ok {
			return graph.ParameterBinding{}, fmt.Errorf("literal binding missing value")
		}
		if typeName, ok := obj["type"].(string); ok {
			kind, err := value.ParseKind(typeName)
			if err != nil {
				return graph.ParameterBinding{}, err
			}
			v, err := literalForKind(payload, kind)
			if err != nil {
				return graph.ParameterBinding{}, err
			}
			return graph.LiteralBinding(v), nil
		}
		v, err := scalarValue(payload)
		if err != nil {
			return graph.ParameterBinding{}, err
		}
		return graph.LiteralBinding(v), nil
	default:
		return graph.ParameterBinding{}, fmt.Errorf("unknown bindingType %q", mode)
	}
}
