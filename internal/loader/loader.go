package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"duskhollow/server/internal/blackboard"
	"duskhollow/server/internal/graph"
	"duskhollow/server/internal/value"
)

// ErrInvalidTemplate reports that a document parsed but failed validation.
// The accompanying message list carries the individual findings; a failed
// template is discarded wholesale, never partially used.
var ErrInvalidTemplate = errors.New("invalid template")

const canonicalVersion = 2

// Load parses a JSON document into a validated template. The returned
// message list always carries every finding from parsing and validation so
// an author sees all problems in one pass. When the list contains errors
// the template is nil and err wraps ErrInvalidTemplate.
func Load(data []byte) (*graph.Template, []graph.ValidationMessage, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("loader: parse document: %w", err)
	}
	return LoadDocument(&doc)
}

// LoadDocument compiles an already-decoded document.
func LoadDocument(doc *Document) (*graph.Template, []graph.ValidationMessage, error) {
	if doc == nil {
		return nil, nil, fmt.Errorf("loader: nil document")
	}

	var msgs []graph.ValidationMessage

	vars := parseVariables(doc.Graph.LocalVariables, &msgs)

	var nodes []graph.Node
	if doc.Version >= canonicalVersion {
		nodes = parseCanonical(doc.Graph.Nodes, &msgs)
	} else {
		nodes = parseLegacy(doc.Graph.Nodes, &msgs)
	}

	tpl := &graph.Template{
		Name:        doc.Name,
		Description: doc.Description,
		Variables:   vars,
		Nodes:       nodes,
		Root:        optionalID(doc.Graph.RootNodeID),
	}
	tpl.BuildLookupCache()
	msgs = append(msgs, tpl.Validate()...)
	if graph.HasErrors(msgs) {
		return nil, msgs, fmt.Errorf("loader: template %q: %w", doc.Name, ErrInvalidTemplate)
	}
	// An undeclared root is pinned to the structural root here so runners
	// never start at the sentinel.
	tpl.Root = tpl.EffectiveRoot()
	return tpl, msgs, nil
}

func optionalID(id *int32) graph.NodeID {
	if id == nil {
		return graph.NodeNone
	}
	return graph.NodeID(*id)
}

func parseVariables(docs []VariableDocument, msgs *[]graph.ValidationMessage) []blackboard.Definition {
	defs := make([]blackboard.Definition, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, v := range docs {
		if _, dup := seen[v.Name]; dup {
			*msgs = append(*msgs, graph.ValidationMessage{
				Severity: graph.SeverityError,
				NodeID:   graph.NodeNone,
				Message:  fmt.Sprintf("duplicate variable %q", v.Name),
				Remedy:   "rename the variable so every name is unique",
			})
			continue
		}
		seen[v.Name] = struct{}{}
		kind, err := value.ParseKind(v.Type)
		if err != nil {
			*msgs = append(*msgs, graph.ValidationMessage{
				Severity: graph.SeverityError,
				NodeID:   graph.NodeNone,
				Message:  fmt.Sprintf("variable %q: %v", v.Name, err),
				Remedy:   "use one of bool, int, float, vector3, entity, string",
			})
			continue
		}
		def := blackboard.Definition{Name: v.Name, Kind: kind}
		if v.IsLocal != nil {
			def.Shared = !*v.IsLocal
		}
		if v.Default != nil {
			dv, err := literalForKind(v.Default, kind)
			if err != nil {
				*msgs = append(*msgs, graph.ValidationMessage{
					Severity: graph.SeverityError,
					NodeID:   graph.NodeNone,
					Message:  fmt.Sprintf("variable %q default: %v", v.Name, err),
					Remedy:   "author a default matching the declared type",
				})
				continue
			}
			def.Default = dv
		}
		defs = append(defs, def)
	}
	return defs
}

// scalarValue interprets an untyped JSON scalar. Whole numbers become ints,
// anything fractional becomes a float; object literals with x/y/z become
// vectors. Authors needing a float payload for a whole number force it with
// a typed literal binding instead.
func scalarValue(raw any) (value.Value, error) {
	switch v := raw.(type) {
	case bool:
		return value.Bool(v), nil
	case string:
		return value.String(v), nil
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return value.Int(int32(v)), nil
		}
		return value.Float(float32(v)), nil
	case map[string]any:
		if vec, ok := vectorValue(v); ok {
			return vec, nil
		}
		return value.None(), fmt.Errorf("object is not a vector literal")
	default:
		return value.None(), fmt.Errorf("unsupported scalar %T", raw)
	}
}

// literalForKind coerces a JSON scalar to a declared kind, so a whole
// number authored for a float variable still lands as a float.
func literalForKind(raw any, kind value.Kind) (value.Value, error) {
	switch kind {
	case value.KindFloat:
		if f, ok := raw.(float64); ok {
			return value.Float(float32(f)), nil
		}
	case value.KindInt:
		if f, ok := raw.(float64); ok {
			if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
				return value.None(), fmt.Errorf("%v is not a 32-bit integer", f)
			}
			return value.Int(int32(f)), nil
		}
	case value.KindEntityRef:
		if f, ok := raw.(float64); ok {
			if f != math.Trunc(f) || f < 0 {
				return value.None(), fmt.Errorf("%v is not an entity reference", f)
			}
			return value.Entity(value.EntityRef(f)), nil
		}
	}
	v, err := scalarValue(raw)
	if err != nil {
		return value.None(), err
	}
	if v.Kind() != kind {
		return value.None(), fmt.Errorf("value is %s, declared %s", v.Kind(), kind)
	}
	return v, nil
}

func vectorValue(obj map[string]any) (value.Value, bool) {
	var vec value.Vec3
	seen := 0
	for key, target := range map[string]*float32{"x": &vec.X, "y": &vec.Y, "z": &vec.Z} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		f, ok := raw.(float64)
		if !ok {
			return value.None(), false
		}
		*target = float32(f)
		seen++
	}
	if seen == 0 || seen != len(obj) {
		return value.None(), false
	}
	return value.Vector3(vec), true
}

func unknownNodeType(id int32, kind string, msgs *[]graph.ValidationMessage) {
	*msgs = append(*msgs, graph.ValidationMessage{
		Severity: graph.SeverityWarning,
		NodeID:   graph.NodeID(id),
		Message:  fmt.Sprintf("unknown node type %q degraded to placeholder task", kind),
		Remedy:   "update the document or register the missing node type",
	})
}
