package loader

// Document is the authored JSON form shared by both schema versions. The
// integer version field selects the parsing path; documents written before
// the field existed default to the legacy schema.
type Document struct {
	Version     int          `json:"version,omitempty"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Graph       GraphSection `json:"graph"`
}

// GraphSection nests the structural payload of a document.
type GraphSection struct {
	RootNodeID     *int32             `json:"rootNodeId,omitempty"`
	Nodes          []NodeDocument     `json:"nodes"`
	LocalVariables []VariableDocument `json:"localVariables,omitempty"`
}

// NodeDocument is one authored node. The meaning of Type, and which of the
// identifier fields applies, depends on the schema version.
type NodeDocument struct {
	ID       int32   `json:"id"`
	Name     string  `json:"name,omitempty"`
	Type     string  `json:"type"`
	Children []int32 `json:"children,omitempty"`
	// DecoratorChildID is the legacy single-child encoding used by
	// Repeater and other wrapper kinds.
	DecoratorChildID *int32 `json:"decoratorChildId,omitempty"`
	// ActionType and ConditionType carry the behavior identifier in the
	// legacy schema; Behavior carries it in the canonical schema.
	ActionType    string         `json:"actionType,omitempty"`
	ConditionType string         `json:"conditionType,omitempty"`
	Behavior      string         `json:"behavior,omitempty"`
	RepeatCount   *int32         `json:"repeatCount,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	NextOnSuccess *int32         `json:"nextOnSuccess,omitempty"`
	NextOnFailure *int32         `json:"nextOnFailure,omitempty"`
}

// VariableDocument declares one blackboard variable.
type VariableDocument struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	IsLocal *bool  `json:"isLocal,omitempty"`
	Default any    `json:"default,omitempty"`
}
