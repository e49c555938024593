package value

import (
	"errors"
	"fmt"
)

// ErrTypeMismatch reports an accessor invoked against a value holding a
// different kind. It is always an authoring or programming error.
var ErrTypeMismatch = errors.New("type mismatch")

// Kind enumerates the closed set of payload types a Value may carry.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindVector3
	KindEntityRef
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindVector3:
		return "vector3"
	case KindEntityRef:
		return "entity"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// ParseKind maps the document-schema type vocabulary onto a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "bool":
		return KindBool, nil
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "vector3":
		return KindVector3, nil
	case "entity":
		return KindEntityRef, nil
	case "string":
		return KindString, nil
	default:
		return KindNone, fmt.Errorf("unknown value type %q", name)
	}
}

// EntityRef is the compact runtime handle for an entity. The zero ref never
// resolves to a live entity.
type EntityRef uint64

// Vec3 is the fixed-width vector payload carried by KindVector3 values.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Value is a closed tagged value. The payload slot matching the kind is the
// only one that may be read; every accessor checks the tag before touching
// its slot so a payload can never be read under the wrong interpretation.
type Value struct {
	kind Kind
	b    bool
	i    int32
	f    float32
	vec  Vec3
	ref  EntityRef
	str  string
}

// None returns the empty value.
func None() Value { return Value{} }

// Bool wraps a boolean payload.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int wraps a 32-bit integer payload.
func Int(v int32) Value { return Value{kind: KindInt, i: v} }

// Float wraps a 32-bit float payload.
func Float(v float32) Value { return Value{kind: KindFloat, f: v} }

// Vector3 wraps a three-component vector payload.
func Vector3(v Vec3) Value { return Value{kind: KindVector3, vec: v} }

// Entity wraps an entity reference payload.
func Entity(ref EntityRef) Value { return Value{kind: KindEntityRef, ref: ref} }

// String wraps a string payload.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Zero returns the default value for a kind, used when a variable definition
// declares no explicit default.
func Zero(k Kind) Value {
	switch k {
	case KindBool:
		return Bool(false)
	case KindInt:
		return Int(0)
	case KindFloat:
		return Float(0)
	case KindVector3:
		return Vector3(Vec3{})
	case KindEntityRef:
		return Entity(0)
	case KindString:
		return String("")
	default:
		return None()
	}
}

// Kind reports the tag of the stored payload.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether the value carries no payload.
func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, v.kind, want)
}

// AsBool returns the boolean payload or fails when the tag differs.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.b, nil
}

// AsInt returns the integer payload or fails when the tag differs. There is
// no coercion from KindFloat; parameter binding resolution stays unambiguous.
func (v Value) AsInt() (int32, error) {
	if v.kind != KindInt {
		return 0, v.mismatch(KindInt)
	}
	return v.i, nil
}

// AsFloat returns the float payload or fails when the tag differs.
func (v Value) AsFloat() (float32, error) {
	if v.kind != KindFloat {
		return 0, v.mismatch(KindFloat)
	}
	return v.f, nil
}

// AsVector3 returns the vector payload or fails when the tag differs.
func (v Value) AsVector3() (Vec3, error) {
	if v.kind != KindVector3 {
		return Vec3{}, v.mismatch(KindVector3)
	}
	return v.vec, nil
}

// AsEntityRef returns the entity handle payload or fails when the tag differs.
func (v Value) AsEntityRef() (EntityRef, error) {
	if v.kind != KindEntityRef {
		return 0, v.mismatch(KindEntityRef)
	}
	return v.ref, nil
}

// AsString returns the string payload or fails when the tag differs.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.str, nil
}

// Equal reports payload equality under matching tags.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindVector3:
		return v.vec == other.vec
	case KindEntityRef:
		return v.ref == other.ref
	case KindString:
		return v.str == other.str
	default:
		return false
	}
}

// Interface exposes the payload as a plain Go value for snapshots and logs.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindVector3:
		return v.vec
	case KindEntityRef:
		return uint64(v.ref)
	case KindString:
		return v.str
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.kind == KindNone {
		return "none"
	}
	return fmt.Sprintf("%s(%v)", v.kind, v.Interface())
}
