package blackboard

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"duskhollow/server/internal/value"
	"duskhollow/server/logging"
)

// Wire format: [count:u32] then per entry [nameLen:u32][name][kind:u8][payload].
// Payload widths are fixed per kind; strings carry their own length prefix.
// All integers are little-endian.

const (
	EventSkippedUnknown  logging.EventType = "blackboard.skip_unknown"
	EventSkippedMismatch logging.EventType = "blackboard.skip_mismatch"
)

// Serialize encodes every registered entry in registration order.
func (s *Store) Serialize() []byte {
	if s == nil {
		return binary.LittleEndian.AppendUint32(nil, 0)
	}
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(s.order)))
	for _, name := range s.order {
		e := s.entries[name]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(name)))
		buf = append(buf, name...)
		buf = append(buf, byte(e.kind))
		buf = appendPayload(buf, e.cur)
	}
	return buf
}

func appendPayload(buf []byte, v value.Value) []byte {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			return append(buf, 1)
		}
		return append(buf, 0)
	case value.KindInt:
		i, _ := v.AsInt()
		return binary.LittleEndian.AppendUint32(buf, uint32(i))
	case value.KindFloat:
		f, _ := v.AsFloat()
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	case value.KindVector3:
		vec, _ := v.AsVector3()
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(vec.X))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(vec.Y))
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(vec.Z))
	case value.KindEntityRef:
		ref, _ := v.AsEntityRef()
		return binary.LittleEndian.AppendUint64(buf, uint64(ref))
	case value.KindString:
		str, _ := v.AsString()
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(str)))
		return append(buf, str...)
	default:
		return buf
	}
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) u8() (byte, bool) {
	if r.remaining() < 1 {
		return 0, false
	}
	b := r.data[r.off]
	r.off++
	return b, true
}

func (r *reader) u32() (uint32, bool) {
	if r.remaining() < 4 {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, true
}

func (r *reader) u64() (uint64, bool) {
	if r.remaining() < 8 {
		return 0, false
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, true
}

func (r *reader) bytes(n int) ([]byte, bool) {
	if n < 0 || r.remaining() < n {
		return nil, false
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, true
}

// Deserialize applies a serialized record stream to the store. The decode is
// schema-tolerant: entries whose name is not registered, or whose kind no
// longer matches the current schema, are skipped with a warning so that
// saved state from older engine versions degrades gracefully. Truncation
// aborts the remaining parse but entries already applied stay applied.
func (s *Store) Deserialize(data []byte, pub logging.Publisher) error {
	if s == nil {
		return fmt.Errorf("blackboard: nil store")
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	r := &reader{data: data}
	count, ok := r.u32()
	if !ok {
		return fmt.Errorf("blackboard: truncated header")
	}
	applied := 0
	for i := uint32(0); i < count; i++ {
		nameLen, ok := r.u32()
		if !ok {
			return truncated(i, applied)
		}
		nameBytes, ok := r.bytes(int(nameLen))
		if !ok {
			return truncated(i, applied)
		}
		name := string(nameBytes)
		kindByte, ok := r.u8()
		if !ok {
			return truncated(i, applied)
		}
		kind := value.Kind(kindByte)
		v, ok := readPayload(r, kind)
		if !ok {
			return truncated(i, applied)
		}

		e, registered := s.entries[name]
		if !registered {
			pub.Publish(context.Background(), logging.Event{
				Type:     EventSkippedUnknown,
				Severity: logging.SeverityWarn,
				Category: logging.CategoryRuntime,
				Payload:  map[string]any{"variable": name, "kind": kind.String()},
			})
			continue
		}
		if e.kind != kind {
			pub.Publish(context.Background(), logging.Event{
				Type:     EventSkippedMismatch,
				Severity: logging.SeverityWarn,
				Category: logging.CategoryRuntime,
				Payload:  map[string]any{"variable": name, "stored": kind.String(), "declared": e.kind.String()},
			})
			continue
		}
		e.cur = v
		applied++
	}
	return nil
}

func truncated(index uint32, applied int) error {
	return fmt.Errorf("blackboard: truncated at entry %d (%d applied)", index, applied)
}

func readPayload(r *reader, kind value.Kind) (value.Value, bool) {
	switch kind {
	case value.KindBool:
		b, ok := r.u8()
		if !ok {
			return value.None(), false
		}
		return value.Bool(b != 0), true
	case value.KindInt:
		raw, ok := r.u32()
		if !ok {
			return value.None(), false
		}
		return value.Int(int32(raw)), true
	case value.KindFloat:
		raw, ok := r.u32()
		if !ok {
			return value.None(), false
		}
		return value.Float(math.Float32frombits(raw)), true
	case value.KindVector3:
		var vec value.Vec3
		for _, target := range []*float32{&vec.X, &vec.Y, &vec.Z} {
			raw, ok := r.u32()
			if !ok {
				return value.None(), false
			}
			*target = math.Float32frombits(raw)
		}
		return value.Vector3(vec), true
	case value.KindEntityRef:
		raw, ok := r.u64()
		if !ok {
			return value.None(), false
		}
		return value.Entity(value.EntityRef(raw)), true
	case value.KindString:
		strLen, ok := r.u32()
		if !ok {
			return value.None(), false
		}
		strBytes, ok := r.bytes(int(strLen))
		if !ok {
			return value.None(), false
		}
		return value.String(string(strBytes)), true
	default:
		return value.None(), false
	}
}
