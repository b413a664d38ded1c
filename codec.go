package tslog

import (
	"encoding/binary"
	"math"
)

// Record assembly. Records are built in the Log's scratch buffer and handed
// to the sink as a single Write, so a rejected call never emits bytes and a
// record is never split across writes by the encoder itself.
//
// Multi-byte values use the host byte order. Files are not portable across
// machines of different endianness; in practice telemetry is written and
// decoded on the same class of machine.

func appendString(dst []byte, s string) []byte {
	dst = append(dst, s...)
	return append(dst, 0)
}

func appendRecordHeader(dst []byte, marker byte, id StreamID) []byte {
	dst = append(dst, marker)
	return binary.NativeEndian.AppendUint32(dst, uint32(id))
}

// appendMetadata encodes the self-description record for s.
// Layout: marker, id, name, kind, then the kind-specific shape:
// scalar writes a field count and one tag per field; vector writes the
// element tag and the element count; matrix writes the element tag and the
// row and column counts.
func appendMetadata(dst []byte, s *Schema) []byte {
	dst = appendRecordHeader(dst, MarkerMetadata, s.ID)
	dst = appendString(dst, s.Name)
	dst = append(dst, byte(s.Kind))

	switch s.Kind {
	case KindScalar:
		dst = binary.NativeEndian.AppendUint32(dst, uint32(len(s.Fields))) //nolint:gosec // validated at declaration
		for _, t := range s.Fields {
			dst = append(dst, byte(t))
		}
	case KindVector:
		dst = append(dst, byte(s.Elem()))
		dst = binary.NativeEndian.AppendUint32(dst, uint32(s.Elems)) //nolint:gosec // validated at declaration
	case KindMatrix:
		dst = append(dst, byte(s.Elem()))
		dst = binary.NativeEndian.AppendUint32(dst, uint32(s.Rows)) //nolint:gosec // validated at declaration
		dst = binary.NativeEndian.AppendUint32(dst, uint32(s.Cols)) //nolint:gosec // validated at declaration
	}

	return dst
}

// appendLabels encodes a labels record: marker, id, one terminated string per
// field in declaration order.
func appendLabels(dst []byte, id StreamID, labels []string) []byte {
	dst = appendRecordHeader(dst, MarkerLabels, id)
	for _, l := range labels {
		dst = appendString(dst, l)
	}
	return dst
}

// appendDataHeader encodes the fixed prefix of a data record: marker, id,
// timestamp. The payload follows.
func appendDataHeader(dst []byte, id StreamID, timestamp uint64) []byte {
	dst = appendRecordHeader(dst, MarkerData, id)
	return binary.NativeEndian.AppendUint64(dst, timestamp)
}

// appendScalar encodes one already-validated scalar value at its natural
// width. Bool is one byte, 0 or 1.
func appendScalar(dst []byte, v any) []byte {
	switch x := v.(type) {
	case uint8:
		return append(dst, x)
	case int8:
		return append(dst, byte(x))
	case uint16:
		return binary.NativeEndian.AppendUint16(dst, x)
	case int16:
		return binary.NativeEndian.AppendUint16(dst, uint16(x))
	case uint32:
		return binary.NativeEndian.AppendUint32(dst, x)
	case int32:
		return binary.NativeEndian.AppendUint32(dst, uint32(x))
	case uint64:
		return binary.NativeEndian.AppendUint64(dst, x)
	case int64:
		return binary.NativeEndian.AppendUint64(dst, uint64(x))
	case float32:
		return binary.NativeEndian.AppendUint32(dst, math.Float32bits(x))
	case float64:
		return binary.NativeEndian.AppendUint64(dst, math.Float64bits(x))
	case bool:
		if x {
			return append(dst, 1)
		}
		return append(dst, 0)
	default:
		panic("tslog: scalar value escaped validation")
	}
}
