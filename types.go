package tslog

import "github.com/hupe1980/tslog/num"

// Record markers. Every record starts with exactly one of these bytes.
const (
	MarkerMetadata byte = 0xA5
	MarkerLabels   byte = 0x66
	MarkerData     byte = 0xDB
)

// StreamID identifies a stream within one log file. IDs are assigned
// sequentially from 0 in declaration order.
type StreamID uint32

// StreamKind is the structural kind of a stream.
type StreamKind uint8

const (
	// KindScalar streams log tuples of mixed scalar types.
	KindScalar StreamKind = 0
	// KindVector streams log fixed-length vectors of one element type.
	KindVector StreamKind = 1
	// KindMatrix streams log fixed-shape matrices of one element type.
	KindMatrix StreamKind = 2
)

func (k StreamKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// ScalarType is the wire tag for a primitive element type.
type ScalarType uint8

const (
	Uint8   ScalarType = 0
	Int8    ScalarType = 1
	Uint16  ScalarType = 2
	Int16   ScalarType = 3
	Uint32  ScalarType = 4
	Int32   ScalarType = 5
	Uint64  ScalarType = 6
	Int64   ScalarType = 7
	Float32 ScalarType = 8
	Float64 ScalarType = 9
	Bool    ScalarType = 10
)

// Size returns the encoded width of the type in bytes.
func (t ScalarType) Size() int {
	switch t {
	case Uint8, Int8, Bool:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	default:
		return 0
	}
}

func (t ScalarType) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	case Uint64:
		return "uint64"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	default:
		return "invalid"
	}
}

// Valid reports whether t is a defined scalar type tag.
func (t ScalarType) Valid() bool {
	return t <= Bool
}

// TypeOf returns the wire tag for the element type T. The num.Element
// constraint is closed over exactly the supported types, so every
// instantiation has a tag.
func TypeOf[T num.Element]() ScalarType {
	var v T
	t, _ := scalarTypeOf(v)
	return t
}

// scalarTypeOf maps a dynamic value to its wire tag. Derived types
// (e.g. `type Celsius float64`) and plain int are not mapped: the encoded
// width must be visible at the call site.
func scalarTypeOf(v any) (ScalarType, bool) {
	switch v.(type) {
	case uint8:
		return Uint8, true
	case int8:
		return Int8, true
	case uint16:
		return Uint16, true
	case int16:
		return Int16, true
	case uint32:
		return Uint32, true
	case int32:
		return Int32, true
	case uint64:
		return Uint64, true
	case int64:
		return Int64, true
	case float32:
		return Float32, true
	case float64:
		return Float64, true
	case bool:
		return Bool, true
	default:
		return 0, false
	}
}
