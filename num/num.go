// Package num provides fixed-shape numeric containers for telemetry samples.
//
// Vector and Matrix hold their elements in a single contiguous backing slice,
// which the tslog writer serializes as raw bytes. Matrix storage is row-major;
// Data exposes the backing slice in that order.
package num

// Number is the set of fixed-width numeric element types.
type Number interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 | float32 | float64
}

// Element is the set of element types a Vector or Matrix can hold.
//
// The set is closed on purpose: every member has a defined wire width, and
// derived types (e.g. `type Celsius float64`) are excluded so a container's
// element type always identifies its encoding exactly.
type Element interface {
	Number | bool
}
