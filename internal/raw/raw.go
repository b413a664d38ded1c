// Package raw provides byte-slice views of numeric element slices with
// runtime alignment checks.
package raw

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/hupe1980/tslog/num"
)

// ErrUnalignedAccess is returned when a slice's backing array is not aligned
// for its element type.
var ErrUnalignedAccess = errors.New("unaligned memory access detected")

// Size returns the in-memory width of T in bytes. For every num.Element type
// this equals the wire width.
func Size[T num.Element]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// Bytes returns the memory backing s as a byte slice, without copying.
// The view is valid as long as s is; mutations are visible both ways.
func Bytes[T num.Element](s []T) ([]byte, error) {
	if len(s) == 0 {
		return nil, nil
	}
	if err := checkAlignment(s); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*Size[T]()), nil
}

// checkAlignment verifies the slice base address is aligned for T.
// Slices allocated by make always are; the check guards views constructed
// through other unsafe code.
func checkAlignment[T num.Element](s []T) error {
	var v T
	align := uintptr(unsafe.Alignof(v))
	ptr := uintptr(unsafe.Pointer(&s[0]))
	if ptr%align != 0 {
		return fmt.Errorf("%w: %T slice at address 0x%x", ErrUnalignedAccess, v, ptr)
	}
	return nil
}
