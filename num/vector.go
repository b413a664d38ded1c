package num

import (
	"fmt"
	"strings"
)

// Vector is a fixed-length sequence of elements of a single type.
type Vector[T Element] struct {
	data []T
}

// NewVector creates a zero-valued vector of length n.
func NewVector[T Element](n int) *Vector[T] {
	if n < 0 {
		panic("num: negative vector length")
	}
	return &Vector[T]{data: make([]T, n)}
}

// VectorOf creates a vector holding a copy of the given values.
func VectorOf[T Element](values ...T) *Vector[T] {
	data := make([]T, len(values))
	copy(data, values)
	return &Vector[T]{data: data}
}

// Linspace creates a vector of n evenly spaced values from low to high
// inclusive. For integer element types intermediate values are truncated;
// the endpoints are always exact.
func Linspace[T Number](n int, low, high T) *Vector[T] {
	v := NewVector[T](n)
	if n == 0 {
		return v
	}
	v.data[0] = low
	if n == 1 {
		return v
	}
	step := (float64(high) - float64(low)) / float64(n-1)
	for i := 1; i < n-1; i++ {
		v.data[i] = T(float64(low) + float64(i)*step)
	}
	v.data[n-1] = high
	return v
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int { return len(v.data) }

// At returns the element at index i.
func (v *Vector[T]) At(i int) T { return v.data[i] }

// Set stores x at index i.
func (v *Vector[T]) Set(i int, x T) { v.data[i] = x }

// Fill sets every element to x.
func (v *Vector[T]) Fill(x T) {
	for i := range v.data {
		v.data[i] = x
	}
}

// Data returns the backing slice. Mutations are visible to the vector.
func (v *Vector[T]) Data() []T { return v.data }

// Clone returns a deep copy.
func (v *Vector[T]) Clone() *Vector[T] {
	return VectorOf(v.data...)
}

func (v *Vector[T]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v.data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v", x)
	}
	b.WriteByte(']')
	return b.String()
}
