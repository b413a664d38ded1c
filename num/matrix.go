package num

import (
	"fmt"
	"strings"
)

// Matrix is a fixed-shape two-dimensional array of elements of a single type.
// Elements are stored row-major in one contiguous slice.
type Matrix[T Element] struct {
	rows, cols int
	data       []T
}

// NewMatrix creates a zero-valued rows x cols matrix.
func NewMatrix[T Element](rows, cols int) *Matrix[T] {
	if rows < 0 || cols < 0 {
		panic("num: negative matrix dimension")
	}
	return &Matrix[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}
}

// MatrixOf creates a rows x cols matrix from values given in row-major order.
func MatrixOf[T Element](rows, cols int, values ...T) *Matrix[T] {
	if len(values) != rows*cols {
		panic(fmt.Sprintf("num: %d values for %dx%d matrix", len(values), rows, cols))
	}
	m := NewMatrix[T](rows, cols)
	copy(m.data, values)
	return m
}

// Identity creates an n x n matrix with ones on the diagonal.
func Identity[T Number](n int) *Matrix[T] {
	m := NewMatrix[T](n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// Rows returns the number of rows.
func (m *Matrix[T]) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix[T]) Cols() int { return m.cols }

// At returns the element at row r, column c.
func (m *Matrix[T]) At(r, c int) T {
	m.check(r, c)
	return m.data[r*m.cols+c]
}

// Set stores x at row r, column c.
func (m *Matrix[T]) Set(r, c int, x T) {
	m.check(r, c)
	m.data[r*m.cols+c] = x
}

// Fill sets every element to x.
func (m *Matrix[T]) Fill(x T) {
	for i := range m.data {
		m.data[i] = x
	}
}

// Data returns the row-major backing slice. Mutations are visible to the matrix.
func (m *Matrix[T]) Data() []T { return m.data }

// Clone returns a deep copy.
func (m *Matrix[T]) Clone() *Matrix[T] {
	return MatrixOf(m.rows, m.cols, m.data...)
}

func (m *Matrix[T]) check(r, c int) {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(fmt.Sprintf("num: index (%d,%d) out of range for %dx%d matrix", r, c, m.rows, m.cols))
	}
}

func (m *Matrix[T]) String() string {
	var b strings.Builder
	for r := 0; r < m.rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('[')
		for c := 0; c < m.cols; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%v", m.data[r*m.cols+c])
		}
		b.WriteByte(']')
	}
	return b.String()
}
