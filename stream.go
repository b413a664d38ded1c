package tslog

import (
	"fmt"

	"github.com/hupe1980/tslog/internal/raw"
	"github.com/hupe1980/tslog/num"
)

// stream is the core shared by all stream handles. A handle stays bound to
// the Log that issued it and carries the immutable schema written in the
// stream's metadata record.
type stream struct {
	log       *Log
	schema    Schema
	labelsSet bool
}

// ID returns the stream's id within the log file.
func (s *stream) ID() StreamID { return s.schema.ID }

// Name returns the stream's declared name.
func (s *stream) Name() string { return s.schema.Name }

// Schema returns a copy of the stream's schema.
func (s *stream) Schema() Schema {
	sc := s.schema
	sc.Fields = append([]ScalarType(nil), s.schema.Fields...)
	return sc
}

// SetLabels writes a labels record naming the stream's fields: one label per
// tuple position for a scalar stream, exactly one for a vector or matrix
// stream. Labels can be set at most once and at any point in the stream's
// lifetime.
func (s *stream) SetLabels(labels ...string) error {
	l := s.log
	if l.closed {
		return ErrClosed
	}
	if s.labelsSet {
		return fmt.Errorf("%w: labels already set for stream %q", ErrSchemaMismatch, s.schema.Name)
	}
	if want := s.schema.FieldCount(); len(labels) != want {
		return fmt.Errorf("%w: %d labels for %d fields of stream %q", ErrSchemaMismatch, len(labels), want, s.schema.Name)
	}
	for _, lb := range labels {
		if err := validString("label", lb); err != nil {
			return err
		}
	}

	rec := appendLabels(l.scratch[:0], s.schema.ID, labels)
	l.scratch = rec
	if err := l.write(rec); err != nil {
		return err
	}
	s.labelsSet = true
	return nil
}

// ScalarStream logs timestamped tuples of mixed scalar values.
type ScalarStream struct {
	stream
}

// Log writes one data record. values must match the declared fields in count
// and exact Go type: a field declared Int32 takes an int32, not an int.
// Validation completes before any byte is encoded, so a rejected call leaves
// the file untouched.
func (s *ScalarStream) Log(timestamp uint64, values ...any) error {
	l := s.log
	if l.closed {
		return ErrClosed
	}
	if len(values) != len(s.schema.Fields) {
		return &ArityMismatchError{Want: len(s.schema.Fields), Got: len(values)}
	}
	for i, v := range values {
		t, ok := scalarTypeOf(v)
		if !ok {
			return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
		}
		if t != s.schema.Fields[i] {
			return &TypeMismatchError{Field: i, Want: s.schema.Fields[i], Got: fmt.Sprintf("%T", v)}
		}
	}

	rec := appendDataHeader(l.scratch[:0], s.schema.ID, timestamp)
	for _, v := range values {
		rec = appendScalar(rec, v)
	}
	l.scratch = rec
	return l.writeData(rec)
}

// VectorStream logs timestamped fixed-length vectors of element type T.
type VectorStream[T num.Element] struct {
	stream
}

// Log writes one data record. The vector's length must match the declared
// element count; its elements are written as raw contiguous bytes.
func (s *VectorStream[T]) Log(timestamp uint64, v *num.Vector[T]) error {
	l := s.log
	if l.closed {
		return ErrClosed
	}
	if v == nil {
		return fmt.Errorf("%w: nil vector", ErrSchemaMismatch)
	}
	if v.Len() != s.schema.Elems {
		return &ShapeMismatchError{WantRows: 1, WantCols: s.schema.Elems, GotRows: 1, GotCols: v.Len()}
	}
	payload, err := raw.Bytes(v.Data())
	if err != nil {
		return fmt.Errorf("tslog: %w", err)
	}

	rec := appendDataHeader(l.scratch[:0], s.schema.ID, timestamp)
	rec = append(rec, payload...)
	l.scratch = rec
	return l.writeData(rec)
}

// MatrixStream logs timestamped fixed-shape matrices of element type T.
type MatrixStream[T num.Element] struct {
	stream
}

// Log writes one data record. The matrix's shape must match the declaration;
// its elements are written as raw contiguous bytes in row-major order.
func (s *MatrixStream[T]) Log(timestamp uint64, m *num.Matrix[T]) error {
	l := s.log
	if l.closed {
		return ErrClosed
	}
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrSchemaMismatch)
	}
	if m.Rows() != s.schema.Rows || m.Cols() != s.schema.Cols {
		return &ShapeMismatchError{
			WantRows: s.schema.Rows, WantCols: s.schema.Cols,
			GotRows: m.Rows(), GotCols: m.Cols(),
		}
	}
	payload, err := raw.Bytes(m.Data())
	if err != nil {
		return fmt.Errorf("tslog: %w", err)
	}

	rec := appendDataHeader(l.scratch[:0], s.schema.ID, timestamp)
	rec = append(rec, payload...)
	l.scratch = rec
	return l.writeData(rec)
}
