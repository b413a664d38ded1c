package tslog

// Schema describes the declared layout of one stream. It is fixed when the
// stream is added and matches the metadata record written at that point.
type Schema struct {
	ID   StreamID
	Name string
	Kind StreamKind

	// Fields holds the per-position types of a scalar stream. For vector and
	// matrix streams it holds the single element type.
	Fields []ScalarType

	// Elems is the element count of a vector stream.
	Elems int

	// Rows and Cols are the dimensions of a matrix stream.
	Rows, Cols int
}

// FieldCount returns the number of labelable fields: the tuple arity for a
// scalar stream, 1 for vector and matrix streams.
func (s *Schema) FieldCount() int {
	if s.Kind == KindScalar {
		return len(s.Fields)
	}
	return 1
}

// Elem returns the element type of a vector or matrix stream.
func (s *Schema) Elem() ScalarType {
	return s.Fields[0]
}

// sampleSize returns the payload size of one data record, excluding the
// record header.
func (s *Schema) sampleSize() int {
	switch s.Kind {
	case KindVector:
		return s.Elems * s.Elem().Size()
	case KindMatrix:
		return s.Rows * s.Cols * s.Elem().Size()
	default:
		n := 0
		for _, t := range s.Fields {
			n += t.Size()
		}
		return n
	}
}
