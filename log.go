package tslog

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/tslog/internal/conv"
	"github.com/hupe1980/tslog/num"
)

// Log writes a single append-only telemetry file. Streams are declared up
// front or interleaved with data; each declaration immediately emits the
// stream's metadata record, so the file is self-describing from the first
// byte.
//
// A Log performs no locking and no internal buffering. Callers that share a
// Log across goroutines must serialize access themselves. Write errors are
// fatal for the file; the Log does not retry or repair.
type Log struct {
	w           io.Writer
	logger      *slog.Logger
	syncOnClose bool

	nextID  StreamID
	scratch []byte
	closed  bool
	stats   Stats
}

// New creates a Log writing records to w. If w is an io.Closer it is closed
// by Close.
func New(w io.Writer, optFns ...Option) *Log {
	o := applyOptions(optFns)
	return &Log{
		w:           w,
		logger:      o.logger,
		syncOnClose: o.syncOnClose,
		scratch:     make([]byte, 0, 256),
	}
}

// Open creates or truncates the file at path and returns a Log writing to it.
func Open(path string, optFns ...Option) (*Log, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644) //nolint:gosec // G304: path is configurable
	if err != nil {
		return nil, fmt.Errorf("tslog: open %s: %w", path, err)
	}
	return New(f, optFns...), nil
}

// AddScalarStream declares a stream of tuples with the given per-position
// field types and writes its metadata record. Values logged to the returned
// handle must match the field types exactly; in particular plain int is not
// accepted, because its width depends on the platform.
func (l *Log) AddScalarStream(name string, fields ...ScalarType) (*ScalarStream, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if err := validString("stream name", name); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: scalar stream %q has no fields", ErrSchemaMismatch, name)
	}
	for _, t := range fields {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: tag %d", ErrUnsupportedType, uint8(t))
		}
	}

	s := Schema{
		ID:     l.nextID,
		Name:   name,
		Kind:   KindScalar,
		Fields: append([]ScalarType(nil), fields...),
	}
	if err := l.declare(&s); err != nil {
		return nil, err
	}
	return &ScalarStream{stream{log: l, schema: s}}, nil
}

// AddVectorStream declares a stream of fixed-length vectors with element type
// T and writes its metadata record. The element type is fixed at compile
// time; only the length is checked when logging.
func AddVectorStream[T num.Element](l *Log, name string, elems int) (*VectorStream[T], error) {
	if l.closed {
		return nil, ErrClosed
	}
	if err := validString("stream name", name); err != nil {
		return nil, err
	}
	if elems <= 0 {
		return nil, fmt.Errorf("%w: vector stream %q with %d elements", ErrSchemaMismatch, name, elems)
	}
	if _, err := conv.IntToUint32(elems); err != nil {
		return nil, fmt.Errorf("%w: vector stream %q: %v", ErrSchemaMismatch, name, err)
	}

	s := Schema{
		ID:     l.nextID,
		Name:   name,
		Kind:   KindVector,
		Fields: []ScalarType{TypeOf[T]()},
		Elems:  elems,
	}
	if err := l.declare(&s); err != nil {
		return nil, err
	}
	return &VectorStream[T]{stream{log: l, schema: s}}, nil
}

// AddMatrixStream declares a stream of fixed-shape matrices with element type
// T and writes its metadata record.
func AddMatrixStream[T num.Element](l *Log, name string, rows, cols int) (*MatrixStream[T], error) {
	if l.closed {
		return nil, ErrClosed
	}
	if err := validString("stream name", name); err != nil {
		return nil, err
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: matrix stream %q with shape %dx%d", ErrSchemaMismatch, name, rows, cols)
	}
	if _, err := conv.IntToUint32(rows); err != nil {
		return nil, fmt.Errorf("%w: matrix stream %q: %v", ErrSchemaMismatch, name, err)
	}
	if _, err := conv.IntToUint32(cols); err != nil {
		return nil, fmt.Errorf("%w: matrix stream %q: %v", ErrSchemaMismatch, name, err)
	}

	s := Schema{
		ID:     l.nextID,
		Name:   name,
		Kind:   KindMatrix,
		Fields: []ScalarType{TypeOf[T]()},
		Rows:   rows,
		Cols:   cols,
	}
	if err := l.declare(&s); err != nil {
		return nil, err
	}
	return &MatrixStream[T]{stream{log: l, schema: s}}, nil
}

// declare writes the metadata record for s and allocates its id. The id
// counter only advances after the record reached the sink, so a failed
// declaration does not consume an id.
func (l *Log) declare(s *Schema) error {
	rec := appendMetadata(l.scratch[:0], s)
	l.scratch = rec
	if err := l.write(rec); err != nil {
		return err
	}
	l.nextID++
	l.stats.Streams++
	l.logger.Debug("stream declared",
		"id", uint32(s.ID),
		"name", s.Name,
		"kind", s.Kind.String(),
		"sample_size", s.sampleSize(),
	)
	return nil
}

// write hands one assembled record to the sink.
func (l *Log) write(rec []byte) error {
	n, err := l.w.Write(rec)
	l.stats.BytesWritten += uint64(n) //nolint:gosec // Write never returns negative n
	if err != nil {
		return fmt.Errorf("tslog: write record: %w", err)
	}
	return nil
}

// writeData is the data-record tail of write: it also advances the record
// counter.
func (l *Log) writeData(rec []byte) error {
	if err := l.write(rec); err != nil {
		return err
	}
	l.stats.Records++
	return nil
}

// Sync flushes the sink to stable storage when it supports syncing
// (e.g. *os.File). Sinks without a Sync method make it a no-op.
func (l *Log) Sync() error {
	if l.closed {
		return ErrClosed
	}
	return l.syncSink()
}

func (l *Log) syncSink() error {
	s, ok := l.w.(interface{ Sync() error })
	if !ok {
		return nil
	}
	if err := s.Sync(); err != nil {
		return fmt.Errorf("tslog: sync: %w", err)
	}
	return nil
}

// Close finalizes the log. All handles issued by the Log return ErrClosed
// afterwards. Close is idempotent.
func (l *Log) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true

	l.logger.Debug("log closed",
		"streams", l.stats.Streams,
		"records", l.stats.Records,
		"bytes", l.stats.BytesWritten,
	)

	var syncErr error
	if l.syncOnClose {
		syncErr = l.syncSink()
	}

	if c, ok := l.w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("tslog: close: %w", err)
		}
	}
	return syncErr
}
