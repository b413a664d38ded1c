// Package parser reads telemetry files produced by the tslog writer.
//
// The file is a flat sequence of records with no header, so the decoder is a
// plain forward scan: each call to [Decoder.Next] returns one decoded record
// in file order. Metadata records must precede the data and labels records of
// their stream; anything that violates the format is reported as [ErrCorrupt]
// with the byte offset of the offending record.
//
// A file is only readable on machines with the byte order of the writer,
// because payloads are stored in host order.
package parser

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/hupe1980/tslog"
	"github.com/hupe1980/tslog/internal/conv"
)

// ErrCorrupt is returned when the input does not follow the record format.
// The returned error carries the byte offset of the record that failed.
var ErrCorrupt = errors.New("corrupt record")

// Sanity bounds for attacker-controlled counts. A file claiming more than
// this is rejected before the decoder commits memory to it.
const (
	maxStringBytes  = 1 << 20
	maxScalarFields = 1 << 16
	maxSampleBytes  = 1 << 30
)

// Record is one decoded file record. The concrete types are *StreamInfo,
// *Labels and *Sample.
type Record interface {
	recordMarker() byte
}

// StreamInfo is a decoded metadata record declaring a stream.
type StreamInfo struct {
	tslog.Schema
}

func (*StreamInfo) recordMarker() byte { return tslog.MarkerMetadata }

// Labels is a decoded labels record naming the fields of a stream.
type Labels struct {
	StreamID tslog.StreamID
	Labels   []string
}

func (*Labels) recordMarker() byte { return tslog.MarkerLabels }

// Sample is a decoded data record.
type Sample struct {
	StreamID  tslog.StreamID
	Timestamp uint64

	// Values holds one exactly-typed Go value per field for scalar streams.
	// It is nil for vector and matrix streams.
	Values []any

	// Data holds the payload of vector and matrix streams as a typed flat
	// slice ([]float32, []uint8, ...) in row-major order. It is nil for
	// scalar streams; the shape comes from the stream's StreamInfo.
	Data any
}

func (*Sample) recordMarker() byte { return tslog.MarkerData }

// Options configures a Decoder.
type Options struct {
	// Logger receives debug traces of decoded stream declarations.
	Logger *slog.Logger
}

// DefaultOptions returns default decoder options.
var DefaultOptions = Options{}

// WithLogger sets the logger used for decode traces.
func WithLogger(logger *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Decoder reads records from a telemetry file one at a time.
type Decoder struct {
	r       *bufio.Reader
	streams map[tslog.StreamID]*StreamInfo
	offset  int64
	logger  *slog.Logger
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader, optFns ...func(o *Options)) *Decoder {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Decoder{
		r:       bufio.NewReader(r),
		streams: make(map[tslog.StreamID]*StreamInfo),
		logger:  opts.Logger,
	}
}

// Next returns the next record in file order. It returns io.EOF when the
// input ends exactly on a record boundary and ErrCorrupt otherwise.
func (d *Decoder) Next() (Record, error) {
	start := d.offset

	marker, err := d.r.ReadByte()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("tslog/parser: read marker: %w", err)
	}
	d.offset++

	switch marker {
	case tslog.MarkerMetadata:
		return d.decodeStreamInfo(start)
	case tslog.MarkerLabels:
		return d.decodeLabels(start)
	case tslog.MarkerData:
		return d.decodeSample(start)
	default:
		return nil, d.corrupt(start, "unknown marker 0x%02X", marker)
	}
}

// Stream returns the declaration decoded for id, if any.
func (d *Decoder) Stream(id tslog.StreamID) (*StreamInfo, bool) {
	info, ok := d.streams[id]
	return info, ok
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 { return d.offset }

func (d *Decoder) decodeStreamInfo(start int64) (Record, error) {
	id, err := d.readUint32()
	if err != nil {
		return nil, d.corrupt(start, "stream id: %v", readDetail(err))
	}
	name, err := d.readString()
	if err != nil {
		return nil, d.corrupt(start, "stream name: %v", readDetail(err))
	}
	kind, err := d.readByte()
	if err != nil {
		return nil, d.corrupt(start, "stream kind: %v", readDetail(err))
	}

	info := &StreamInfo{Schema: tslog.Schema{
		ID:   tslog.StreamID(id),
		Name: name,
		Kind: tslog.StreamKind(kind),
	}}

	switch info.Kind {
	case tslog.KindScalar:
		count, err := d.readUint32()
		if err != nil {
			return nil, d.corrupt(start, "field count: %v", readDetail(err))
		}
		if count == 0 || count > maxScalarFields {
			return nil, d.corrupt(start, "field count %d out of range", count)
		}
		info.Fields = make([]tslog.ScalarType, count)
		for i := range info.Fields {
			tag, err := d.readByte()
			if err != nil {
				return nil, d.corrupt(start, "field tag: %v", readDetail(err))
			}
			info.Fields[i] = tslog.ScalarType(tag)
			if !info.Fields[i].Valid() {
				return nil, d.corrupt(start, "unknown field tag %d", tag)
			}
		}

	case tslog.KindVector:
		tag, elems, err := d.readElemShape(1)
		if err != nil {
			return nil, d.corrupt(start, "vector shape: %v", readDetail(err))
		}
		n, err := conv.Uint32ToInt(elems[0])
		if err != nil {
			return nil, d.corrupt(start, "vector shape: %v", err)
		}
		info.Fields = []tslog.ScalarType{tag}
		info.Elems = n

	case tslog.KindMatrix:
		tag, dims, err := d.readElemShape(2)
		if err != nil {
			return nil, d.corrupt(start, "matrix shape: %v", readDetail(err))
		}
		rows, err := conv.Uint32ToInt(dims[0])
		if err != nil {
			return nil, d.corrupt(start, "matrix shape: %v", err)
		}
		cols, err := conv.Uint32ToInt(dims[1])
		if err != nil {
			return nil, d.corrupt(start, "matrix shape: %v", err)
		}
		info.Fields = []tslog.ScalarType{tag}
		info.Rows = rows
		info.Cols = cols

	default:
		return nil, d.corrupt(start, "unknown stream kind %d", kind)
	}

	if size := sampleBytes(info); size <= 0 || size > maxSampleBytes {
		return nil, d.corrupt(start, "sample size %d out of range", size)
	}
	if _, dup := d.streams[info.ID]; dup {
		return nil, d.corrupt(start, "stream id %d declared twice", uint32(info.ID))
	}
	d.streams[info.ID] = info

	d.logger.Debug("stream decoded",
		"id", uint32(info.ID),
		"name", info.Name,
		"kind", info.Kind.String(),
	)
	return info, nil
}

// readElemShape reads the element tag and n uint32 dimensions shared by the
// vector and matrix declarations.
func (d *Decoder) readElemShape(n int) (tslog.ScalarType, []uint32, error) {
	tag, err := d.readByte()
	if err != nil {
		return 0, nil, err
	}
	t := tslog.ScalarType(tag)
	if !t.Valid() {
		return 0, nil, fmt.Errorf("unknown element tag %d", tag)
	}

	dims := make([]uint32, n)
	for i := range dims {
		v, err := d.readUint32()
		if err != nil {
			return 0, nil, err
		}
		if v == 0 || v > maxSampleBytes {
			return 0, nil, fmt.Errorf("dimension %d out of range", v)
		}
		dims[i] = v
	}
	return t, dims, nil
}

func (d *Decoder) decodeLabels(start int64) (Record, error) {
	id, err := d.readUint32()
	if err != nil {
		return nil, d.corrupt(start, "stream id: %v", readDetail(err))
	}
	info, ok := d.streams[tslog.StreamID(id)]
	if !ok {
		return nil, d.corrupt(start, "labels for undeclared stream %d", id)
	}

	labels := make([]string, info.FieldCount())
	for i := range labels {
		s, err := d.readString()
		if err != nil {
			return nil, d.corrupt(start, "label %d: %v", i, readDetail(err))
		}
		labels[i] = s
	}
	return &Labels{StreamID: info.ID, Labels: labels}, nil
}

func (d *Decoder) decodeSample(start int64) (Record, error) {
	id, err := d.readUint32()
	if err != nil {
		return nil, d.corrupt(start, "stream id: %v", readDetail(err))
	}
	info, ok := d.streams[tslog.StreamID(id)]
	if !ok {
		return nil, d.corrupt(start, "data for undeclared stream %d", id)
	}
	ts, err := d.readUint64()
	if err != nil {
		return nil, d.corrupt(start, "timestamp: %v", readDetail(err))
	}

	payload, err := d.readPayload(sampleBytes(info))
	if err != nil {
		return nil, d.corrupt(start, "payload: %v", readDetail(err))
	}

	sample := &Sample{StreamID: info.ID, Timestamp: ts}
	if info.Kind == tslog.KindScalar {
		sample.Values = make([]any, len(info.Fields))
		for i, t := range info.Fields {
			sample.Values[i] = scalarValue(t, payload)
			payload = payload[t.Size():]
		}
	} else {
		sample.Data = sliceForTag(info.Elem(), payload)
	}
	return sample, nil
}

// readPayload consumes exactly size bytes. It copies incrementally so a
// truncated file fails without committing memory for the claimed size.
func (d *Decoder) readPayload(size int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, d.r, size)
	d.offset += n
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err == nil {
		d.offset++
	}
	return b, err
}

func (d *Decoder) readFull(p []byte) error {
	n, err := io.ReadFull(d.r, p)
	d.offset += int64(n)
	return err
}

func (d *Decoder) readUint32() (uint32, error) {
	var b [4]byte
	if err := d.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(b[:]), nil
}

func (d *Decoder) readUint64() (uint64, error) {
	var b [8]byte
	if err := d.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(b[:]), nil
}

// readString consumes bytes up to and including the NUL terminator.
func (d *Decoder) readString() (string, error) {
	var sb strings.Builder
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return "", err
		}
		d.offset++
		if b == 0 {
			return sb.String(), nil
		}
		if sb.Len() >= maxStringBytes {
			return "", fmt.Errorf("string exceeds %d bytes", maxStringBytes)
		}
		sb.WriteByte(b)
	}
}

func (d *Decoder) corrupt(offset int64, format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	return fmt.Errorf("tslog/parser: %w at offset %d: %s", ErrCorrupt, offset, detail)
}

// readDetail folds the two end-of-input errors into one message; everything
// else passes through.
func readDetail(err error) string {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "unexpected end of file"
	}
	return err.Error()
}

// sampleBytes returns the fixed payload size of one data record of info.
func sampleBytes(info *StreamInfo) int64 {
	switch info.Kind {
	case tslog.KindScalar:
		var size int64
		for _, t := range info.Fields {
			size += int64(t.Size())
		}
		return size
	case tslog.KindVector:
		return int64(info.Elems) * int64(info.Elem().Size())
	case tslog.KindMatrix:
		return int64(info.Rows) * int64(info.Cols) * int64(info.Elem().Size())
	default:
		return 0
	}
}

// scalarValue decodes one field from the front of payload into the exact Go
// type of its tag.
func scalarValue(t tslog.ScalarType, payload []byte) any {
	switch t {
	case tslog.Uint8:
		return payload[0]
	case tslog.Int8:
		return int8(payload[0])
	case tslog.Uint16:
		return binary.NativeEndian.Uint16(payload)
	case tslog.Int16:
		return int16(binary.NativeEndian.Uint16(payload))
	case tslog.Uint32:
		return binary.NativeEndian.Uint32(payload)
	case tslog.Int32:
		return int32(binary.NativeEndian.Uint32(payload))
	case tslog.Uint64:
		return binary.NativeEndian.Uint64(payload)
	case tslog.Int64:
		return int64(binary.NativeEndian.Uint64(payload))
	case tslog.Float32:
		return math.Float32frombits(binary.NativeEndian.Uint32(payload))
	case tslog.Float64:
		return math.Float64frombits(binary.NativeEndian.Uint64(payload))
	case tslog.Bool:
		return payload[0] != 0
	default:
		panic("tslog/parser: tag escaped validation")
	}
}

// sliceForTag decodes a full vector or matrix payload into a typed flat
// slice.
func sliceForTag(t tslog.ScalarType, payload []byte) any {
	n := len(payload) / t.Size()
	switch t {
	case tslog.Uint8:
		out := make([]uint8, n)
		copy(out, payload)
		return out
	case tslog.Int8:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(payload[i])
		}
		return out
	case tslog.Uint16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = binary.NativeEndian.Uint16(payload[2*i:])
		}
		return out
	case tslog.Int16:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(binary.NativeEndian.Uint16(payload[2*i:]))
		}
		return out
	case tslog.Uint32:
		out := make([]uint32, n)
		for i := range out {
			out[i] = binary.NativeEndian.Uint32(payload[4*i:])
		}
		return out
	case tslog.Int32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.NativeEndian.Uint32(payload[4*i:]))
		}
		return out
	case tslog.Uint64:
		out := make([]uint64, n)
		for i := range out {
			out[i] = binary.NativeEndian.Uint64(payload[8*i:])
		}
		return out
	case tslog.Int64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.NativeEndian.Uint64(payload[8*i:]))
		}
		return out
	case tslog.Float32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.NativeEndian.Uint32(payload[4*i:]))
		}
		return out
	case tslog.Float64:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.NativeEndian.Uint64(payload[8*i:]))
		}
		return out
	case tslog.Bool:
		out := make([]bool, n)
		for i := range out {
			out[i] = payload[i] != 0
		}
		return out
	default:
		panic("tslog/parser: tag escaped validation")
	}
}
