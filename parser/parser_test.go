package parser

import (
	"bytes"
	"encoding/binary"
	"io"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tslog"
	"github.com/hupe1980/tslog/num"
)

func TestDecoderScalarRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)

	s, err := l.AddScalarStream("pose", tslog.Int32, tslog.Float32, tslog.Float64, tslog.Bool)
	require.NoError(t, err)
	require.NoError(t, s.SetLabels("alpha", "bravo", "charlie", "delta"))
	require.NoError(t, s.Log(4000, int32(-4298), float32(8.25), 654.5, true))
	require.NoError(t, l.Close())

	d := NewDecoder(&buf)

	rec, err := d.Next()
	require.NoError(t, err)
	info, ok := rec.(*StreamInfo)
	require.True(t, ok)
	assert.Equal(t, tslog.StreamID(0), info.ID)
	assert.Equal(t, "pose", info.Name)
	assert.Equal(t, tslog.KindScalar, info.Kind)
	assert.Equal(t, []tslog.ScalarType{tslog.Int32, tslog.Float32, tslog.Float64, tslog.Bool}, info.Fields)

	rec, err = d.Next()
	require.NoError(t, err)
	labels, ok := rec.(*Labels)
	require.True(t, ok)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta"}, labels.Labels)

	rec, err = d.Next()
	require.NoError(t, err)
	sample, ok := rec.(*Sample)
	require.True(t, ok)
	assert.Equal(t, uint64(4000), sample.Timestamp)
	assert.Equal(t, []any{int32(-4298), float32(8.25), 654.5, true}, sample.Values)
	assert.Nil(t, sample.Data)

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderVectorRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)

	v, err := tslog.AddVectorStream[float32](l, "imu", 3)
	require.NoError(t, err)
	require.NoError(t, v.Log(1, num.VectorOf[float32](0.5, -1.5, 2.0)))
	require.NoError(t, l.Close())

	d := NewDecoder(&buf)

	rec, err := d.Next()
	require.NoError(t, err)
	info := rec.(*StreamInfo)
	assert.Equal(t, tslog.KindVector, info.Kind)
	assert.Equal(t, tslog.Float32, info.Elem())
	assert.Equal(t, 3, info.Elems)

	rec, err = d.Next()
	require.NoError(t, err)
	sample := rec.(*Sample)
	assert.Nil(t, sample.Values)
	assert.Equal(t, []float32{0.5, -1.5, 2.0}, sample.Data)
}

func TestDecoderMatrixRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)

	m, err := tslog.AddMatrixStream[uint8](l, "grid", 2, 3)
	require.NoError(t, err)
	require.NoError(t, m.Log(9, num.MatrixOf[uint8](2, 3, 10, 11, 12, 20, 21, 22)))
	require.NoError(t, l.Close())

	d := NewDecoder(&buf)

	rec, err := d.Next()
	require.NoError(t, err)
	info := rec.(*StreamInfo)
	assert.Equal(t, tslog.KindMatrix, info.Kind)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, 3, info.Cols)

	rec, err = d.Next()
	require.NoError(t, err)
	sample := rec.(*Sample)
	assert.Equal(t, []uint8{10, 11, 12, 20, 21, 22}, sample.Data)
}

func TestDecoderAllScalarTypes(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)

	s, err := l.AddScalarStream("all",
		tslog.Uint8, tslog.Int8, tslog.Uint16, tslog.Int16,
		tslog.Uint32, tslog.Int32, tslog.Uint64, tslog.Int64,
		tslog.Float32, tslog.Float64, tslog.Bool)
	require.NoError(t, err)

	in := []any{
		uint8(1), int8(-2), uint16(3), int16(-4),
		uint32(5), int32(-6), uint64(7), int64(-8),
		float32(9.5), float64(-10.5), true,
	}
	require.NoError(t, s.Log(1, in...))

	d := NewDecoder(&buf)
	_, err = d.Next()
	require.NoError(t, err)

	rec, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, in, rec.(*Sample).Values)
}

func TestDecoderInterleavedStreams(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)

	a, err := l.AddScalarStream("a", tslog.Uint8)
	require.NoError(t, err)
	require.NoError(t, a.Log(1, uint8(1)))

	b, err := tslog.AddVectorStream[uint8](l, "b", 2)
	require.NoError(t, err)
	require.NoError(t, b.Log(2, num.VectorOf[uint8](2, 3)))
	require.NoError(t, a.Log(3, uint8(4)))
	require.NoError(t, a.SetLabels("count"))

	d := NewDecoder(&buf)
	var markers []byte
	for {
		rec, err := d.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		markers = append(markers, rec.recordMarker())
	}
	assert.Equal(t, []byte{
		tslog.MarkerMetadata, tslog.MarkerData,
		tslog.MarkerMetadata, tslog.MarkerData,
		tslog.MarkerData, tslog.MarkerLabels,
	}, markers)
}

func TestDecoderStreamLookup(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)
	_, err := l.AddScalarStream("temp", tslog.Float64)
	require.NoError(t, err)

	d := NewDecoder(&buf)
	_, err = d.Next()
	require.NoError(t, err)

	info, ok := d.Stream(0)
	require.True(t, ok)
	assert.Equal(t, "temp", info.Name)

	_, ok = d.Stream(1)
	assert.False(t, ok)
}

func TestDecoderEmptyInput(t *testing.T) {
	d := NewDecoder(bytes.NewReader(nil))
	_, err := d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderUnknownMarker(t *testing.T) {
	d := NewDecoder(bytes.NewReader([]byte{0x7F}))
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "offset 0")
	assert.Contains(t, err.Error(), "unknown marker")
}

func TestDecoderCorruptionOffset(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)
	s, err := l.AddScalarStream("s", tslog.Uint8)
	require.NoError(t, err)
	require.NoError(t, s.Log(1, uint8(7)))
	head := buf.Len()
	buf.WriteByte(0x00) // junk after the last valid record

	d := NewDecoder(&buf)
	_, err = d.Next()
	require.NoError(t, err)
	_, err = d.Next()
	require.NoError(t, err)

	_, err = d.Next()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "offset "+strconv.Itoa(head))
}

func TestDecoderTruncatedRecord(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)
	s, err := l.AddScalarStream("s", tslog.Uint64)
	require.NoError(t, err)
	require.NoError(t, s.Log(1, uint64(7)))

	raw := buf.Bytes()
	for cut := 1; cut < len(raw); cut++ {
		d := NewDecoder(bytes.NewReader(raw[:len(raw)-cut]))
		var lastErr error
		for lastErr == nil {
			_, lastErr = d.Next()
		}
		if lastErr != io.EOF {
			assert.ErrorIs(t, lastErr, ErrCorrupt, "cut %d bytes", cut)
		}
	}
}

func TestDecoderUndeclaredStream(t *testing.T) {
	rec := []byte{tslog.MarkerData}
	rec = binary.NativeEndian.AppendUint32(rec, 9)
	rec = binary.NativeEndian.AppendUint64(rec, 1)

	d := NewDecoder(bytes.NewReader(rec))
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "undeclared stream 9")

	rec = []byte{tslog.MarkerLabels}
	rec = binary.NativeEndian.AppendUint32(rec, 3)

	d = NewDecoder(bytes.NewReader(rec))
	_, err = d.Next()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "undeclared stream 3")
}

func TestDecoderBadMetadata(t *testing.T) {
	metadata := func(tail ...byte) []byte {
		rec := []byte{tslog.MarkerMetadata}
		rec = binary.NativeEndian.AppendUint32(rec, 0)
		rec = append(rec, 's', 0)
		return append(rec, tail...)
	}

	cases := map[string][]byte{
		"unknown kind": metadata(9),
		"zero fields":  binary.NativeEndian.AppendUint32(metadata(byte(tslog.KindScalar)), 0),
		"bad tag":      append(binary.NativeEndian.AppendUint32(metadata(byte(tslog.KindScalar)), 1), 0xEE),
		"zero vector dim": binary.NativeEndian.AppendUint32(
			append(metadata(byte(tslog.KindVector)), byte(tslog.Float32)), 0),
		"zero matrix dim": binary.NativeEndian.AppendUint32(binary.NativeEndian.AppendUint32(
			append(metadata(byte(tslog.KindMatrix)), byte(tslog.Float32)), 2), 0),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			d := NewDecoder(bytes.NewReader(raw))
			_, err := d.Next()
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestDecoderDuplicateStreamID(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)
	_, err := l.AddScalarStream("s", tslog.Uint8)
	require.NoError(t, err)

	raw := buf.Bytes()
	doubled := append(append([]byte{}, raw...), raw...)

	d := NewDecoder(bytes.NewReader(doubled))
	_, err = d.Next()
	require.NoError(t, err)
	_, err = d.Next()
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestReadAll(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)

	pose, err := l.AddScalarStream("pose", tslog.Float64, tslog.Float64)
	require.NoError(t, err)
	imu, err := tslog.AddVectorStream[float32](l, "imu", 3)
	require.NoError(t, err)

	require.NoError(t, pose.Log(1, 0.5, 1.5))
	require.NoError(t, imu.Log(1, num.VectorOf[float32](1, 2, 3)))
	require.NoError(t, pose.Log(2, 0.75, 1.25))
	require.NoError(t, pose.SetLabels("x", "y"))
	require.NoError(t, l.Close())

	f, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, f.Streams, 2)

	// Declaration order is preserved.
	assert.Equal(t, "pose", f.Streams[0].Info.Name)
	assert.Equal(t, "imu", f.Streams[1].Info.Name)

	p := f.Stream("pose")
	require.NotNil(t, p)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []uint64{1, 2}, p.Times)
	assert.Equal(t, []any{0.5, 1.5}, p.Samples[0])
	assert.Equal(t, []string{"x", "y"}, p.Labels)

	i := f.Stream("imu")
	require.NotNil(t, i)
	assert.Equal(t, 1, i.Len())
	assert.Equal(t, []float32{1, 2, 3}, i.Samples[0])
	assert.Nil(t, i.Labels)

	assert.Nil(t, f.Stream("missing"))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	l, err := tslog.Open(path)
	require.NoError(t, err)
	s, err := l.AddScalarStream("temp", tslog.Float64)
	require.NoError(t, err)
	require.NoError(t, s.Log(1, 20.5))
	require.NoError(t, l.Close())

	f, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Streams, 1)
	assert.Equal(t, []any{20.5}, f.Stream("temp").Samples[0])

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.log"))
	assert.Error(t, err)
}

func TestReadAllEmpty(t *testing.T) {
	f, err := ReadAll(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, f.Streams)
}
