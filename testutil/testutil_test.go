package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tslog"
)

func TestRNGDeterminism(t *testing.T) {
	fields := []tslog.ScalarType{tslog.Int32, tslog.Float64, tslog.Bool}

	a := NewRNG(42)
	b := NewRNG(42)

	first := a.ScalarRow(fields...)
	assert.Equal(t, first, b.ScalarRow(fields...))

	a.ScalarRow(fields...)
	a.Reset()
	assert.Equal(t, first, a.ScalarRow(fields...))
	assert.Equal(t, int64(42), a.Seed())
}

func TestScalarValueTypes(t *testing.T) {
	rng := NewRNG(1)

	tests := []struct {
		tag  tslog.ScalarType
		want any
	}{
		{tslog.Uint8, uint8(0)},
		{tslog.Int8, int8(0)},
		{tslog.Uint16, uint16(0)},
		{tslog.Int16, int16(0)},
		{tslog.Uint32, uint32(0)},
		{tslog.Int32, int32(0)},
		{tslog.Uint64, uint64(0)},
		{tslog.Int64, int64(0)},
		{tslog.Float32, float32(0)},
		{tslog.Float64, float64(0)},
		{tslog.Bool, false},
	}

	for _, tt := range tests {
		assert.IsType(t, tt.want, rng.ScalarValue(tt.tag), tt.tag.String())
	}
}

func TestScalarRowLogs(t *testing.T) {
	var buf bytes.Buffer
	l := tslog.New(&buf)

	pose, err := l.AddScalarStream("pose", tslog.Int32, tslog.Float64, tslog.Bool)
	require.NoError(t, err)

	rng := NewRNG(3)
	for ts := uint64(0); ts < 10; ts++ {
		require.NoError(t, pose.Log(ts, rng.ScalarRow(pose.Schema().Fields...)...))
	}
	require.NoError(t, l.Close())

	assert.Positive(t, buf.Len())
}

func TestVectorAndMatrix(t *testing.T) {
	rng := NewRNG(9)

	v := Vector[float32](rng, 16)
	assert.Equal(t, 16, v.Len())

	rng.Reset()
	w := Vector[float32](rng, 16)
	assert.Equal(t, v.Data(), w.Data())

	m := Matrix[uint8](rng, 3, 4)
	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 4, m.Cols())
	assert.Len(t, m.Data(), 12)
}

func TestFillBool(t *testing.T) {
	rng := NewRNG(5)

	flags := make([]bool, 64)
	Fill(rng, flags)

	assert.Contains(t, flags, true)
	assert.Contains(t, flags, false)
}
