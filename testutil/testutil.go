package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/tslog"
	"github.com/hupe1980/tslog/num"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// ScalarValue returns a random value whose dynamic type matches tag, ready
// to pass to ScalarStream.Log.
func (r *RNG) ScalarValue(tag tslog.ScalarType) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return scalarValue(r.rand, tag)
}

// ScalarRow returns one random value per field, in declared order.
// Locks only once per call (preferred over calling ScalarValue in a loop).
func (r *RNG) ScalarRow(fields ...tslog.ScalarType) []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := make([]any, len(fields))
	for i, tag := range fields {
		row[i] = scalarValue(r.rand, tag)
	}
	return row
}

func scalarValue(rng *rand.Rand, tag tslog.ScalarType) any {
	switch tag {
	case tslog.Uint8:
		return uint8(rng.Intn(1 << 8))
	case tslog.Int8:
		return int8(rng.Intn(1<<8) - 1<<7)
	case tslog.Uint16:
		return uint16(rng.Intn(1 << 16))
	case tslog.Int16:
		return int16(rng.Intn(1<<16) - 1<<15)
	case tslog.Uint32:
		return rng.Uint32()
	case tslog.Int32:
		return int32(rng.Uint32())
	case tslog.Uint64:
		return rng.Uint64()
	case tslog.Int64:
		return int64(rng.Uint64())
	case tslog.Float32:
		return rng.Float32()
	case tslog.Float64:
		return rng.Float64()
	case tslog.Bool:
		return rng.Intn(2) == 1
	default:
		panic("testutil: unknown scalar type")
	}
}

// Fill fills dst with random elements. Locks only once per call.
func Fill[T num.Element](r *RNG, dst []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = randElement[T](r.rand)
	}
}

// Vector returns a vector of n random elements.
func Vector[T num.Element](r *RNG, n int) *num.Vector[T] {
	v := num.NewVector[T](n)
	Fill(r, v.Data())
	return v
}

// Matrix returns a rows x cols matrix of random elements.
func Matrix[T num.Element](r *RNG, rows, cols int) *num.Matrix[T] {
	m := num.NewMatrix[T](rows, cols)
	Fill(r, m.Data())
	return m
}

func randElement[T num.Element](rng *rand.Rand) T {
	var v T
	switch p := any(&v).(type) {
	case *uint8:
		*p = uint8(rng.Intn(1 << 8))
	case *int8:
		*p = int8(rng.Intn(1<<8) - 1<<7)
	case *uint16:
		*p = uint16(rng.Intn(1 << 16))
	case *int16:
		*p = int16(rng.Intn(1<<16) - 1<<15)
	case *uint32:
		*p = rng.Uint32()
	case *int32:
		*p = int32(rng.Uint32())
	case *uint64:
		*p = rng.Uint64()
	case *int64:
		*p = int64(rng.Uint64())
	case *float32:
		*p = rng.Float32()
	case *float64:
		*p = rng.Float64()
	case *bool:
		*p = rng.Intn(2) == 1
	}
	return v
}
