// Package testutil provides testing utilities for tslog.
//
// This package is intended for use in tests, benchmarks and examples only.
// All output is deterministic for a given seed, so failures reproduce.
//
// # Random Telemetry
//
//	rng := testutil.NewRNG(seed)
//	row := rng.ScalarRow(tslog.Int32, tslog.Float64, tslog.Bool)
//	vec := testutil.Vector[float32](rng, 64)
//	mat := testutil.Matrix[float64](rng, 3, 3)
package testutil
