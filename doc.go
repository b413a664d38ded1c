// Package tslog writes self-describing binary telemetry logs.
//
// A Log appends three kinds of timestamped streams to a single file: scalar
// tuples of mixed primitive types, fixed-length numeric vectors, and
// fixed-shape numeric matrices. Every stream's schema is recorded inline as
// a metadata record before its first sample, so a file can be decoded with
// no external description (see the parser package).
//
// # Quick Start
//
//	log, err := tslog.Open("run.tslog")
//	if err != nil {
//		return err
//	}
//	defer log.Close()
//
//	pose, _ := log.AddScalarStream("pose", tslog.Float64, tslog.Float64, tslog.Bool)
//	pose.SetLabels("x", "y", "valid")
//	pose.Log(ts, 1.25, -0.5, true)
//
//	imu, _ := tslog.AddVectorStream[float32](log, "imu/accel", 3)
//	imu.Log(ts, num.VectorOf[float32](0.1, 9.8, 0.0))
//
//	cov, _ := tslog.AddMatrixStream[float64](log, "pose/cov", 3, 3)
//	cov.Log(ts, num.Identity[float64](3))
//
// # Encoding
//
// Records are framed by a one-byte marker (metadata, labels, data) followed
// by the stream id. Scalar values are written at their natural width with no
// padding; vector and matrix payloads are the containers' backing elements
// as raw bytes, row-major for matrices. Multi-byte values use the host byte
// order, so files are not portable across machines of different endianness.
// There is no file header: an empty log is an empty file.
//
// # Concurrency and Durability
//
// A Log is single-threaded: no locking, no buffering, no background work.
// Each record reaches the sink as one Write call. Durability is explicit via
// Sync (or WithSyncOnClose); write errors are fatal for the file.
package tslog
