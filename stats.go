package tslog

// Stats is a snapshot of a Log's write counters. The counters are plain
// fields updated on the single writer path; reading them from another
// goroutine requires the same external synchronization as the Log itself.
type Stats struct {
	// Streams is the number of declared streams.
	Streams int

	// Records is the number of data records written. Metadata and labels
	// records are not counted.
	Records uint64

	// BytesWritten is the total number of bytes handed to the sink,
	// including metadata and labels records.
	BytesWritten uint64
}

// Stats returns a snapshot of the current counters.
func (l *Log) Stats() Stats {
	return l.stats
}
