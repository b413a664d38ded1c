// Package archive moves finished telemetry files into longer-term storage.
//
// A [Store] holds immutable objects addressed by name. [Dir] keeps them in a
// local directory with atomic writes; the archive/s3 and archive/minio
// subpackages hold them in object storage. [Compressed] wraps any Store with
// transparent compression, and [UploadDir] drains a directory of finished
// logs into a Store concurrently.
//
// Stores never modify objects in place. A telemetry file is written locally,
// closed, and only then handed to a Store.
package archive

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for holding immutable archived telemetry files.
type Store interface {
	// Put stores the object under name. size is the number of bytes r will
	// yield, or -1 when unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Open opens the object for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns the names of objects starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Remove deletes the object. Filesystem stores report a missing name
	// with ErrNotFound; object stores may treat it as a no-op.
	Remove(ctx context.Context, name string) error
}
