package archive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the codec a Compressed store applies to objects.
type Compression int

const (
	// None stores objects verbatim.
	None Compression = iota
	// Zstd trades a little write speed for the best ratio on telemetry data.
	Zstd
	// LZ4 favors throughput over ratio.
	LZ4
)

// Ext returns the object name suffix of the codec.
func (c Compression) Ext() string {
	switch c {
	case Zstd:
		return ".zst"
	case LZ4:
		return ".lz4"
	default:
		return ""
	}
}

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// Compressed wraps inner so objects are stored compressed under their name
// plus the codec extension. Callers keep using logical names; the wrapper
// maps "run.log" to "run.log.zst" on the way in and back on the way out.
// The telemetry file format itself stays untouched.
func Compressed(inner Store, c Compression) Store {
	if c == None {
		return inner
	}
	return &compressedStore{inner: inner, codec: c}
}

type compressedStore struct {
	inner Store
	codec Compression
}

func (s *compressedStore) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	pr, pw := io.Pipe()
	done := make(chan error, 1)

	go func() {
		err := s.compress(pw, r)
		pw.CloseWithError(err)
		done <- err
	}()

	// Compressed size is unknown up front.
	putErr := s.inner.Put(ctx, name+s.codec.Ext(), pr, -1)
	pr.CloseWithError(nil) // unblock the encoder if Put bailed early
	encErr := <-done

	if putErr != nil {
		return putErr
	}
	if encErr != nil {
		return fmt.Errorf("archive: compress %s: %w", name, encErr)
	}
	return nil
}

func (s *compressedStore) compress(w io.Writer, r io.Reader) error {
	switch s.codec {
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := io.Copy(enc, r); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	case LZ4:
		enc := lz4.NewWriter(w)
		if _, err := io.Copy(enc, r); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown codec %d", s.codec)
	}
}

func (s *compressedStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	src, err := s.inner.Open(ctx, name+s.codec.Ext())
	if err != nil {
		return nil, err
	}

	switch s.codec {
	case Zstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("archive: decompress %s: %w", name, err)
		}
		return &zstdReadCloser{dec: dec, src: src}, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(src), Closer: src}, nil
	default:
		src.Close()
		return nil, fmt.Errorf("archive: unknown codec %d", s.codec)
	}
}

// List reports the logical names of objects carrying the codec extension.
// Objects stored by other codecs are not visible through the wrapper.
func (s *compressedStore) List(ctx context.Context, prefix string) ([]string, error) {
	stored, err := s.inner.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	ext := s.codec.Ext()
	names := stored[:0]
	for _, name := range stored {
		if strings.HasSuffix(name, ext) {
			names = append(names, strings.TrimSuffix(name, ext))
		}
	}
	return names, nil
}

func (s *compressedStore) Remove(ctx context.Context, name string) error {
	return s.inner.Remove(ctx, name+s.codec.Ext())
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	src io.ReadCloser
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.src.Close()
}

type readCloser struct {
	io.Reader
	io.Closer
}
