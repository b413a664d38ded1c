package parser

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/tslog"
)

// Series collects everything a file holds for one stream.
type Series struct {
	Info   *StreamInfo
	Labels []string // nil until a labels record arrives

	// Times and Samples grow in lockstep, one entry per data record.
	// A sample is a []any of exact Go values for scalar streams and a typed
	// flat slice for vector and matrix streams.
	Times   []uint64
	Samples []any
}

// Len returns the number of data records decoded for the stream.
func (s *Series) Len() int { return len(s.Times) }

// File is a fully decoded telemetry file with streams in declaration order.
type File struct {
	Streams []*Series

	byID map[tslog.StreamID]*Series
}

// Stream returns the series declared under name, or nil.
func (f *File) Stream(name string) *Series {
	for _, s := range f.Streams {
		if s.Info.Name == name {
			return s
		}
	}
	return nil
}

// ReadAll decodes every record from r into a File.
func ReadAll(r io.Reader, optFns ...func(o *Options)) (*File, error) {
	d := NewDecoder(r, optFns...)
	f := &File{byID: make(map[tslog.StreamID]*Series)}

	for {
		rec, err := d.Next()
		if errors.Is(err, io.EOF) {
			return f, nil
		}
		if err != nil {
			return nil, err
		}

		switch rec := rec.(type) {
		case *StreamInfo:
			s := &Series{Info: rec}
			f.Streams = append(f.Streams, s)
			f.byID[rec.ID] = s
		case *Labels:
			f.byID[rec.StreamID].Labels = rec.Labels
		case *Sample:
			s := f.byID[rec.StreamID]
			s.Times = append(s.Times, rec.Timestamp)
			if rec.Values != nil {
				s.Samples = append(s.Samples, rec.Values)
			} else {
				s.Samples = append(s.Samples, rec.Data)
			}
		}
	}
}

// ReadFile decodes the telemetry file at path.
func ReadFile(path string, optFns ...func(o *Options)) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is configurable
	if err != nil {
		return nil, fmt.Errorf("tslog/parser: open %s: %w", path, err)
	}
	defer f.Close()

	file, err := ReadAll(f, optFns...)
	if err != nil {
		return nil, fmt.Errorf("tslog/parser: read %s: %w", path, err)
	}
	return file, nil
}
