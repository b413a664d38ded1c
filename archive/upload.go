package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// UploadOptions configures UploadDir.
type UploadOptions struct {
	// Concurrency bounds the number of parallel uploads.
	Concurrency int

	// Pattern is a filepath.Match glob applied to file names. Files that do
	// not match are skipped.
	Pattern string

	// Limiter paces uploads when set. One token is taken per file, so a
	// limiter of rate.Every(time.Second) archives at most one file a second.
	Limiter *rate.Limiter

	// Logger receives a debug line per uploaded file.
	Logger *slog.Logger
}

// DefaultUploadOptions returns the defaults used by UploadDir.
var DefaultUploadOptions = UploadOptions{
	Concurrency: 4,
	Pattern:     "*",
}

// UploadDir copies every regular file in dir into store, named by its base
// name. Files ending in .tmp are always skipped. It returns the number of
// files uploaded; on error the count covers the uploads that completed before
// the failure.
func UploadDir(ctx context.Context, store Store, dir string, optFns ...func(o *UploadOptions)) (int, error) {
	opts := DefaultUploadOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("archive: read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) == ".tmp" {
			continue
		}
		ok, err := filepath.Match(opts.Pattern, e.Name())
		if err != nil {
			return 0, fmt.Errorf("archive: pattern %q: %w", opts.Pattern, err)
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var uploaded atomic.Int64
	sem := semaphore.NewWeighted(int64(opts.Concurrency))
	g, ctx := errgroup.WithContext(ctx)

	for _, name := range names {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			if opts.Limiter != nil {
				if err := opts.Limiter.Wait(ctx); err != nil {
					return err
				}
			}

			start := time.Now()
			if err := uploadFile(ctx, store, dir, name); err != nil {
				return err
			}
			uploaded.Add(1)
			opts.Logger.Debug("file archived",
				"name", name,
				"duration", time.Since(start),
			)
			return nil
		})
	}

	err = g.Wait()
	return int(uploaded.Load()), err
}

func uploadFile(ctx context.Context, store Store, dir, name string) error {
	f, err := os.Open(filepath.Join(dir, name)) //nolint:gosec // G304: name comes from ReadDir
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archive: stat %s: %w", name, err)
	}
	return store.Put(ctx, name, f, info.Size())
}
