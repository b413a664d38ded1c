package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/tslog/internal/fs"
)

// Dir is a Store backed by a local directory. Objects are regular files;
// nested names create subdirectories. Put is atomic: the object appears under
// its final name only after its bytes reached stable storage.
type Dir struct {
	fsys fs.FileSystem
	root string
}

// NewDir creates a Store rooted at dir, creating it if needed.
func NewDir(dir string) (*Dir, error) {
	d := &Dir{fsys: fs.Default, root: dir}
	if err := d.fsys.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("archive: create root %s: %w", dir, err)
	}
	return d, nil
}

// Put writes the object to a temp file, syncs it and renames it into place.
// A crash mid-put leaves at most a *.tmp file behind, never a truncated
// object under the final name.
func (d *Dir) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != d.root {
		if err := d.fsys.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("archive: put %s: %w", name, err)
		}
	}

	tmpPath := path + ".tmp"
	f, err := d.fsys.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", name, err)
	}

	n, err := io.Copy(f, r)
	if err == nil && size >= 0 && n != size {
		err = fmt.Errorf("short object: %d bytes, expected %d", n, size)
	}
	if err != nil {
		f.Close()
		d.fsys.Remove(tmpPath)
		return fmt.Errorf("archive: put %s: %w", name, err)
	}
	if err := fs.Datasync(f); err != nil {
		f.Close()
		d.fsys.Remove(tmpPath)
		return fmt.Errorf("archive: put %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		d.fsys.Remove(tmpPath)
		return fmt.Errorf("archive: put %s: %w", name, err)
	}

	if err := d.fsys.Rename(tmpPath, path); err != nil {
		d.fsys.Remove(tmpPath)
		return fmt.Errorf("archive: put %s: %w", name, err)
	}
	if err := d.syncDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("archive: put %s: %w", name, err)
	}
	return nil
}

// Open opens the object for reading.
func (d *Dir) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.path(name)
	if err != nil {
		return nil, err
	}
	f, err := d.fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archive: open %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("archive: open %s: %w", name, err)
	}
	return f, nil
}

// List returns the names of all objects under prefix, sorted. Temp files
// from interrupted puts are skipped.
func (d *Dir) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	err := d.walk("", func(name string) {
		if strings.HasPrefix(name, prefix) && !strings.HasSuffix(name, ".tmp") {
			names = append(names, name)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Remove deletes the object.
func (d *Dir) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := d.path(name)
	if err != nil {
		return err
	}
	if err := d.fsys.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("archive: remove %s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("archive: remove %s: %w", name, err)
	}
	return nil
}

// path resolves name below the root and rejects escapes like "../x".
func (d *Dir) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("archive: empty object name")
	}
	path := filepath.Join(d.root, filepath.FromSlash(name))
	if !strings.HasPrefix(path, filepath.Clean(d.root)+string(filepath.Separator)) {
		return "", fmt.Errorf("archive: object name %q escapes the store root", name)
	}
	return path, nil
}

func (d *Dir) walk(rel string, visit func(name string)) error {
	entries, err := d.fsys.ReadDir(filepath.Join(d.root, rel))
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if rel != "" {
			name = rel + "/" + name
		}
		if e.IsDir() {
			if err := d.walk(name, visit); err != nil {
				return err
			}
			continue
		}
		visit(name)
	}
	return nil
}

func (d *Dir) syncDir(dir string) error {
	f, err := d.fsys.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
