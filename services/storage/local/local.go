package localstore

import (
	"context"
	"encoding/csv"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/dsteam/cohortboard/core"
)

// Storage serves snapshot trees from a local directory, typically a
// mounted bucket path. Paths handed back by ListTree are logical
// (base-relative, forward slashes) and round-trip through ReadTable.
type Storage struct {
	base string
}

var _ core.Storage = (*Storage)(nil)

func NewStorage(base string) *Storage {
	return &Storage{base: base}
}

func (s *Storage) ListTree(ctx context.Context, root string) ([]core.TreeEntry, error) {
	byDir := make(map[string][]string)
	start := filepath.Join(s.base, filepath.FromSlash(root))
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.base, filepath.Dir(p))
		if err != nil {
			return err
		}
		dir := filepath.ToSlash(rel)
		byDir[dir] = append(byDir[dir], d.Name())
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	entries := make([]core.TreeEntry, 0, len(dirs))
	for _, dir := range dirs {
		names := byDir[dir]
		sort.Strings(names)
		entries = append(entries, core.TreeEntry{Dir: dir, Filenames: names})
	}
	return entries, nil
}

func (s *Storage) ReadTable(ctx context.Context, p string, opts core.ReadOptions) (core.Table, error) {
	if opts.Format != core.FormatCSV {
		return core.Table{}, errors.Errorf("unsupported format %q", opts.Format)
	}
	f, err := os.Open(filepath.Join(s.base, filepath.FromSlash(path.Clean(p))))
	if err != nil {
		return core.Table{}, errors.Wrapf(err, "opening %s", p)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // meeting exports have ragged header blocks
	records, err := r.ReadAll()
	if err != nil {
		return core.Table{}, errors.Wrapf(err, "reading %s", p)
	}
	if len(records) == 0 {
		return core.Table{}, nil
	}
	return core.Table{Columns: records[0], Rows: records[1:]}, nil
}
