package dummystore

import (
	"context"
	"path"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/dsteam/cohortboard/core"
)

// Storage is an in-memory core.Storage; for tests.
type Storage struct {
	mu     sync.Mutex
	tables map[string]core.Table

	// ReadCounts tallies ReadTable calls per path; lets cache tests
	// assert hits vs fetches.
	ReadCounts map[string]int
}

var _ core.Storage = (*Storage)(nil)

func New() *Storage {
	return &Storage{
		tables:     make(map[string]core.Table),
		ReadCounts: make(map[string]int),
	}
}

func (s *Storage) Put(p string, tbl core.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[p] = tbl
}

func (s *Storage) ListTree(ctx context.Context, root string) ([]core.TreeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDir := make(map[string][]string)
	for p := range s.tables {
		dir := path.Dir(p)
		if dir != root && !underRoot(dir, root) {
			continue
		}
		byDir[dir] = append(byDir[dir], path.Base(p))
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
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ReadCounts[p]++
	tbl, ok := s.tables[p]
	if !ok {
		return core.Table{}, errors.Errorf("no such object %q", p)
	}
	return tbl, nil
}

func underRoot(dir, root string) bool {
	for dir != "." && dir != "/" && dir != "" {
		if dir == root {
			return true
		}
		dir = path.Dir(dir)
	}
	return false
}
