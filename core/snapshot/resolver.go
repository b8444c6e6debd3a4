package snapshot

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/dsteam/cohortboard/core"
)

var (
	// errors
	ErrNoMatchingSnapshots    = errors.New("no snapshots match the given date range")
	ErrNoSnapshotBeforeCutoff = errors.New("no snapshot at or before the cutoff date")
	ErrCourseMismatch         = errors.New("no snapshot matches the expected course")
)

// CourseFilterMode selects how a course filter is applied. The two modes
// are not interchangeable: callers must know which one a given source
// directory supports.
type CourseFilterMode int

const (
	FilterNone CourseFilterMode = iota
	// FilterByName matches the course id embedded in the filename.
	FilterByName
	// FilterByColumn filters rows post-load on the course id column.
	FilterByColumn
)

const defaultCourseColumn = "course_id"

type (
	// Options tune a single resolution.
	Options struct {
		Course       string
		FilterMode   CourseFilterMode
		CourseColumn string // FilterByColumn; defaults to "course_id"

		// Strict makes a non-matching filename an error instead of
		// skipping it; use it for curated trees where every listed name is
		// expected to match.
		Strict bool

		TTL time.Duration

		// Accept, when set, vets each loaded table before it is included
		// (e.g. the attendance session-topic cross-check). Rejected
		// candidates are skipped, never errors.
		Accept func(core.Table) bool
	}

	// Snapshot is one dated export file, loaded.
	Snapshot struct {
		Path     string
		Name     string
		CourseID string // empty for date-only patterns
		Date     time.Time
		Table    core.Table
	}

	// Resolver locates snapshot files in a storage tree by the date
	// embedded in their filenames.
	Resolver struct {
		store core.Storage
		log   core.Logger
	}

	candidate struct {
		path     string
		name     string
		courseID string
		date     time.Time
	}
)

func NewResolver(store core.Storage, log core.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// ResolveRange walks the tree once and loads every snapshot whose embedded
// date falls within [start, end], inclusive. Result order is traversal
// order, not date order; callers needing chronology must sort.
// Returns ErrNoMatchingSnapshots when nothing qualifies.
func (r *Resolver) ResolveRange(ctx context.Context, root string, p Pattern, start, end time.Time, opts Options) ([]Snapshot, error) {
	inRange := func(d time.Time) bool { return !d.Before(start) && !d.After(end) }
	cands, err := r.walk(ctx, root, p, opts, inRange)
	if err != nil {
		return nil, err
	}

	var out []Snapshot
	for _, c := range cands {
		snap, ok, err := r.load(ctx, c, opts)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, snap)
	}
	if len(out) == 0 {
		return nil, ErrNoMatchingSnapshots
	}
	return out, nil
}

// ResolveLatest returns the snapshot with the maximum date at or before
// the cutoff; on a date tie the first encountered in traversal order wins.
// Only winning candidates are loaded. When Options.Accept rejects the
// newest candidate the search degrades to the next-earlier date; if every
// candidate is rejected the result is ErrCourseMismatch.
// Returns ErrNoSnapshotBeforeCutoff when no file has a qualifying date.
func (r *Resolver) ResolveLatest(ctx context.Context, root string, p Pattern, cutoff time.Time, opts Options) (Snapshot, error) {
	cands, err := r.walk(ctx, root, p, opts, func(d time.Time) bool { return !d.After(cutoff) })
	if err != nil {
		return Snapshot{}, err
	}
	if len(cands) == 0 {
		return Snapshot{}, ErrNoSnapshotBeforeCutoff
	}

	// strictly-greater comparison: ties keep the earlier traversal slot
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].date.After(cands[j].date) })

	if opts.Accept == nil {
		cands = cands[:1]
	}
	for _, c := range cands {
		snap, ok, err := r.load(ctx, c, opts)
		if err != nil {
			return Snapshot{}, err
		}
		if ok {
			return snap, nil
		}
		r.log.Debug("snapshot rejected, degrading to an older candidate", map[string]interface{}{"path": c.path})
	}
	return Snapshot{}, ErrCourseMismatch
}

// walk lists the tree once and collects name-qualified candidates whose
// date satisfies the predicate.
func (r *Resolver) walk(ctx context.Context, root string, p Pattern, opts Options, datePred func(time.Time) bool) ([]candidate, error) {
	tree, err := r.store.ListTree(ctx, root)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", root)
	}

	var cands []candidate
	for _, entry := range tree {
		for _, name := range entry.Filenames {
			cid, date, err := p.Parse(name)
			if err != nil {
				if opts.Strict {
					return nil, err
				}
				continue // lenient: the directory may contain unrelated files
			}
			if opts.FilterMode == FilterByName && !sameCourseID(cid, opts.Course) {
				continue
			}
			if !datePred(date) {
				continue
			}
			cands = append(cands, candidate{
				path:     entry.Dir + "/" + name,
				name:     name,
				courseID: cid,
				date:     date,
			})
		}
	}
	return cands, nil
}

// load reads a candidate and applies post-load vetting and filtering.
// ok is false when the Accept hook rejects the table.
func (r *Resolver) load(ctx context.Context, c candidate, opts Options) (Snapshot, bool, error) {
	tbl, err := r.store.ReadTable(ctx, c.path, core.ReadOptions{Format: core.FormatCSV, TTL: opts.TTL})
	if err != nil {
		return Snapshot{}, false, errors.Wrapf(err, "reading %s", c.path)
	}
	if opts.Accept != nil && !opts.Accept(tbl) {
		return Snapshot{}, false, nil
	}
	if opts.FilterMode == FilterByColumn {
		tbl = filterByColumn(tbl, opts.courseColumn(), opts.Course)
	}
	return Snapshot{Path: c.path, Name: c.name, CourseID: c.courseID, Date: c.date, Table: tbl}, true, nil
}

func (o Options) courseColumn() string {
	if o.CourseColumn != "" {
		return o.CourseColumn
	}
	return defaultCourseColumn
}

// filterByColumn keeps rows whose course column equals the expected id,
// compared as integers after parsing. Unparseable cells never match.
func filterByColumn(tbl core.Table, col, courseID string) core.Table {
	rows := make([][]string, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		if sameCourseID(tbl.Cell(i, col), courseID) {
			rows = append(rows, tbl.Rows[i])
		}
	}
	return core.Table{Columns: tbl.Columns, Rows: rows}
}

func sameCourseID(a, b string) bool {
	ai, err := strconv.Atoi(a)
	if err != nil {
		return false
	}
	bi, err := strconv.Atoi(b)
	if err != nil {
		return false
	}
	return ai == bi
}
