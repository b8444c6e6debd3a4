package report

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrEmptyCohort = errors.New("cannot aggregate an empty cohort")
)

type (
	// Classified is one record after threshold bucketing.
	Classified struct {
		Name  string
		Label string
	}

	// CohortSlice is one bucket of a cohort aggregation: its share of all
	// records and the sorted member names for drill-down.
	CohortSlice struct {
		Label      string   `json:"label"`
		Proportion float64  `json:"proportion"`
		Members    []string `json:"members"`
	}

	// Metric is one keyed observation, the unit of the student joins.
	Metric struct {
		Key   string
		Name  string
		Value float64
		Date  time.Time
	}
)

// AggregateCohort groups classified records by label and computes each
// group's proportion of the total; proportions sum to 1 over the result.
// Slices come back ordered by descending proportion, ties broken by label,
// matching how the panels chart them.
func AggregateCohort(recs []Classified) ([]CohortSlice, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyCohort
	}

	groups := make(map[string][]string)
	for _, rec := range recs {
		groups[rec.Label] = append(groups[rec.Label], rec.Name)
	}

	total := float64(len(recs))
	out := make([]CohortSlice, 0, len(groups))
	for label, members := range groups {
		sort.Strings(members)
		out = append(out, CohortSlice{
			Label:      label,
			Proportion: float64(len(members)) / total,
			Members:    members,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Proportion != out[j].Proportion {
			return out[i].Proportion > out[j].Proportion
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// JoinStudentMetric inner-joins metric records against a roster: only
// metrics whose key appears in the roster survive, in input order.
// Unmatched metric rows are dropped silently; that data loss is inherent
// to the join and covered by tests, not patched over.
func JoinStudentMetric(metrics []Metric, rosterKeys []string) []Metric {
	keys := make(map[string]struct{}, len(rosterKeys))
	for _, k := range rosterKeys {
		keys[k] = struct{}{}
	}
	out := make([]Metric, 0, len(metrics))
	for _, m := range metrics {
		if _, ok := keys[m.Key]; ok {
			out = append(out, m)
		}
	}
	return out
}
