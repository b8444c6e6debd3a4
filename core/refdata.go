package core

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// CourseRegistry maps a numeric course id string to the canonical
	// display name used for attendance topic cross-checks.
	CourseRegistry map[string]string

	// Tier is one (inclusive lower bound, label) pair of a threshold table.
	Tier struct {
		Bound float64
		Label string
	}

	// ThresholdTable is an ordered list of tiers, descending by bound.
	// The final tier is the catch-all with bound -Inf, so every value maps
	// to exactly one label.
	ThresholdTable []Tier

	Thresholds struct {
		Grade      ThresholdTable
		Attendance ThresholdTable
		OnTime     ThresholdTable
	}

	// RefData is the externally supplied course registry plus threshold
	// tables. Boundary values differ across report variants, so they are
	// configuration, never hardcoded.
	RefData struct {
		Courses    CourseRegistry
		Thresholds Thresholds
	}
)

// Name returns the canonical display name for a course id.
func (r CourseRegistry) Name(id string) (string, bool) {
	name, ok := r[id]
	return name, ok
}

// Label classifies a value: the label of the first tier whose bound the
// value meets or exceeds. Boundary values map to the upper tier.
func (t ThresholdTable) Label(value float64) string {
	for _, tier := range t {
		if value >= tier.Bound {
			return tier.Label
		}
	}
	// unreachable once Validate has passed; the catch-all bound is -Inf
	return t[len(t)-1].Label
}

func (t ThresholdTable) Validate() error {
	if len(t) == 0 {
		return errors.New("threshold table is empty")
	}
	for i, tier := range t {
		if tier.Label == "" {
			return errors.Errorf("tier %d has no label", i)
		}
		if i > 0 && tier.Bound >= t[i-1].Bound {
			return errors.Errorf("tier bounds not strictly descending at %d", i)
		}
	}
	if last := t[len(t)-1]; !math.IsInf(last.Bound, -1) {
		return errors.New("last tier must be the catch-all")
	}
	return nil
}

// yaml file shapes; a tier without a bound is the catch-all.
type (
	refDataFile struct {
		Courses    map[string]string        `yaml:"courses"`
		Thresholds map[string][]tierElement `yaml:"thresholds"`
	}

	tierElement struct {
		Bound *float64 `yaml:"bound"`
		Label string   `yaml:"label"`
	}
)

// LoadRefData reads the course registry and threshold tables from a YAML file.
func LoadRefData(path string) (RefData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RefData{}, errors.Wrapf(err, "reading %s", path)
	}
	return ParseRefData(raw)
}

func ParseRefData(raw []byte) (RefData, error) {
	var file refDataFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return RefData{}, errors.Wrap(err, "parsing ref data")
	}
	if len(file.Courses) == 0 {
		return RefData{}, errors.New("ref data: no courses")
	}

	rd := RefData{Courses: file.Courses}
	for key, dst := range map[string]*ThresholdTable{
		"grade":      &rd.Thresholds.Grade,
		"attendance": &rd.Thresholds.Attendance,
		"on_time":    &rd.Thresholds.OnTime,
	} {
		elems, ok := file.Thresholds[key]
		if !ok {
			return RefData{}, errors.Errorf("ref data: missing %q threshold table", key)
		}
		table := make(ThresholdTable, 0, len(elems))
		for _, el := range elems {
			bound := math.Inf(-1)
			if el.Bound != nil {
				bound = *el.Bound
			}
			table = append(table, Tier{Bound: bound, Label: el.Label})
		}
		if err := table.Validate(); err != nil {
			return RefData{}, errors.Wrapf(err, "ref data: %q threshold table", key)
		}
		*dst = table
	}
	return rd, nil
}
