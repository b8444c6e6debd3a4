package snapshot

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dsteam/cohortboard/core"
)

// Filename conventions for snapshot trees (bit-exact):
// date-only sources name files `YYYY-MM-DD.csv`, course-scoped sources
// `<course_id>_YYYY-MM-DD.csv` with a decimal course id of 3+ digits.
var (
	dateOnlyRegex   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.csv$`)
	courseDateRegex = regexp.MustCompile(`^(\d{3,})_(\d{4}-\d{2}-\d{2})\.csv$`)

	DateOnlyPattern   = Pattern{re: dateOnlyRegex}
	CourseDatePattern = Pattern{re: courseDateRegex, hasCourse: true}
)

// Pattern extracts the embedded calendar date (and course id, when
// present) from a snapshot filename.
type Pattern struct {
	re        *regexp.Regexp
	hasCourse bool
}

// MalformedFilenameError reports a filename that does not match the
// expected pattern in a tree whose names are all expected to match.
type MalformedFilenameError struct {
	Name string
}

func (e *MalformedFilenameError) Error() string {
	return fmt.Sprintf("malformed snapshot filename %q", e.Name)
}

// Parse extracts the course id (empty for date-only patterns) and date
// from a filename. A non-matching name yields a *MalformedFilenameError.
func (p Pattern) Parse(name string) (courseID string, date time.Time, err error) {
	m := p.re.FindStringSubmatch(name)
	if m == nil {
		return "", time.Time{}, &MalformedFilenameError{Name: name}
	}
	datestr := m[1]
	if p.hasCourse {
		courseID = m[1]
		datestr = m[2]
	}
	date, err = core.ParseDate(datestr)
	if err != nil {
		// matched the shape but not a real calendar date, e.g. 2025-13-40
		return "", time.Time{}, &MalformedFilenameError{Name: name}
	}
	return courseID, date, nil
}

// HasCourse reports whether filenames carry a course id prefix.
func (p Pattern) HasCourse() bool {
	return p.hasCourse
}
