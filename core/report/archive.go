package report

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrReportNotFound = errors.New("report not found")
)

type (
	// IPPEntry is one student of a persisted IPP report, with the panels
	// that put them there.
	IPPEntry struct {
		Student string   `json:"student"`
		Reasons []string `json:"reasons"`
	}

	// IPPReport is one generated individual-progress-plan report run.
	IPPReport struct {
		ID          string     `json:"id"`
		CourseID    string     `json:"course_id"`
		CourseName  string     `json:"course_name"`
		Start       time.Time  `json:"start"`
		End         time.Time  `json:"end"`
		GeneratedAt time.Time  `json:"generated_at"`
		Entries     []IPPEntry `json:"entries"`
	}

	// ArchiveRepository persists generated report runs.
	ArchiveRepository interface {
		SaveReport(ctx context.Context, rpt IPPReport) error
		GetReport(ctx context.Context, id string) (IPPReport, error)
		QueryAllReports(ctx context.Context) ([]IPPReport, error)
	}
)
