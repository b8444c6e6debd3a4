package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/dsteam/cohortboard/core/report"
)

type reportRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	CourseName  string    `db:"course_name"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	GeneratedAt time.Time `db:"generated_at"`
	Entries     []byte    `db:"entries"`
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.ArchiveRepository = (*reportRepository)(nil)

func NewReportRepository(db *sqlx.DB) report.ArchiveRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) SaveReport(ctx context.Context, rpt report.IPPReport) error {
	entries, err := json.Marshal(rpt.Entries)
	if err != nil {
		return errors.Wrap(err, "encoding entries")
	}
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO ipp_report (id, course_id, course_name, start_date, end_date, generated_at, entries)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rpt.ID, rpt.CourseID, rpt.CourseName, rpt.Start, rpt.End, rpt.GeneratedAt, entries,
	)
	return errors.Wrap(err, "inserting report")
}

func (repo *reportRepository) GetReport(ctx context.Context, id string) (report.IPPReport, error) {
	var row reportRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, course_id, course_name, start_date, end_date, generated_at, entries
		 FROM ipp_report WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return report.IPPReport{}, report.ErrReportNotFound
	}
	if err != nil {
		return report.IPPReport{}, errors.Wrap(err, "querying report")
	}
	return row.toReport()
}

func (repo *reportRepository) QueryAllReports(ctx context.Context) ([]report.IPPReport, error) {
	var rows []reportRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, course_id, course_name, start_date, end_date, generated_at, entries
		 FROM ipp_report ORDER BY generated_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying reports")
	}

	rpts := make([]report.IPPReport, 0, len(rows))
	for _, row := range rows {
		rpt, err := row.toReport()
		if err != nil {
			return nil, err
		}
		rpts = append(rpts, rpt)
	}
	return rpts, nil
}

func (row reportRow) toReport() (report.IPPReport, error) {
	rpt := report.IPPReport{
		ID:          row.ID,
		CourseID:    row.CourseID,
		CourseName:  row.CourseName,
		Start:       row.StartDate,
		End:         row.EndDate,
		GeneratedAt: row.GeneratedAt,
	}
	if err := json.Unmarshal(row.Entries, &rpt.Entries); err != nil {
		return report.IPPReport{}, errors.Wrap(err, "decoding entries")
	}
	return rpt, nil
}
