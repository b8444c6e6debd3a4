package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dsteam/cohortboard/core"
)

// Student snapshot columns (canvas roster exports).
const (
	colName          = "name"
	colCourseID      = "course_id"
	colCurrentGrade  = "current_grade"
	colTotalActivity = "total_activity_time"
	colDate          = "date"
	colEmail         = "email" // optional; rows without it cannot be notified
)

// Assignment snapshot columns (canvas grade exports).
const (
	colAssignID       = "assign_id"
	colTitle          = "title"
	colUserID         = "user_id"
	colPointsPossible = "points_possible"
	colScore          = "score"
	colDueAt          = "due_at"
	colSubmittedAt    = "submitted_at"
)

// Attendance participant columns (zoom exports, below the header block).
const (
	colAttendeeName  = "Name (Original Name)"
	colAttendeeEmail = "User Email"
	colJoinTime      = "Join Time"
	colLeaveTime     = "Leave Time"
	colDurationMin   = "Duration (Minutes)"
)

// Attendance session metadata columns (row 1 of the raw export).
const (
	colTopic           = "Topic"
	colSessionStart    = "Start time"
	colSessionEnd      = "End time"
	colSessionDuration = "Duration (minutes)"
)

type (
	// StudentRow is one student on one snapshot date. Keyed by
	// (name, date); duplicates are possible when snapshots overlap.
	StudentRow struct {
		Name          string
		CourseID      string
		CurrentGrade  float64
		TotalActivity float64 // seconds
		Date          time.Time
		Email         string
	}

	// AssignmentRow is one (student, assignment) pair. A nil SubmittedAt
	// means not submitted; a nil PointsPossible marks an ungraded,
	// informational item.
	AssignmentRow struct {
		AssignmentID   string
		Title          string
		UserID         string
		PointsPossible *float64
		Score          *float64
		Due            *time.Time
		SubmittedAt    *time.Time
	}

	// AttendanceRow is one participant of one meeting session.
	AttendanceRow struct {
		Name        string
		Email       string
		JoinTime    *time.Time
		LeaveTime   *time.Time
		DurationMin float64
		SessionDate time.Time
	}

	// Session is one meeting export: the metadata block plus its
	// participant rows. Date is shifted back from the file date because
	// exports are dated the day after the session.
	Session struct {
		Topic        string
		Date         time.Time
		Start        string
		End          string
		DurationMin  float64
		Participants []AttendanceRow
	}
)

// timestamp layouts seen across export variants
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006 03:04:05 PM",
	core.DateFormat,
}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func parseFloatPtr(s string) *float64 {
	if f, ok := parseFloat(s); ok {
		return &f
	}
	return nil
}

// ParseStudentRows converts a student snapshot table into typed rows.
func ParseStudentRows(tbl core.Table) ([]StudentRow, error) {
	for _, col := range []string{colName, colCurrentGrade, colDate} {
		if !tbl.HasColumn(col) {
			return nil, errors.Errorf("student snapshot: missing column %q", col)
		}
	}
	rows := make([]StudentRow, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		grade, ok := parseFloat(tbl.Cell(i, colCurrentGrade))
		if !ok {
			return nil, errors.Errorf("student snapshot: row %d: bad grade %q", i, tbl.Cell(i, colCurrentGrade))
		}
		date, err := core.ParseDate(tbl.Cell(i, colDate))
		if err != nil {
			return nil, errors.Wrapf(err, "student snapshot: row %d", i)
		}
		activity, _ := parseFloat(tbl.Cell(i, colTotalActivity))
		rows = append(rows, StudentRow{
			Name:          tbl.Cell(i, colName),
			CourseID:      tbl.Cell(i, colCourseID),
			CurrentGrade:  grade,
			TotalActivity: activity,
			Date:          date,
			Email:         tbl.Cell(i, colEmail),
		})
	}
	return rows, nil
}

// ParseAssignmentRows converts a grade snapshot table into typed rows.
func ParseAssignmentRows(tbl core.Table) ([]AssignmentRow, error) {
	for _, col := range []string{colAssignID, colTitle, colUserID} {
		if !tbl.HasColumn(col) {
			return nil, errors.Errorf("grade snapshot: missing column %q", col)
		}
	}
	rows := make([]AssignmentRow, 0, len(tbl.Rows))
	for i := range tbl.Rows {
		rows = append(rows, AssignmentRow{
			AssignmentID:   tbl.Cell(i, colAssignID),
			Title:          tbl.Cell(i, colTitle),
			UserID:         tbl.Cell(i, colUserID),
			PointsPossible: parseFloatPtr(tbl.Cell(i, colPointsPossible)),
			Score:          parseFloatPtr(tbl.Cell(i, colScore)),
			Due:            parseTimestamp(tbl.Cell(i, colDueAt)),
			SubmittedAt:    parseTimestamp(tbl.Cell(i, colSubmittedAt)),
		})
	}
	return rows, nil
}

// SessionTopic reads the declared topic out of a raw attendance export,
// before any reshaping: the metadata block sits at row index 1.
func SessionTopic(raw core.Table) string {
	return core.CleanString(raw.Cell(1, colTopic))
}

// ParseSession converts a raw attendance export into a typed session.
// The participant block starts headerSkip rows below the top of the data,
// with its own column names on the row right after the offset; the session
// date is the file date shifted back dateShiftDays (exports are dated the
// day after the session ran).
func ParseSession(raw core.Table, fileDate time.Time, headerSkip, dateShiftDays int) (Session, error) {
	sess := Session{
		Topic: SessionTopic(raw),
		Date:  fileDate.AddDate(0, 0, -dateShiftDays),
		Start: raw.Cell(1, colSessionStart),
		End:   raw.Cell(1, colSessionEnd),
	}
	sess.DurationMin, _ = parseFloat(raw.Cell(1, colSessionDuration))

	block, err := raw.Reheader(headerSkip)
	if err != nil {
		return Session{}, errors.Wrap(err, "attendance export")
	}
	if !block.HasColumn(colAttendeeName) {
		return Session{}, errors.Errorf("attendance export: missing column %q", colAttendeeName)
	}
	for i := range block.Rows {
		dur, _ := parseFloat(block.Cell(i, colDurationMin))
		sess.Participants = append(sess.Participants, AttendanceRow{
			Name:        block.Cell(i, colAttendeeName),
			Email:       block.Cell(i, colAttendeeEmail),
			JoinTime:    parseTimestamp(block.Cell(i, colJoinTime)),
			LeaveTime:   parseTimestamp(block.Cell(i, colLeaveTime)),
			DurationMin: dur,
			SessionDate: sess.Date,
		})
	}
	return sess, nil
}
