package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsteam/cohortboard/core"
)

func Test_ParseStudentRows(t *testing.T) {
	tbl := core.Table{
		Columns: []string{"name", "course_id", "current_grade", "total_activity_time", "date", "email"},
		Rows: [][]string{
			{"Ada", "172", "82.5", "5400", "2025-08-01", "ada@example.com"},
			{"Grace", "172", "73", "", "2025-08-01", ""},
		},
	}

	rows, err := ParseStudentRows(tbl)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ada", rows[0].Name)
	assert.Equal(t, 82.5, rows[0].CurrentGrade)
	assert.Equal(t, 5400.0, rows[0].TotalActivity)
	assert.Equal(t, "ada@example.com", rows[0].Email)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Zero(t, rows[1].TotalActivity)
}

func Test_ParseStudentRows_invalid(t *testing.T) {
	_, err := ParseStudentRows(core.Table{Columns: []string{"name"}})
	assert.Error(t, err)

	_, err = ParseStudentRows(core.Table{
		Columns: []string{"name", "current_grade", "date"},
		Rows:    [][]string{{"Ada", "not-a-number", "2025-08-01"}},
	})
	assert.Error(t, err)
}

func Test_ParseAssignmentRows(t *testing.T) {
	tbl := core.Table{
		Columns: []string{"assign_id", "title", "user_id", "points_possible", "score", "due_at", "submitted_at"},
		Rows: [][]string{
			{"a1", "HW 1", "u1", "10", "9", "2025-08-05T23:59:00Z", "2025-08-04T10:00:00Z"},
			{"a2", "Syllabus", "u1", "", "", "", ""},
		},
	}

	rows, err := ParseAssignmentRows(tbl)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].PointsPossible)
	assert.Equal(t, 10.0, *rows[0].PointsPossible)
	require.NotNil(t, rows[0].SubmittedAt)
	assert.True(t, rows[0].SubmittedAt.Before(*rows[0].Due))

	// empty cells become nils, the "not submitted" marker
	assert.Nil(t, rows[1].PointsPossible)
	assert.Nil(t, rows[1].SubmittedAt)
	assert.Nil(t, rows[1].Due)
}

func rawAttendanceTable(topic string) core.Table {
	return core.Table{
		Columns: []string{"Meeting ID", "Topic", "Start time", "End time", "Duration (minutes)"},
		Rows: [][]string{
			{"", "", "", "", ""},
			{"9001", topic, "2025-08-07 08:00:00", "2025-08-07 09:00:00", "60"},
			{""},
			{"Name (Original Name)", "User Email", "Join Time", "Leave Time", "Duration (Minutes)"},
			{"Ada", "ada@example.com", "2025-08-07 08:01:12", "2025-08-07 08:56:40", "55"},
			{"Grace", "", "2025-08-07 08:05:03", "2025-08-07 08:56:40", "51"},
		},
	}
}

func Test_SessionTopic(t *testing.T) {
	assert.Equal(t, "Cohort A", SessionTopic(rawAttendanceTable("Cohort A")))
	assert.Equal(t, "", SessionTopic(core.Table{}))
}

func Test_ParseSession(t *testing.T) {
	fileDate := time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC)

	sess, err := ParseSession(rawAttendanceTable("Cohort A"), fileDate, 3, 1)
	require.NoError(t, err)

	assert.Equal(t, "Cohort A", sess.Topic)
	// exports are dated the day after the session
	assert.Equal(t, time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC), sess.Date)
	assert.Equal(t, 60.0, sess.DurationMin)

	require.Len(t, sess.Participants, 2)
	assert.Equal(t, "Ada", sess.Participants[0].Name)
	assert.Equal(t, 55.0, sess.Participants[0].DurationMin)
	assert.Equal(t, sess.Date, sess.Participants[0].SessionDate)
	require.NotNil(t, sess.Participants[0].JoinTime)
	assert.Equal(t, "Grace", sess.Participants[1].Name)
}

func Test_ParseSession_badOffset(t *testing.T) {
	fileDate := time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC)

	_, err := ParseSession(rawAttendanceTable("Cohort A"), fileDate, 42, 1)
	assert.Error(t, err)

	// a wrong offset landing on data rows is caught by the column check
	_, err = ParseSession(rawAttendanceTable("Cohort A"), fileDate, 1, 1)
	assert.Error(t, err)
}
