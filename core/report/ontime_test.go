package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rollCall = "Roll Call Attendance"

func ts(t *testing.T, s string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return &parsed
}

func pts(v float64) *float64 { return &v }

func Test_OnTimeRate(t *testing.T) {
	due := ts(t, "2025-08-05T23:59:00Z")
	rows := []AssignmentRow{
		// u1: one on time, one late, one never submitted -> 1/3
		{UserID: "u1", Title: "HW 1", PointsPossible: pts(10), Due: due, SubmittedAt: ts(t, "2025-08-04T10:00:00Z")},
		{UserID: "u1", Title: "HW 2", PointsPossible: pts(10), Due: due, SubmittedAt: ts(t, "2025-08-06T10:00:00Z")},
		{UserID: "u1", Title: "HW 3", PointsPossible: pts(10), Due: due},
		// u2: submitted exactly at the deadline counts as on time -> 1/1
		{UserID: "u2", Title: "HW 1", PointsPossible: pts(10), Due: due, SubmittedAt: due},
		// excluded: ungraded item, attendance pseudo-assignment, no due date
		{UserID: "u3", Title: "Syllabus", Due: due, SubmittedAt: ts(t, "2025-08-01T10:00:00Z")},
		{UserID: "u3", Title: rollCall, PointsPossible: pts(100), Due: due, SubmittedAt: ts(t, "2025-08-01T10:00:00Z")},
		{UserID: "u3", Title: "Survey", PointsPossible: pts(5)},
	}

	rates := OnTimeRate(rows, rollCall)
	require.Len(t, rates, 2)
	assert.InDelta(t, 1.0/3.0, rates["u1"], 1e-9)
	assert.InDelta(t, 1.0, rates["u2"], 1e-9)

	// u3 has zero eligible assignments: omitted, not zero
	_, ok := rates["u3"]
	assert.False(t, ok)
}

func Test_MissingAssignments(t *testing.T) {
	due := ts(t, "2025-08-05T23:59:00Z")
	rows := []AssignmentRow{
		{UserID: "u1", Title: "HW 1", PointsPossible: pts(10), Due: due, SubmittedAt: ts(t, "2025-08-04T10:00:00Z")},
		{UserID: "u1", Title: "HW 2", PointsPossible: pts(10), Due: due},
		{UserID: "u1", Title: "HW 3", PointsPossible: pts(10)},
		{UserID: "u2", Title: "HW 1", PointsPossible: pts(10), Due: due, SubmittedAt: ts(t, "2025-08-04T10:00:00Z")},
		{UserID: "u2", Title: rollCall, PointsPossible: pts(100)},
	}

	missing := MissingAssignments(rows, rollCall)
	require.Len(t, missing, 2)
	assert.Equal(t, 2, missing["u1"])
	assert.Equal(t, 0, missing["u2"]) // present with zero, not absent
}
