package report

// OnTimeRate computes, per student, the fraction of graded, due-dated
// assignments submitted at or before their deadline. Ungraded items
// (nil points possible), the attendance pseudo-assignment and items with
// no due date are excluded; students left with zero eligible assignments
// are omitted from the result rather than assigned zero.
func OnTimeRate(rows []AssignmentRow, attendanceTitle string) map[string]float64 {
	eligible := make(map[string]int)
	onTime := make(map[string]int)
	for _, row := range rows {
		if row.PointsPossible == nil || row.Title == attendanceTitle || row.Due == nil {
			continue
		}
		eligible[row.UserID]++
		if row.SubmittedAt != nil && !row.SubmittedAt.After(*row.Due) {
			onTime[row.UserID]++
		}
	}

	rates := make(map[string]float64, len(eligible))
	for userID, n := range eligible {
		rates[userID] = float64(onTime[userID]) / float64(n)
	}
	return rates
}

// MissingAssignments counts, per student, graded assignments that were
// never submitted. The attendance pseudo-assignment does not count.
func MissingAssignments(rows []AssignmentRow, attendanceTitle string) map[string]int {
	missing := make(map[string]int)
	for _, row := range rows {
		if row.PointsPossible == nil || row.Title == attendanceTitle {
			continue
		}
		if _, ok := missing[row.UserID]; !ok {
			missing[row.UserID] = 0
		}
		if row.SubmittedAt == nil {
			missing[row.UserID]++
		}
	}
	return missing
}
