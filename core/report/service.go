package report

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/dsteam/cohortboard/core"
	"github.com/dsteam/cohortboard/core/snapshot"
)

var errUnknownCourse = errors.New("unknown course id")

type (
	// Filter is the user-adjustable scope of one report generation.
	Filter struct {
		Course string
		Start  time.Time
		End    time.Time
	}

	// Panel is one chartable cohort breakdown.
	Panel struct {
		Title  string        `json:"title"`
		Filter Filter        `json:"-"`
		Slices []CohortSlice `json:"slices"`
	}

	SeriesPoint struct {
		Date  time.Time `json:"date"`
		Grade float64   `json:"grade"`
	}

	// StudentSeries is one student's grade progression plus entity-level
	// outlier flags.
	StudentSeries struct {
		Name            string        `json:"name"`
		Points          []SeriesPoint `json:"points"`
		GradeOutlier    bool          `json:"grade_outlier"`
		ActivityOutlier bool          `json:"activity_outlier"`
	}

	// Service resolves snapshots and aggregates them into panels.
	// Stateless; one instance serves all requests.
	Service struct {
		conf     *core.Config
		refData  core.RefData
		resolver *snapshot.Resolver
		archive  ArchiveRepository
		mailSvc  core.EmailService
		log      core.Logger
	}
)

func NewService(
	conf *core.Config,
	refData core.RefData,
	resolver *snapshot.Resolver,
	archive ArchiveRepository,
	mailSvc core.EmailService,
	log core.Logger,
) *Service {
	return &Service{
		conf:     conf,
		refData:  refData,
		resolver: resolver,
		archive:  archive,
		mailSvc:  mailSvc,
		log:      log,
	}
}

func (svc *Service) courseName(id string) (string, error) {
	name, ok := svc.refData.Courses.Name(id)
	if !ok {
		return "", core.NewValidationError(errUnknownCourse, core.FieldError{Field: "course", Error: errUnknownCourse.Error()})
	}
	return name, nil
}

// loadStudents resolves every student snapshot in the filter range and
// concatenates their rows. The student tree is curated: names are
// guaranteed to match, so resolution is strict.
func (svc *Service) loadStudents(ctx context.Context, f Filter) ([]StudentRow, error) {
	src := svc.conf.Storage.Students
	snaps, err := svc.resolver.ResolveRange(ctx, src.Root, snapshot.CourseDatePattern, f.Start, f.End, snapshot.Options{
		Course:     f.Course,
		FilterMode: snapshot.FilterByName,
		Strict:     true,
		TTL:        src.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	var rows []StudentRow
	for _, snap := range snaps {
		parsed, err := ParseStudentRows(snap.Table)
		if err != nil {
			return nil, errors.Wrap(err, snap.Path)
		}
		rows = append(rows, parsed...)
	}
	return rows, nil
}

// latestAssignments resolves the single most recent grade snapshot at or
// before the filter's end date. Grade snapshots are course-scoped by a
// row filter, not by filename.
func (svc *Service) latestAssignments(ctx context.Context, f Filter) ([]AssignmentRow, error) {
	src := svc.conf.Storage.Grades
	snap, err := svc.resolver.ResolveLatest(ctx, src.Root, snapshot.CourseDatePattern, f.End, snapshot.Options{
		Course:     f.Course,
		FilterMode: snapshot.FilterByColumn,
		Strict:     true,
		TTL:        src.CacheTTL,
	})
	if err != nil {
		return nil, err
	}
	rows, err := ParseAssignmentRows(snap.Table)
	if err != nil {
		return nil, errors.Wrap(err, snap.Path)
	}
	return rows, nil
}

// latestRows keeps only the rows carrying the maximum snapshot date.
func latestRows(rows []StudentRow) []StudentRow {
	var max time.Time
	for _, r := range rows {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	var out []StudentRow
	for _, r := range rows {
		if r.Date.Equal(max) {
			out = append(out, r)
		}
	}
	return out
}

// GradePanel buckets the latest in-range grades into cohorts.
func (svc *Service) GradePanel(ctx context.Context, f Filter) (Panel, error) {
	if _, err := svc.courseName(f.Course); err != nil {
		return Panel{}, err
	}
	students, err := svc.loadStudents(ctx, f)
	if err != nil {
		return Panel{}, err
	}

	latest := latestRows(students)
	recs := make([]Classified, 0, len(latest))
	for _, s := range latest {
		recs = append(recs, Classified{Name: s.Name, Label: svc.refData.Thresholds.Grade.Label(s.CurrentGrade)})
	}
	slices, err := AggregateCohort(recs)
	if err != nil {
		return Panel{}, err
	}
	return Panel{Title: "GPA", Filter: f, Slices: slices}, nil
}

// AttendanceScorePanel buckets attendance-score pseudo-assignment rows of
// the latest grade snapshot into cohorts.
func (svc *Service) AttendanceScorePanel(ctx context.Context, f Filter) (Panel, error) {
	if _, err := svc.courseName(f.Course); err != nil {
		return Panel{}, err
	}
	rows, err := svc.latestAssignments(ctx, f)
	if err != nil {
		return Panel{}, err
	}

	var recs []Classified
	for _, row := range rows {
		if row.Title != svc.conf.AttendanceAssignment || row.Score == nil {
			continue
		}
		recs = append(recs, Classified{Name: row.UserID, Label: svc.refData.Thresholds.Attendance.Label(*row.Score)})
	}
	slices, err := AggregateCohort(recs)
	if err != nil {
		return Panel{}, err
	}
	return Panel{Title: "Attendance Rates", Filter: f, Slices: slices}, nil
}

// OnTimePanel buckets per-student on-time submission rates into cohorts.
func (svc *Service) OnTimePanel(ctx context.Context, f Filter) (Panel, error) {
	if _, err := svc.courseName(f.Course); err != nil {
		return Panel{}, err
	}
	rows, err := svc.latestAssignments(ctx, f)
	if err != nil {
		return Panel{}, err
	}

	rates := OnTimeRate(rows, svc.conf.AttendanceAssignment)
	recs := make([]Classified, 0, len(rates))
	for userID, rate := range rates {
		recs = append(recs, Classified{Name: userID, Label: svc.refData.Thresholds.OnTime.Label(rate)})
	}
	slices, err := AggregateCohort(recs)
	if err != nil {
		return Panel{}, err
	}
	return Panel{Title: "On-Time Submissions", Filter: f, Slices: slices}, nil
}

// MissingPanel counts unsubmitted graded assignments per student.
func (svc *Service) MissingPanel(ctx context.Context, f Filter) (map[string]int, error) {
	if _, err := svc.courseName(f.Course); err != nil {
		return nil, err
	}
	rows, err := svc.latestAssignments(ctx, f)
	if err != nil {
		return nil, err
	}
	return MissingAssignments(rows, svc.conf.AttendanceAssignment), nil
}

// Meetings resolves every in-range meeting export whose declared topic
// matches the course's canonical name. Mismatched exports are skipped,
// never errors.
func (svc *Service) Meetings(ctx context.Context, f Filter) ([]Session, error) {
	courseName, err := svc.courseName(f.Course)
	if err != nil {
		return nil, err
	}

	src := svc.conf.Storage.Attendance
	snaps, err := svc.resolver.ResolveRange(ctx, src.Root, snapshot.DateOnlyPattern, f.Start, f.End, snapshot.Options{
		TTL:    src.CacheTTL,
		Accept: func(tbl core.Table) bool { return SessionTopic(tbl) == courseName },
	})
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(snaps))
	for _, snap := range snaps {
		sess, err := ParseSession(snap.Table, snap.Date, src.HeaderSkip, src.DateShiftDays)
		if err != nil {
			return nil, errors.Wrap(err, snap.Path)
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Progression builds per-student grade time series over the range, with
// grade (linear) and activity-time (log-normal) outlier flags.
func (svc *Service) Progression(ctx context.Context, f Filter) ([]StudentSeries, error) {
	if _, err := svc.courseName(f.Course); err != nil {
		return nil, err
	}
	students, err := svc.loadStudents(ctx, f)
	if err != nil {
		return nil, err
	}

	gradeObs := make([]Observation, 0, len(students))
	activityObs := make([]Observation, 0, len(students))
	byName := make(map[string][]SeriesPoint)
	for _, s := range students {
		gradeObs = append(gradeObs, Observation{Entity: s.Name, Value: s.CurrentGrade})
		activityObs = append(activityObs, Observation{Entity: s.Name, Value: s.TotalActivity})
		byName[s.Name] = append(byName[s.Name], SeriesPoint{Date: s.Date, Grade: s.CurrentGrade})
	}
	gradeFlags := LinearOutliers(gradeObs)
	activityFlags := LogNormalOutliers(activityObs)

	out := make([]StudentSeries, 0, len(byName))
	for name, points := range byName {
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		out = append(out, StudentSeries{
			Name:            name,
			Points:          points,
			GradeOutlier:    gradeFlags[name],
			ActivityOutlier: activityFlags[name],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// lowestTier returns the catch-all label of a threshold table.
func lowestTier(t core.ThresholdTable) string {
	return t[len(t)-1].Label
}

// GenerateIPP compiles the students sitting in the lowest grade or
// attendance tier and persists the run in the report archive.
func (svc *Service) GenerateIPP(ctx context.Context, f Filter) (IPPReport, error) {
	courseName, err := svc.courseName(f.Course)
	if err != nil {
		return IPPReport{}, err
	}

	reasons := make(map[string][]string)
	gradePanel, err := svc.GradePanel(ctx, f)
	if err != nil {
		return IPPReport{}, errors.Wrap(err, "grade panel")
	}
	for _, slice := range gradePanel.Slices {
		if slice.Label != lowestTier(svc.refData.Thresholds.Grade) {
			continue
		}
		for _, name := range slice.Members {
			reasons[name] = append(reasons[name], "grade")
		}
	}

	// the cached reads make this second roster resolution free
	students, err := svc.loadStudents(ctx, f)
	if err != nil {
		return IPPReport{}, errors.Wrap(err, "loading roster")
	}
	roster := make([]string, 0, len(students))
	for _, s := range latestRows(students) {
		roster = append(roster, s.Name)
	}

	// attendance may legitimately resolve to nothing; the IPP report then
	// covers grades alone
	attendPanel, err := svc.AttendanceScorePanel(ctx, f)
	if err != nil {
		switch errors.Cause(err) {
		case snapshot.ErrNoSnapshotBeforeCutoff, ErrEmptyCohort:
			svc.log.Warn("IPP report: no attendance data", map[string]interface{}{"course": f.Course})
		default:
			return IPPReport{}, errors.Wrap(err, "attendance panel")
		}
	} else {
		// attendance membership is keyed by export user id; an inner join
		// against the roster drops ids of students no longer enrolled
		var flagged []Metric
		for _, slice := range attendPanel.Slices {
			if slice.Label != lowestTier(svc.refData.Thresholds.Attendance) {
				continue
			}
			for _, name := range slice.Members {
				flagged = append(flagged, Metric{Key: name})
			}
		}
		for _, m := range JoinStudentMetric(flagged, roster) {
			reasons[m.Key] = append(reasons[m.Key], "attendance")
		}
	}

	names := make([]string, 0, len(reasons))
	for name := range reasons {
		names = append(names, name)
	}
	sort.Strings(names)

	rpt := IPPReport{
		ID:          uuid.New().String(),
		CourseID:    f.Course,
		CourseName:  courseName,
		Start:       f.Start,
		End:         f.End,
		GeneratedAt: time.Now().UTC(),
	}
	for _, name := range names {
		rpt.Entries = append(rpt.Entries, IPPEntry{Student: name, Reasons: reasons[name]})
	}
	if err := svc.archive.SaveReport(ctx, rpt); err != nil {
		return IPPReport{}, errors.Wrap(err, "archiving report")
	}
	return rpt, nil
}

func (svc *Service) GetIPP(ctx context.Context, id string) (IPPReport, error) {
	return svc.archive.GetReport(ctx, id)
}

func (svc *Service) QueryAllIPP(ctx context.Context) ([]IPPReport, error) {
	return svc.archive.QueryAllReports(ctx)
}

// NotifyBelowThreshold emails every student sitting in the lowest grade
// tier as of the latest in-range snapshot. Students whose roster row has
// no email are skipped and logged. Returns the number of emails queued.
func (svc *Service) NotifyBelowThreshold(ctx context.Context, f Filter) (int, error) {
	courseName, err := svc.courseName(f.Course)
	if err != nil {
		return 0, err
	}
	students, err := svc.loadStudents(ctx, f)
	if err != nil {
		return 0, err
	}

	ipp := lowestTier(svc.refData.Thresholds.Grade)
	var msgs []*core.EmailMessage
	for _, s := range latestRows(students) {
		if svc.refData.Thresholds.Grade.Label(s.CurrentGrade) != ipp {
			continue
		}
		if s.Email == "" {
			svc.log.Warn("cannot notify student without an email", map[string]interface{}{"student": s.Name})
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:      []mail.Address{{Name: s.Name, Address: s.Email}},
			Subject: fmt.Sprintf("Grade check-in for %s", courseName),
			Body: fmt.Sprintf(
				"Hi %s,\n\nYour current grade in %s is %.1f, which is below the expected threshold. "+
					"Please reach out to your instructor to set up a progress plan.\n", s.Name, courseName, s.CurrentGrade),
		})
	}
	svc.mailSvc.SendMessages(msgs...)
	return len(msgs), nil
}
