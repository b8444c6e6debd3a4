package echoapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsteam/cohortboard/core"
	"github.com/dsteam/cohortboard/core/report"
	"github.com/dsteam/cohortboard/core/snapshot"
	emailsvc "github.com/dsteam/cohortboard/services/email"
	logsvc "github.com/dsteam/cohortboard/services/logger"
	dummystore "github.com/dsteam/cohortboard/services/storage/dummy"
	dummydb "github.com/dsteam/cohortboard/storage/database/dummy"
)

const gatePassword = "s3cr3t"

var apiRefDataYAML = []byte(`
courses:
  "172": "IF '25 Data Science Cohort A"
thresholds:
  grade:
    - {bound: 80, label: "On Track"}
    - {bound: 75, label: "Warning"}
    - {label: "IPP"}
  attendance:
    - {bound: 90, label: "On Track"}
    - {label: "IPP"}
  on_time:
    - {bound: 0.95, label: ">95%"}
    - {label: "<95%"}
`)

func setupServer(t *testing.T) (Server, *core.Config) {
	t.Helper()

	sum := sha256.Sum256([]byte(gatePassword))
	conf := &core.Config{
		Env:                  "test",
		TestMode:             true,
		AppName:              "Cohortboard",
		SecretKey:            "poq5-wer0-$yu2-@%rt",
		GateDigest:           hex.EncodeToString(sum[:]),
		AttendanceAssignment: "Roll Call Attendance",
		Storage: core.StorageConfig{
			Students:   core.SourceConfig{Root: "canvas/students"},
			Grades:     core.SourceConfig{Root: "canvas/grades"},
			Attendance: core.SourceConfig{Root: "zoom/participants", HeaderSkip: 3, DateShiftDays: 1},
		},
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute

	refData, err := core.ParseRefData(apiRefDataYAML)
	require.NoError(t, err)

	store := dummystore.New()
	store.Put("canvas/students/172_2025-08-08.csv", core.Table{
		Columns: []string{"name", "course_id", "current_grade", "total_activity_time", "date", "email"},
		Rows: [][]string{
			{"A", "172", "82", "3600", "2025-08-08", "a@example.com"},
			{"B", "172", "73", "1800", "2025-08-08", "b@example.com"},
		},
	})

	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	db, err := dummydb.Open()
	require.NoError(t, err)

	svc := report.NewService(
		conf, refData,
		snapshot.NewResolver(store, logger),
		dummydb.NewReportRepository(db),
		emailsvc.NewConsoleServiceMock(conf),
		logger,
	)
	return NewServer(ServerDeps{Conf: conf, Logger: logger, ReportSvc: svc, DisableReqLogs: true}), conf
}

func doRequest(s Server, method, target, token string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func loginToken(t *testing.T, s Server) string {
	t.Helper()
	rec := doRequest(s, http.MethodPost, "/v1/login", "", `{"password": "`+gatePassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func Test_server_home(t *testing.T) {
	s, _ := setupServer(t)
	rec := doRequest(s, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cohortboard")
}

func Test_server_login(t *testing.T) {
	s, _ := setupServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid password", `{"password": "` + gatePassword + `"}`, http.StatusOK},
		{"wrong password", `{"password": "nope"}`, http.StatusBadRequest},
		{"missing password", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/v1/login", "", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Contains(t, rec.Body.String(), "token")
			}
		})
	}
}

func Test_server_authRequired(t *testing.T) {
	s, _ := setupServer(t)

	for _, target := range []string{
		"/v1/panels/grades?course=172&start=2025-08-01",
		"/v1/reports/ipp",
	} {
		rec := doRequest(s, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	// a token signed with another key is rejected
	badConf := &core.Config{AppName: "Cohortboard", SecretKey: "another-secret-entirely"}
	badConf.Server.JWTExpirationDelta = 10 * time.Minute
	badToken, err := GenerateToken(badConf, newClaims(badConf))
	require.NoError(t, err)
	rec := doRequest(s, http.MethodGet, "/v1/panels/grades?course=172&start=2025-08-01", badToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_server_gradePanel(t *testing.T) {
	s, _ := setupServer(t)
	token := loginToken(t, s)

	rec := doRequest(s, http.MethodGet, "/v1/panels/grades?course=172&start=2025-08-01&end=2025-08-10", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Title  string               `json:"title"`
		Slices []report.CohortSlice `json:"slices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "GPA", body.Title)
	assert.Len(t, body.Slices, 2)
}

func Test_server_gradePanel_noData(t *testing.T) {
	s, _ := setupServer(t)
	token := loginToken(t, s)

	rec := doRequest(s, http.MethodGet, "/v1/panels/grades?course=172&start=2020-01-01&end=2020-02-01", token, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error   string            `json:"error"`
		Filters map[string]string `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.Equal(t, "172", body.Filters["course"])
	assert.Equal(t, "2020-01-01", body.Filters["start"])
	assert.Equal(t, "2020-02-01", body.Filters["end"])
}

func Test_server_gradePanel_badParams(t *testing.T) {
	s, _ := setupServer(t)
	token := loginToken(t, s)

	tests := []struct {
		name   string
		target string
	}{
		{"missing course", "/v1/panels/grades?start=2025-08-01"},
		{"course not numeric", "/v1/panels/grades?course=abc&start=2025-08-01"},
		{"missing start", "/v1/panels/grades?course=172"},
		{"start not a date", "/v1/panels/grades?course=172&start=yesterday"},
		{"end before start", "/v1/panels/grades?course=172&start=2025-08-10&end=2025-08-01"},
		{"unknown course", "/v1/panels/grades?course=999&start=2025-08-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodGet, tt.target, token, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func Test_server_ippReports(t *testing.T) {
	s, _ := setupServer(t)
	token := loginToken(t, s)

	rec := doRequest(s, http.MethodPost, "/v1/reports/ipp", token, `{"course": "172", "start": "2025-08-01", "end": "2025-08-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var rpt report.IPPReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rpt))
	require.NotEmpty(t, rpt.ID)
	require.Len(t, rpt.Entries, 1)
	assert.Equal(t, "B", rpt.Entries[0].Student)

	rec = doRequest(s, http.MethodGet, "/v1/reports/ipp/"+rpt.ID, token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/v1/reports/ipp", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []report.IPPReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rec = doRequest(s, http.MethodGet, "/v1/reports/ipp/nope", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_server_notify(t *testing.T) {
	s, _ := setupServer(t)
	token := loginToken(t, s)

	rec := doRequest(s, http.MethodPost, "/v1/notify", token, `{"course": "172", "start": "2025-08-01", "end": "2025-08-10"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body["notified"])
}
