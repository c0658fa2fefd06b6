package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meeting-scheduler/internal/application"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type runServiceStub struct {
	report   application.RunReport
	err      error
	calls    int
	deadline bool
}

func (s *runServiceStub) Run(ctx context.Context) (application.RunReport, error) {
	s.calls++
	_, s.deadline = ctx.Deadline()
	return s.report, s.err
}

type meetingServiceStub struct {
	meetings []application.Meeting
	err      error
	clubID   int64
	from     time.Time
}

func (s *meetingServiceStub) UpcomingMeetings(ctx context.Context, clubID int64, from time.Time) ([]application.Meeting, error) {
	s.clubID = clubID
	s.from = from
	return s.meetings, s.err
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error {
	return p.err
}

type verifierStub struct {
	token string
}

func (v verifierStub) Verify(token string) error {
	if token != v.token {
		return application.ErrInvalidToken
	}
	return nil
}

func sampleReport() application.RunReport {
	started := time.Date(2024, time.October, 3, 6, 0, 0, 0, time.UTC)
	return application.RunReport{
		RunID:      "run-1",
		Year:       2024,
		Month:      time.October,
		StartedAt:  started,
		FinishedAt: started.Add(250 * time.Millisecond),
		Clubs: []application.ClubReport{{
			ClubID:            1,
			ClubName:          "Riverside",
			DatesResolved:     2,
			MeetingsCreated:   2,
			AttendanceCreated: 10,
		}},
	}
}

func newTestRouter(runs *runServiceStub, latest *application.LatestRunRecorder, meetings *meetingServiceStub) http.Handler {
	logger := quietLogger()
	return NewRouter(RouterConfig{
		Runs:        NewRunHandler(runs, latest, time.Minute, logger),
		Meetings:    NewMeetingHandler(meetings, logger),
		Health:      NewHealthHandler(pingerStub{}, func() bool { return false }, logger),
		Metrics:     http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, "metrics") }),
		TriggerAuth: RequireTriggerToken(verifierStub{token: "let-me-in"}, logger),
		Middleware:  []func(http.Handler) http.Handler{RequestLogger(logger)},
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestRunHandlers(t *testing.T) {
	t.Parallel()

	t.Run("trigger returns the run report", func(t *testing.T) {
		t.Parallel()

		runs := &runServiceStub{report: sampleReport()}
		router := newTestRouter(runs, application.NewLatestRunRecorder(), &meetingServiceStub{})

		req := httptest.NewRequest(http.MethodPost, "/runs", nil)
		req.Header.Set("Authorization", "Bearer let-me-in")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "run-1", body["run_id"])
		assert.Equal(t, "2024-10", body["month"])
		assert.Equal(t, "success", body["outcome"])
		assert.EqualValues(t, 250, body["duration_ms"])
		clubs := body["clubs"].([]any)
		require.Len(t, clubs, 1)
		assert.EqualValues(t, 10, clubs[0].(map[string]any)["attendance_created"])
		assert.Equal(t, 1, runs.calls)
		assert.True(t, runs.deadline)
	})

	t.Run("trigger requires a valid bearer token", func(t *testing.T) {
		t.Parallel()

		runs := &runServiceStub{report: sampleReport()}
		router := newTestRouter(runs, nil, &meetingServiceStub{})

		for _, header := range []string{"", "Basic abc", "Bearer wrong"} {
			req := httptest.NewRequest(http.MethodPost, "/runs", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		}
		assert.Zero(t, runs.calls)
	})

	t.Run("overlapping trigger maps to conflict", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&runServiceStub{err: application.ErrRunInProgress}, nil, &meetingServiceStub{})
		req := httptest.NewRequest(http.MethodPost, "/runs", nil)
		req.Header.Set("Authorization", "Bearer let-me-in")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "RUN_IN_PROGRESS", decode(t, rec)["error_code"])
	})

	t.Run("fatal run returns the failed report", func(t *testing.T) {
		t.Parallel()

		report := application.RunReport{RunID: "run-2", Year: 2024, Month: time.October, Error: "club directory unavailable: timeout"}
		err := fmt.Errorf("%w: timeout", application.ErrClubDirectoryUnavailable)
		router := newTestRouter(&runServiceStub{report: report, err: err}, nil, &meetingServiceStub{})

		req := httptest.NewRequest(http.MethodPost, "/runs", nil)
		req.Header.Set("Authorization", "Bearer let-me-in")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "failed", body["outcome"])
		assert.Equal(t, "club directory unavailable: timeout", body["error"])
		assert.Equal(t, []any{}, body["clubs"])
	})

	t.Run("trigger only accepts POST", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		newTestRouter(&runServiceStub{}, nil, &meetingServiceStub{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	})

	t.Run("trigger is not mounted without a token verifier", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Runs: NewRunHandler(&runServiceStub{}, nil, 0, quietLogger())})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("latest returns 404 before the first run", func(t *testing.T) {
		t.Parallel()

		latest := application.NewLatestRunRecorder()
		router := newTestRouter(&runServiceStub{}, latest, &meetingServiceStub{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		latest.ObserveRun(sampleReport())
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "run-1", decode(t, rec)["run_id"])
	})
}

func TestMeetingHandlers(t *testing.T) {
	t.Parallel()

	agenda := "https://example.org/agenda"
	meetings := []application.Meeting{{
		ID:         "m-1",
		ClubID:     7,
		Name:       "Riverside Meeting 1",
		Date:       time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC),
		Time:       "19:00",
		Place:      "placeholder",
		AgendaLink: &agenda,
	}}

	t.Run("lists meetings from the given date", func(t *testing.T) {
		t.Parallel()

		svc := &meetingServiceStub{meetings: meetings}
		rec := httptest.NewRecorder()
		newTestRouter(&runServiceStub{}, nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/7/meetings?from=2024-10-10", nil))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int64(7), svc.clubID)
		assert.True(t, svc.from.Equal(time.Date(2024, time.October, 10, 0, 0, 0, 0, time.UTC)))

		var resp meetingListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Meetings, 1)
		assert.Equal(t, "2024-10-15", resp.Meetings[0].Date)
		require.NotNil(t, resp.Meetings[0].AgendaLink)
		assert.Equal(t, agenda, *resp.Meetings[0].AgendaLink)
		assert.Nil(t, resp.Meetings[0].EntryInstructions)
	})

	t.Run("defaults from to the zero time", func(t *testing.T) {
		t.Parallel()

		svc := &meetingServiceStub{}
		rec := httptest.NewRecorder()
		newTestRouter(&runServiceStub{}, nil, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/7/meetings", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.from.IsZero())
		assert.JSONEq(t, `{"meetings":[]}`, rec.Body.String())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&runServiceStub{}, nil, &meetingServiceStub{})
		cases := map[string]int{
			"/clubs/abc/meetings":              http.StatusBadRequest,
			"/clubs/7/meetings?from=10/10/2024": http.StatusBadRequest,
			"/clubs/0/meetings":                http.StatusBadRequest,
			"/clubs/7":                         http.StatusNotFound,
			"/clubs/7/members":                 http.StatusNotFound,
		}
		for path, want := range cases {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, want, rec.Code, path)
		}
	})

	t.Run("maps service errors", func(t *testing.T) {
		t.Parallel()

		notFound := &meetingServiceStub{err: fmt.Errorf("club 9: %w", application.ErrNotFound)}
		rec := httptest.NewRecorder()
		newTestRouter(&runServiceStub{}, nil, notFound).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/9/meetings", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		broken := &meetingServiceStub{err: errors.New("database is closed")}
		rec = httptest.NewRecorder()
		newTestRouter(&runServiceStub{}, nil, broken).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/9/meetings", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "database is closed")

		invalid := &meetingServiceStub{err: &application.ValidationError{FieldErrors: map[string]string{"club_id": "must be a positive integer"}}}
		rec = httptest.NewRecorder()
		newTestRouter(&runServiceStub{}, nil, invalid).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clubs/9/meetings", nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "club_id"))
	})
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestRouter(&runServiceStub{}, nil, &meetingServiceStub{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	unhealthy := NewRouter(RouterConfig{Health: NewHealthHandler(pingerStub{err: errors.New("disk I/O error")}, nil, quietLogger())})
	rec = httptest.NewRecorder()
	unhealthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decode(t, rec)["status"])

	rec = httptest.NewRecorder()
	newTestRouter(&runServiceStub{}, nil, &meetingServiceStub{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "metrics", rec.Body.String())
}
