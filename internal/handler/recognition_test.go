package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/vescom/vescom-api/internal/classifier"
	"github.com/vescom/vescom-api/internal/report"
	"github.com/vescom/vescom-api/internal/repository"
	"github.com/vescom/vescom-api/internal/session"
)

func eventColumns() []string {
	return []string{"id", "camera_id", "persona_id", "access_type", "event_date", "event_time", "similarity"}
}

func newRecognitionHandler(events *repository.EventRepo) *RecognitionHandler {
	return NewRecognitionHandler(&classifier.Service{}, events, report.NewGenerator(events), session.NewSubmitGuard())
}

func multipartProbe(t *testing.T, cameraID string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "probe.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("jpegdata")); err != nil {
		t.Fatal(err)
	}
	if cameraID != "" {
		if err := mw.WriteField("camera_id", cameraID); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func TestIdentifyConflictWhilePending(t *testing.T) {
	submits := session.NewSubmitGuard()
	release, err := submits.Begin(5)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	h := &RecognitionHandler{Classifier: &classifier.Service{}, Submits: submits}

	body, ctype := multipartProbe(t, "")
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/recognition/identify", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("admin_id", uint64(5))

	if err := h.Identify(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestIdentifyMissingImage(t *testing.T) {
	h := &RecognitionHandler{Classifier: &classifier.Service{}, Submits: session.NewSubmitGuard()}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/recognition/identify", strings.NewReader(""))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("admin_id", uint64(5))

	if err := h.Identify(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListEventsInvalidType(t *testing.T) {
	h := &RecognitionHandler{}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/recognition/events?type=Banana", nil)
	rec := httptest.NewRecorder()
	if err := h.ListEvents(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEventSummaryEndpoint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM access_events ORDER BY id DESC LIMIT").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow(3, nil, 1, "Authorized", nil, nil, 0.8).
			AddRow(2, nil, nil, "Unauthorized", nil, nil, 0.1).
			AddRow(1, nil, nil, "Unauthorized", nil, nil, nil))

	h := newRecognitionHandler(repository.NewEventRepo(db))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/recognition/events/summary", nil)
	rec := httptest.NewRecorder()
	if err := h.EventSummary(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var s struct {
		Total            int     `json:"total"`
		Authorized       int     `json:"authorized"`
		Unauthorized     int     `json:"unauthorized"`
		UnauthorizedRate float64 `json:"unauthorized_rate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatal(err)
	}
	if s.Total != 3 || s.Authorized != 1 || s.Unauthorized != 2 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestReportEndpoint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM access_events ORDER BY id DESC LIMIT").
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow(7, 3, nil, "Authorized", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), "08:15:00", 0.91))

	h := newRecognitionHandler(repository.NewEventRepo(db))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/recognition/report?date_from=2025-01-01&date_to=2025-01-31", nil)
	rec := httptest.NewRecorder()
	if err := h.Report(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	disp := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(disp, "reporte_vescom_2025-01-01_2025-01-31.csv") {
		t.Fatalf("content disposition = %q", disp)
	}
	want := "Event ID,Access Type,Date,Time,Camera ID,Persona ID,Similarity\n" +
		"7,Authorized,2025-01-02,08:15:00,3,,91.00%"
	if rec.Body.String() != want {
		t.Fatalf("csv = %q", rec.Body.String())
	}
}

func TestReportMissingDates(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newRecognitionHandler(repository.NewEventRepo(db))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/recognition/report", nil)
	rec := httptest.NewRecorder()
	if err := h.Report(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
