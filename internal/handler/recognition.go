package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vescom/vescom-api/internal/classifier"
	"github.com/vescom/vescom-api/internal/model"
	"github.com/vescom/vescom-api/internal/recognizer"
	"github.com/vescom/vescom-api/internal/report"
	"github.com/vescom/vescom-api/internal/repository"
	"github.com/vescom/vescom-api/internal/session"
	"github.com/vescom/vescom-api/internal/stats"
)

// RecognitionHandler exposes the event engine: identification ingestion,
// event history, live summaries and CSV report export.
type RecognitionHandler struct {
	Classifier *classifier.Service
	Events     *repository.EventRepo
	Reports    *report.Generator
	Submits    *session.SubmitGuard
}

func NewRecognitionHandler(cls *classifier.Service, events *repository.EventRepo, reports *report.Generator, submits *session.SubmitGuard) *RecognitionHandler {
	return &RecognitionHandler{Classifier: cls, Events: events, Reports: reports, Submits: submits}
}

// parseTypeFilter maps the `type` query parameter onto an access type.
// Empty and "All" mean no filter; anything else must be a known type.
func parseTypeFilter(raw string) (model.AccessType, bool) {
	switch raw {
	case "", "All":
		return "", true
	case string(model.AccessAuthorized):
		return model.AccessAuthorized, true
	case string(model.AccessUnauthorized):
		return model.AccessUnauthorized, true
	}
	return "", false
}

// Identify handles POST /v1/recognition/identify: a probe image plus an
// optional camera id. One submission per admin may be in flight; a second
// concurrent submit is rejected with 409 rather than queued, because every
// accepted submission appends an audit event.
func (h *RecognitionHandler) Identify(c echo.Context) error {
	actor, err := adminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read image"})
	}
	defer func() { _ = src.Close() }()
	image, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read image"})
	}

	var cameraID *uint64
	if raw := c.FormValue("camera_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid camera_id"})
		}
		cameraID = &n
	}

	release, err := h.Submits.Begin(actor)
	if err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "identification already in progress"})
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	res, err := h.Classifier.Identify(ctx, classifier.Attempt{Image: image, CameraID: cameraID})
	if err != nil {
		if errors.Is(err, recognizer.ErrNoFace) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no face detected in image"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "identification failed"})
	}
	return c.JSON(http.StatusOK, res)
}

// ListEvents handles GET /v1/recognition/events with limit/type/camera_id
// filters, most recent first. Read failures degrade to an error response
// with no state change; the empty list is a legitimate zero-count result.
func (h *RecognitionHandler) ListEvents(c echo.Context) error {
	typ, ok := parseTypeFilter(c.QueryParam("type"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be Authorized or Unauthorized"})
	}
	cameraID, err := optionalUint(c.QueryParam("camera_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid camera_id"})
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.List(ctx, repository.EventFilter{Type: typ, CameraID: cameraID, Limit: limit})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// EventSummary handles GET /v1/recognition/events/summary: the one-pass
// aggregation the dashboard and alert views display. The same
// limit/type/camera filters as ListEvents bound the window.
func (h *RecognitionHandler) EventSummary(c echo.Context) error {
	typ, ok := parseTypeFilter(c.QueryParam("type"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be Authorized or Unauthorized"})
	}
	cameraID, err := optionalUint(c.QueryParam("camera_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid camera_id"})
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.List(ctx, repository.EventFilter{Type: typ, CameraID: cameraID, Limit: limit})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, stats.Summarize(events, stats.TypeFilter(typ)))
}

// Report handles GET /v1/recognition/report and streams the CSV export.
// Generation is a single blocking operation; concurrent invocations are
// not cancelled or serialized, the caller keeps whichever response
// resolves last.
func (h *RecognitionHandler) Report(c echo.Context) error {
	typ, ok := parseTypeFilter(c.QueryParam("type"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be Authorized or Unauthorized"})
	}
	cameraID, err := optionalUint(c.QueryParam("camera_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid camera_id"})
	}
	maxRecords := 500
	if raw := c.QueryParam("limit"); raw != "" {
		maxRecords, err = strconv.Atoi(raw)
		if err != nil || maxRecords < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
	}

	filters := report.Filters{
		DateFrom:   c.QueryParam("date_from"),
		DateTo:     c.QueryParam("date_to"),
		Type:       typ,
		CameraID:   cameraID,
		MaxRecords: maxRecords,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	events, err := h.Reports.Generate(ctx, filters)
	if err != nil {
		if errors.Is(err, report.ErrDateRange) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report generation failed"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+report.Filename(filters)+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(report.CSV(events)))
}
