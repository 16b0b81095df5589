package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vescom/vescom-api/internal/model"
	"github.com/vescom/vescom-api/internal/repository"
)

// CameraHandler manages cameras. DELETE deactivates: events reference
// cameras by id, so rows stay forever.
type CameraHandler struct {
	Cameras *repository.CameraRepo
}

func NewCameraHandler(cams *repository.CameraRepo) *CameraHandler {
	return &CameraHandler{Cameras: cams}
}

type cameraReq struct {
	Name      string  `json:"name"`
	IPAddress *string `json:"ip_address"`
	Location  *string `json:"location"`
	CubicleID *uint64 `json:"cubicle_id"`
	Active    *bool   `json:"active"`
}

// CreateCamera handles POST /v1/cameras.
func (h *CameraHandler) CreateCamera(c echo.Context) error {
	var req cameraReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	cam := model.Camera{
		Name:      name,
		IPAddress: req.IPAddress,
		Location:  req.Location,
		CubicleID: req.CubicleID,
		Active:    active,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cameras.Create(ctx, &cam); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create camera"})
	}
	return c.JSON(http.StatusCreated, cam)
}

// ListCameras handles GET /v1/cameras.
func (h *CameraHandler) ListCameras(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cameras.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetCamera handles GET /v1/cameras/:id.
func (h *CameraHandler) GetCamera(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cam, err := h.Cameras.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "camera not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, cam)
}

// UpdateCamera handles PUT /v1/cameras/:id.
func (h *CameraHandler) UpdateCamera(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req cameraReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cam, err := h.Cameras.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "camera not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	cam.Name = name
	cam.IPAddress = req.IPAddress
	cam.Location = req.Location
	cam.CubicleID = req.CubicleID
	if req.Active != nil {
		cam.Active = *req.Active
	}

	if err := h.Cameras.Update(ctx, &cam); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "camera not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, cam)
}

// DeactivateCamera handles DELETE /v1/cameras/:id by clearing the active
// flag. No row is ever removed.
func (h *CameraHandler) DeactivateCamera(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cameras.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "camera not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
