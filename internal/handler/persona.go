package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vescom/vescom-api/internal/model"
	"github.com/vescom/vescom-api/internal/recognizer"
	"github.com/vescom/vescom-api/internal/repository"
)

// PersonaHandler manages the enrolled population. Personas are the one
// entity with hard deletes; removing one also asks the recognition service
// to forget the stored template.
type PersonaHandler struct {
	Personas   *repository.PersonaRepo
	Recognizer recognizer.Recognizer
	FaceDir    string // reference photos are kept here
}

func NewPersonaHandler(p *repository.PersonaRepo, rec recognizer.Recognizer, faceDir string) *PersonaHandler {
	return &PersonaHandler{Personas: p, Recognizer: rec, FaceDir: faceDir}
}

type personaReq struct {
	Name      string  `json:"name"`
	Surname   string  `json:"surname"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	CubicleID *uint64 `json:"cubicle_id"`
	Role      string  `json:"role"`
}

func validRole(role string) bool {
	switch role {
	case model.RoleProfessor, model.RoleAdministrative, model.RoleResearcher:
		return true
	}
	return false
}

// CreatePersona handles POST /v1/recognition/personas.
func (h *PersonaHandler) CreatePersona(c echo.Context) error {
	var req personaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	if req.Name == "" || req.Surname == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and surname are required"})
	}
	if req.Role == "" {
		req.Role = model.RoleProfessor
	}
	if !validRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be Professor, Administrative or Researcher"})
	}

	p := model.Persona{
		Name:      req.Name,
		Surname:   req.Surname,
		Email:     req.Email,
		Phone:     req.Phone,
		CubicleID: req.CubicleID,
		Role:      req.Role,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Personas.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create persona"})
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPersonas handles GET /v1/recognition/personas.
func (h *PersonaHandler) ListPersonas(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Personas.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetPersona handles GET /v1/recognition/personas/:id.
func (h *PersonaHandler) GetPersona(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Personas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "persona not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, p)
}

// UpdatePersona handles PUT /v1/recognition/personas/:id.
func (h *PersonaHandler) UpdatePersona(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req personaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	if req.Name == "" || req.Surname == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and surname are required"})
	}
	if req.Role != "" && !validRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be Professor, Administrative or Researcher"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Personas.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "persona not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	p.Name = req.Name
	p.Surname = req.Surname
	p.Email = req.Email
	p.Phone = req.Phone
	p.CubicleID = req.CubicleID
	if req.Role != "" {
		p.Role = req.Role
	}

	if err := h.Personas.Update(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "persona not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// DeletePersona handles DELETE /v1/recognition/personas/:id. This is a
// hard delete; events referencing the persona keep their nullable id.
func (h *PersonaHandler) DeletePersona(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Personas.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "persona not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	// Best effort: the row is gone either way.
	if err := h.Recognizer.Forget(ctx, id); err != nil {
		c.Logger().Warnf("recognizer forget %d: %v", id, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "persona deleted"})
}

// UploadFace handles POST /v1/recognition/personas/:id/face. The reference
// photo is stored on disk and forwarded to the recognition service, which
// extracts and keeps the biometric template. On success the persona is
// enrolled and can match probes.
func (h *PersonaHandler) UploadFace(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if _, err := h.Personas.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "persona not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	if err := h.Recognizer.Enroll(ctx, id, image, fh.Filename); err != nil {
		if errors.Is(err, recognizer.ErrNoFace) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no face detected in image"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "recognition service unavailable"})
	}

	path, err := h.saveFace(id, fh.Filename, image)
	if err != nil {
		c.Logger().Warnf("face photo store for persona %d: %v", id, err)
		path = "" // enrollment already succeeded; continue without the photo path
	}
	if err := h.Personas.SetFace(ctx, id, path); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record enrollment"})
	}

	p, err := h.Personas.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, p)
}

// saveFace writes the reference photo under {FaceDir}/{id}_{filename}.
func (h *PersonaHandler) saveFace(id uint64, filename string, image []byte) (string, error) {
	if h.FaceDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(h.FaceDir, 0o755); err != nil {
		return "", err
	}
	name := filepath.Base(filename)
	path := filepath.Join(h.FaceDir, strconv.FormatUint(id, 10)+"_"+name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
