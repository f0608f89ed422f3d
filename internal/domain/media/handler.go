package media

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/civil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleProfessional, auth.RoleReception))
	g.POST("/patients/:id/media", h.Upload)
	g.GET("/patients/:id/media", h.List)
	g.GET("/media/:id/preview", h.Preview)
	g.DELETE("/media/:id", h.Delete, auth.RequireRole(auth.RoleProfessional))
}

// FormUpload reads the multipart "file" field into an UploadRequest.
func FormUpload(c echo.Context, patientID uuid.UUID, kind string) (UploadRequest, func(), error) {
	file, err := c.FormFile("file")
	if err != nil {
		return UploadRequest{}, nil, echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return UploadRequest{}, nil, echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	return UploadRequest{
		PatientID:   patientID,
		Kind:        kind,
		FileName:    file.Filename,
		ContentType: file.Header.Get(echo.HeaderContentType),
		Body:        src,
	}, func() { src.Close() }, nil
}

func (h *Handler) Upload(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	kind := c.FormValue("kind")
	if kind == "" {
		kind = KindClinicalPhoto
	}
	req, closeFn, err := FormUpload(c, pid, kind)
	if err != nil {
		return err
	}
	defer closeFn()

	if v := c.FormValue("caption"); v != "" {
		req.Caption = &v
	}
	if v := c.FormValue("taken_on"); v != "" {
		d, err := civil.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid taken_on date")
		}
		req.TakenOn = &d
	}

	a, err := h.svc.Upload(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, h.svc.Resolver().View(c.Request().Context(), a))
}

func (h *Handler) List(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	views, err := h.svc.ListViews(c.Request().Context(), pid, c.QueryParam("kind"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) Preview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	u, err := h.svc.Preview(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"preview_url":  u,
		"generated_at": time.Now().UTC(),
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
