package safety

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

const maxPayload = 64 * 1024

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients/:id", auth.RequireRole(auth.RoleProfessional, auth.RoleReception))
	g.PUT("/questionnaires/:kind", h.Put)
	g.GET("/questionnaires/:kind", h.Get)
	g.GET("/safety-tags", h.Tags)
}

func (h *Handler) Put(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPayload+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	if len(body) > maxPayload {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "questionnaire too large")
	}
	q, err := h.svc.Save(c.Request().Context(), pid, c.Param("kind"), body)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"kind":    q.Kind(),
		"payload": q,
		"tags":    Aggregate(q),
	})
}

func (h *Handler) Get(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	q, err := h.svc.Get(c.Request().Context(), pid, c.Param("kind"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"kind":    q.Kind(),
		"payload": q,
	})
}

func (h *Handler) Tags(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	tags, err := h.svc.Tags(c.Request().Context(), pid)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tags": tags})
}
