package clinical

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	write := auth.RequireRole(auth.RoleProfessional)
	read := auth.RequireRole(auth.RoleProfessional, auth.RoleReception)

	api.POST("/patients/:id/events", h.Record, write)
	api.GET("/patients/:id/events", h.List, read)
	api.PUT("/events/:id", h.Update, write)
	api.DELETE("/events/:id", h.Delete, write)
	api.GET("/events/:id/consumption", h.Consumption, read)
}

// redact hides professional notes from viewers who may not read them.
func redact(c echo.Context, events ...*Event) {
	if auth.ViewerFromContext(c.Request().Context()).CanSeeClinicalNotes() {
		return
	}
	for _, e := range events {
		e.ProfessionalNotes = nil
	}
}

func (h *Handler) Record(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, entries, err := h.svc.RecordEvent(c.Request().Context(), pid, in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"event":       e,
		"consumption": entries,
	})
}

func (h *Handler) List(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	events, err := h.svc.ListByPatient(c.Request().Context(), pid)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if events == nil {
		events = []*Event{}
	}
	redact(c, events...)
	return c.JSON(http.StatusOK, events)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.UpdateEvent(c.Request().Context(), id, in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteEvent(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Consumption(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	entries, err := h.svc.ListConsumption(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if entries == nil {
		entries = []*ConsumptionEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}
