package calendar

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
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: Validating{Store: store}}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/calendar", auth.RequireRole(auth.RoleReception, auth.RoleProfessional))
	g.GET("/events", h.ListEvents)
	g.POST("/events", h.CreateEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)
}

func (h *Handler) CreateEvent(c echo.Context) error {
	var e Event
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.ID = uuid.Nil
	if err := h.store.Create(c.Request().Context(), &e); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) UpdateEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var e Event
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.ID = id
	if err := h.store.Update(c.Request().Context(), &e); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListEvents takes from/to as YYYY-MM-DD; to is inclusive. Defaults to the
// next seven days.
func (h *Handler) ListEvents(c echo.Context) error {
	from := civil.Today()
	to := from.AddDate(0, 0, 7)
	var err error
	if v := c.QueryParam("from"); v != "" {
		if from, err = civil.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if to, err = civil.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
	}
	items, err := h.store.List(c.Request().Context(), from, to.Add(24*time.Hour))
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*Event{}
	}
	return c.JSON(http.StatusOK, items)
}
