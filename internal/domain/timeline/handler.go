package timeline

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	builder *Builder
}

func NewHandler(builder *Builder) *Handler {
	return &Handler{builder: builder}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/timeline", h.Get, auth.RequireRole(auth.RoleProfessional, auth.RoleReception))
}

func (h *Handler) Get(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	ctx := c.Request().Context()
	t, err := h.builder.Build(ctx, pid, auth.ViewerFromContext(ctx))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}
