package inventory

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

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
	g := api.Group("/inventory", auth.RequireRole(auth.RoleProfessional, auth.RoleReception))
	g.POST("/items", h.Create, auth.RequireRole(auth.RoleAdmin))
	g.GET("/items", h.List)
	g.GET("/items/:id", h.Get)
	g.POST("/items/:id/restock", h.Restock)
	g.GET("/low-stock", h.LowStock)
}

func (h *Handler) Create(c echo.Context) error {
	var it Item
	if err := c.Bind(&it); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &it); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	it, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*Item{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) LowStock(c echo.Context) error {
	items, err := h.svc.LowStock(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	if items == nil {
		items = []*Item{}
	}
	return c.JSON(http.StatusOK, items)
}

type restockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func (h *Handler) Restock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req restockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	it, err := h.svc.Restock(c.Request().Context(), id, req.Quantity)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, it)
}
