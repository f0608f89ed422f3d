package expiration

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/civil"
)

// CandidateSource lists the procedures of every patient.
type CandidateSource interface {
	ListExpirationCandidates(ctx context.Context) ([]Candidate, error)
}

// CatalogSource loads the current validity table.
type CatalogSource interface {
	Catalog(ctx context.Context) (Catalog, error)
}

// Handler serves the clinic-wide expirations dashboard.
type Handler struct {
	events    CandidateSource
	catalog   CatalogSource
	lookahead int
	now       func() time.Time
}

func NewHandler(events CandidateSource, catalog CatalogSource, lookaheadDays int) *Handler {
	if lookaheadDays <= 0 {
		lookaheadDays = DefaultLookahead
	}
	return &Handler{events: events, catalog: catalog, lookahead: lookaheadDays, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/expirations", h.List, auth.RequireRole(auth.RoleProfessional, auth.RoleReception))
}

func (h *Handler) List(c echo.Context) error {
	lookahead := h.lookahead
	if v := c.QueryParam("lookahead_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "lookahead_days must be a positive integer")
		}
		lookahead = n
	}

	ctx := c.Request().Context()
	cat, err := h.catalog.Catalog(ctx)
	if err != nil {
		return apperr.HTTPError(err)
	}
	candidates, err := h.events.ListExpirationCandidates(ctx)
	if err != nil {
		return apperr.HTTPError(err)
	}

	today := civil.Truncate(h.now())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"today":          today.Format(civil.DateLayout),
		"lookahead_days": lookahead,
		"data":           Upcoming(candidates, cat, today, lookahead),
	})
}
