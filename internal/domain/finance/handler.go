package finance

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/civil"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
	now func() time.Time
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// RegisterRoutes exposes postings to admin and reception only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleReception))
	g.POST("/postings", h.Record)
	g.GET("/postings", h.List)
	g.GET("/postings/summary", h.Summary)
	g.GET("/postings/:id", h.Get)
	g.POST("/postings/:id/pay", h.MarkPaid)
	g.GET("/patients/:id/postings", h.ListByPatient)
}

func (h *Handler) Record(c echo.Context) error {
	var req EntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	postings, err := h.svc.RecordEntry(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, postings)
}

func dateParam(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := civil.Parse(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be YYYY-MM-DD")
	}
	return &t, nil
}

func (h *Handler) List(c echo.Context) error {
	var f Filter
	var err error
	if f.From, err = dateParam(c, "from"); err != nil {
		return err
	}
	if f.To, err = dateParam(c, "to"); err != nil {
		return err
	}
	f.Direction = c.QueryParam("direction")
	f.Status = c.QueryParam("status")

	pg := pagination.FromContext(c)
	postings, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if postings == nil {
		postings = []*Posting{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(postings, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) MarkPaid(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// Summary defaults to the current calendar month.
func (h *Handler) Summary(c echo.Context) error {
	today := civil.Truncate(h.now())
	from := civil.Date(today.Year(), today.Month(), 1)
	to := civil.AddMonths(from, 1).AddDate(0, 0, -1)

	if f, err := dateParam(c, "from"); err != nil {
		return err
	} else if f != nil {
		from = *f
	}
	if t, err := dateParam(c, "to"); err != nil {
		return err
	} else if t != nil {
		to = *t
	}
	sum, err := h.svc.Summary(c.Request().Context(), from, to)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	postings, err := h.svc.ListByPatient(c.Request().Context(), pid)
	if err != nil {
		return apperr.HTTPError(err)
	}
	if postings == nil {
		postings = []*Posting{}
	}
	return c.JSON(http.StatusOK, postings)
}
