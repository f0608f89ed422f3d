package consent

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/media"
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
	g := api.Group("", auth.RequireRole(auth.RoleProfessional, auth.RoleReception))
	g.POST("/patients/:id/consents", h.Request)
	g.GET("/patients/:id/consents", h.Current)
	g.POST("/patients/:id/consents/:type/reissue", h.Reissue)
	g.GET("/patients/:id/consents/:type/history", h.History)
	g.GET("/consents/:id", h.Get)
	g.POST("/consents/:id/sign", h.Sign)
	g.POST("/consents/:id/mark-printed-signed", h.MarkPrinted)
}

type issueRequest struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

func (h *Handler) Request(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req issueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.RequestSignature(c.Request().Context(), pid, req.Type, req.Title)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Reissue(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req issueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Reissue(c.Request().Context(), pid, c.Param("type"), req.Title)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Current(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	views, err := h.svc.Current(c.Request().Context(), pid)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) History(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	views, err := h.svc.History(c.Request().Context(), pid, c.Param("type"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, v)
}

// Sign expects the signature image in the multipart "file" field.
func (h *Handler) Sign(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	req, closeFn, err := media.FormUpload(c, uuid.Nil, media.KindSignature)
	if err != nil {
		return err
	}
	defer closeFn()

	d, err := h.svc.Sign(c.Request().Context(), id, req)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) MarkPrinted(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.MarkSignedViaPrint(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, d)
}
