package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRequestTimeout_DeadlineExceeded(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/v1/patients")
	err := RequestTimeout(10 * time.Millisecond)(func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %v", err)
	}
}

func TestRequestTimeout_FastHandler(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/v1/patients")
	err := RequestTimeout(time.Second)(func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); !ok {
			t.Error("expected a deadline on the request context")
		}
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", rec.Code, err)
	}
}

func TestRequestTimeout_HandlerErrorPassesThrough(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/v1/patients")
	want := echo.NewHTTPError(http.StatusNotFound, "missing")
	err := RequestTimeout(time.Second)(func(echo.Context) error { return want })(c)
	if err != want {
		t.Fatalf("expected handler error unchanged, got %v", err)
	}
}

func TestRequestTimeout_SkipsBlobs(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/blobs/patients/a.png", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	_ = RequestTimeout(time.Millisecond)(func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("blob downloads must not get a deadline")
		}
		return nil
	})(c)
}
