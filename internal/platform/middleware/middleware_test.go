package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequestID_GeneratesNew(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")

	handler := func(c echo.Context) error {
		rid := c.Get("request_id").(string)
		if rid == "" {
			t.Error("expected request_id to be generated")
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := RequestID()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")
	c.Request().Header.Set(RequestIDHeader, "my-custom-id")

	handler := func(c echo.Context) error {
		if rid := c.Get("request_id").(string); rid != "my-custom-id" {
			t.Errorf("expected my-custom-id, got %s", rid)
		}
		return c.String(http.StatusOK, "ok")
	}
	RequestID()(handler)(c)

	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")
	c.Request().Header.Set(RequestIDHeader, strings.Repeat("x", 500))

	RequestID()(func(c echo.Context) error { return nil })(c)

	if got := rec.Header().Get(RequestIDHeader); len(got) > 128 {
		t.Errorf("expected oversized id to be replaced, got %d chars", len(got))
	}
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	return line
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c, _ := newContext(http.MethodGet, "/api/v1/patients")
	c.Set("request_id", "req-123")

	err := Logger(logger)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := decodeLogLine(t, &buf)
	if line["level"] != "info" {
		t.Errorf("expected info level, got %v", line["level"])
	}
	if line["request_id"] != "req-123" {
		t.Errorf("expected request id in log, got %v", line["request_id"])
	}
	if line["path"] != "/api/v1/patients" {
		t.Errorf("expected path in log, got %v", line["path"])
	}
	if line["status"] != float64(http.StatusOK) {
		t.Errorf("expected status 200, got %v", line["status"])
	}
}

func TestLogger_ClientErrorIsWarn(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newContext(http.MethodPost, "/api/v1/consents/x/sign")

	Logger(zerolog.New(&buf))(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "this document was already signed")
	})(c)

	line := decodeLogLine(t, &buf)
	if line["level"] != "warn" {
		t.Errorf("expected warn level, got %v", line["level"])
	}
	if line["status"] != float64(http.StatusConflict) {
		t.Errorf("expected status 409, got %v", line["status"])
	}
}

func TestLogger_ServerErrorIsError(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newContext(http.MethodGet, "/")

	Logger(zerolog.New(&buf))(func(c echo.Context) error {
		return errors.New("connection reset")
	})(c)

	line := decodeLogLine(t, &buf)
	if line["level"] != "error" || line["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("unexpected log line: %v", line)
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newContext(http.MethodGet, "/panic")

	err := Recovery(zerolog.New(&buf))(func(c echo.Context) error {
		panic("test panic")
	})(c)

	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
	if !strings.Contains(buf.String(), "test panic") {
		t.Errorf("expected panic value in log, got %s", buf.String())
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/ok")
	err := Recovery(zerolog.Nop())(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSecurityHeaders_SetsAllHeaders(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/v1/patients")
	if err := SecurityHeaders()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Referrer-Policy":           "no-referrer",
		"Cache-Control":             "no-store",
	}
	for header, want := range expected {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("header %s: got %q, want %q", header, got, want)
		}
	}
}

func TestSecurityHeaders_PropagatesHandlerError(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/")
	want := echo.NewHTTPError(http.StatusNotFound, "patient not found")
	err := SecurityHeaders()(func(c echo.Context) error { return want })(c)
	if err != want {
		t.Errorf("expected handler error to propagate, got %v", err)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected headers to be set even on error")
	}
}
