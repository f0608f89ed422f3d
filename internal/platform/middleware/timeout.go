package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout puts a deadline on the request context. Repository calls
// observe it through pgx; a handler that fails because the deadline passed is
// answered with 504 unless it already wrote a response. Blob downloads are
// left alone since their duration depends on the client.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 || strings.HasPrefix(c.Request().URL.Path, "/blobs/") {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Response().Committed {
				he := echo.NewHTTPError(http.StatusGatewayTimeout, map[string]string{
					"error":   "timeout",
					"message": "the request took too long; try again",
				})
				he.Internal = err
				return he
			}
			return err
		}
	}
}
