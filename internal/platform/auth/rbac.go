package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin        = "admin"
	RoleProfessional = "professional"
	RoleReception    = "reception"
)

// RequireRole returns middleware that checks if the user has at least one of the specified roles.
// Admins always pass.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HasAnyRole(RolesFromContext(c.Request().Context()), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

func HasAnyRole(granted []string, required ...string) bool {
	for _, has := range granted {
		if has == RoleAdmin {
			return true
		}
		for _, r := range required {
			if has == r {
				return true
			}
		}
	}
	return false
}

// Viewer is the caller a read model is built for.
type Viewer struct {
	UserID string
	Roles  []string
}

func ViewerFromContext(ctx context.Context) Viewer {
	return Viewer{UserID: UserIDFromContext(ctx), Roles: RolesFromContext(ctx)}
}

// CanSeeClinicalNotes reports whether professional-facing notes are shown.
func (v Viewer) CanSeeClinicalNotes() bool {
	return HasAnyRole(v.Roles, RoleProfessional)
}

// CanSeeFinancial reports whether financial postings are shown.
func (v Viewer) CanSeeFinancial() bool {
	return HasAnyRole(v.Roles, RoleReception)
}
