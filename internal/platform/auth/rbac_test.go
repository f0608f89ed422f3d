package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRoles(roles ...string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u1", roles))
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequireRole_Allowed(t *testing.T) {
	c := contextWithRoles(RoleReception)
	if err := RequireRole(RoleReception, RoleProfessional)(okHandler)(c); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	c := contextWithRoles(RoleReception)
	err := RequireRole(RoleProfessional)(okHandler)(c)
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	expectStatus(t, err, http.StatusForbidden)
}

func TestRequireRole_AdminBypass(t *testing.T) {
	c := contextWithRoles(RoleAdmin)
	if err := RequireRole(RoleProfessional)(okHandler)(c); err != nil {
		t.Errorf("admin should pass any role check, got %v", err)
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	c := contextWithRoles()
	if err := RequireRole(RoleReception)(okHandler)(c); err == nil {
		t.Error("expected forbidden without roles")
	}
}

func TestViewerVisibility(t *testing.T) {
	tests := []struct {
		roles     []string
		notes     bool
		financial bool
	}{
		{[]string{RoleAdmin}, true, true},
		{[]string{RoleProfessional}, true, false},
		{[]string{RoleReception}, false, true},
		{[]string{RoleProfessional, RoleReception}, true, true},
		{nil, false, false},
		{[]string{"guest"}, false, false},
	}
	for _, tt := range tests {
		v := Viewer{Roles: tt.roles}
		if got := v.CanSeeClinicalNotes(); got != tt.notes {
			t.Errorf("roles %v: CanSeeClinicalNotes = %v, want %v", tt.roles, got, tt.notes)
		}
		if got := v.CanSeeFinancial(); got != tt.financial {
			t.Errorf("roles %v: CanSeeFinancial = %v, want %v", tt.roles, got, tt.financial)
		}
	}
}

func TestViewerFromContext(t *testing.T) {
	ctx := WithUser(context.Background(), "pro-7", []string{RoleProfessional})
	v := ViewerFromContext(ctx)
	if v.UserID != "pro-7" || len(v.Roles) != 1 {
		t.Errorf("unexpected viewer: %+v", v)
	}
	if ViewerFromContext(context.Background()).UserID != "" {
		t.Error("expected empty viewer from bare context")
	}
}
