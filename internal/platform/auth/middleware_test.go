package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only-32b")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, mw(next)(c)
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "", okHandler)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), tt.header, okHandler)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ClaimsExtraction(t *testing.T) {
	token := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			Issuer:    "clinic",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{RoleReception},
	}, testSigningKey)

	var gotUser string
	var gotRoles []string
	next := func(c echo.Context) error {
		gotUser = UserIDFromContext(c.Request().Context())
		gotRoles = RolesFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}

	rec, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: "clinic"}), "Bearer "+token, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if gotUser != "user-42" {
		t.Errorf("expected user-42, got %q", gotUser)
	}
	if len(gotRoles) != 1 || gotRoles[0] != RoleReception {
		t.Errorf("unexpected roles: %v", gotRoles)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	token := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSigningKey)

	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "Bearer "+token, okHandler)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	token := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "someone-else"},
	}, testSigningKey)

	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: "clinic"}), "Bearer "+token, okHandler)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	token := createTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}, []byte("another-key"))

	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "Bearer "+token, okHandler)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Skipper: func(echo.Context) bool { return true }})
	rec, err := runMiddleware(t, mw, "", okHandler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestJWTMiddleware_JWKSFromIssuer(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.well-known/openid-configuration":
			json.NewEncoder(w).Encode(map[string]string{"jwks_uri": srv.URL + "/keys"})
		case "/keys":
			json.NewEncoder(w).Encode(map[string]interface{}{"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "k1",
				"n":   base64.RawURLEncoding.EncodeToString(priv.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(priv.E)).Bytes()),
			}}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "pro-1", Issuer: srv.URL},
		Roles:            []string{RoleProfessional},
	})
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(priv)
	if err != nil {
		t.Fatal(err)
	}

	var roles []string
	next := func(c echo.Context) error {
		roles = RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}
	if _, err := runMiddleware(t, JWTMiddleware(JWTConfig{Issuer: srv.URL}), "Bearer "+signed, next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 1 || roles[0] != RoleProfessional {
		t.Errorf("unexpected roles: %v", roles)
	}
}

func TestDevAuthMiddleware_NoToken(t *testing.T) {
	var roles []string
	var user string
	next := func(c echo.Context) error {
		roles = RolesFromContext(c.Request().Context())
		user = UserIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}
	if _, err := runMiddleware(t, DevAuthMiddleware(nil), "", next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != "dev-user" {
		t.Errorf("expected dev-user, got %q", user)
	}
	if len(roles) != 1 || roles[0] != RoleAdmin {
		t.Errorf("expected admin role, got %v", roles)
	}
}

func TestDevAuthMiddleware_ValidatesProvidedToken(t *testing.T) {
	token := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "rec-1"},
		Roles:            []string{RoleReception},
	}, testSigningKey)

	var roles []string
	next := func(c echo.Context) error {
		roles = RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}
	if _, err := runMiddleware(t, DevAuthMiddleware(testSigningKey), "Bearer "+token, next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 1 || roles[0] != RoleReception {
		t.Errorf("expected token roles, got %v", roles)
	}

	_, err := runMiddleware(t, DevAuthMiddleware(testSigningKey), "Bearer garbage", okHandler)
	expectStatus(t, err, http.StatusUnauthorized)
}
