package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string, next echo.HandlerFunc) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, mw(next)(c)
}

func assertHTTPCode(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected HTTP %d error, got nil", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "", okHandler)
	assertHTTPCode(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_OptionalAllowsAnonymous(t *testing.T) {
	var sawActor bool
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Optional: true}), "", func(c echo.Context) error {
		_, sawActor = ActorFromContext(c.Request().Context())
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawActor {
		t.Error("expected anonymous request to carry no actor")
	}
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	for _, header := range []string{"Token abc123", "Bearer", "Bearer   ", "Basic dXNlcjpwYXNz"} {
		t.Run(header, func(t *testing.T) {
			_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Optional: true}), header, okHandler)
			assertHTTPCode(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token, err := IssueToken(testSigningKey, TokenRequest{
		Subject:  "doc-1",
		Email:    "house@example.com",
		Roles:    []string{RoleDoctor},
		Issuer:   "medconnect",
		Audience: "medconnect-api",
		TTL:      time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}

	var actor Actor
	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: "medconnect", Audience: "medconnect-api"})
	_, err = runMiddleware(t, mw, "Bearer "+token, func(c echo.Context) error {
		actor, _ = ActorFromContext(c.Request().Context())
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.ID != "doc-1" || actor.Email != "house@example.com" {
		t.Errorf("unexpected actor: %+v", actor)
	}
	if !actor.HasRole(RoleDoctor) {
		t.Error("expected doctor role")
	}
}

func TestJWTMiddleware_RejectsWrongKeyAndIssuer(t *testing.T) {
	wrongKey, _ := IssueToken([]byte("another-key-another-key-another-key"), TokenRequest{Subject: "u"})
	wrongIssuer, _ := IssueToken(testSigningKey, TokenRequest{Subject: "u", Issuer: "elsewhere"})
	expired, _ := IssueToken(testSigningKey, TokenRequest{Subject: "u", Issuer: "medconnect", TTL: -time.Minute})

	mw := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: "medconnect"})
	for name, token := range map[string]string{"wrong key": wrongKey, "wrong issuer": wrongIssuer, "expired": expired} {
		t.Run(name, func(t *testing.T) {
			_, err := runMiddleware(t, mw, "Bearer "+token, okHandler)
			assertHTTPCode(t, err, http.StatusUnauthorized)
		})
	}
}

func TestDevAuthMiddleware_GrantsAdmin(t *testing.T) {
	var actor Actor
	_, err := runMiddleware(t, DevAuthMiddleware(), "", func(c echo.Context) error {
		actor, _ = ActorFromContext(c.Request().Context())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !actor.HasRole(RoleAdmin) {
		t.Errorf("expected admin actor, got %+v", actor)
	}
}

func TestIssueToken_EmptyKey(t *testing.T) {
	if _, err := IssueToken(nil, TokenRequest{Subject: "u"}); err == nil {
		t.Fatal("expected error for empty key")
	}
}
