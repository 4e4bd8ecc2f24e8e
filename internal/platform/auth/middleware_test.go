package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinrec/clinrec/internal/domain/identity"
	"github.com/clinrec/clinrec/internal/platform/reqctx"
)

type fakeResolver struct {
	id      *identity.Identity
	err     error
	called  bool
	claims  map[string]any
}

func (r *fakeResolver) Resolve(ctx context.Context, claims map[string]any) (*identity.Identity, error) {
	r.called = true
	r.claims = claims
	if r.err != nil {
		return nil, r.err
	}
	return r.id, nil
}

func testVerifier() *Verifier {
	return NewVerifier(VerifierConfig{SigningKey: testSigningKey})
}

func newAuthedContext(t *testing.T, header string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	// The request scope middleware runs before authentication in the real
	// chain; mirror that here.
	req = req.WithContext(reqctx.WithRequestScope(req.Context()))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return c.String(http.StatusOK, "ok")
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	resolver := &fakeResolver{}
	mw := Middleware(testVerifier(), resolver, zerolog.Nop())

	c, _ := newAuthedContext(t, "")
	var called bool
	err := mw(okHandler(&called))(c)

	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if resolver.called {
		t.Error("resolver must not run when the header is missing")
	}
	if called {
		t.Error("handler must not run")
	}
}

func TestMiddleware_InvalidHeaderFormat(t *testing.T) {
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
			resolver := &fakeResolver{}
			mw := Middleware(testVerifier(), resolver, zerolog.Nop())

			c, _ := newAuthedContext(t, tt.header)
			var called bool
			err := mw(okHandler(&called))(c)

			httpErr := &echo.HTTPError{}
			if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
			if resolver.called || called {
				t.Error("nothing downstream may run on a bad header")
			}
		})
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	resolver := &fakeResolver{}
	mw := Middleware(testVerifier(), resolver, zerolog.Nop())

	c, _ := newAuthedContext(t, "Bearer not-a-real-token")
	var called bool
	err := mw(okHandler(&called))(c)

	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if resolver.called {
		t.Error("resolver must not run on an invalid token")
	}
}

func TestMiddleware_ResolverFailureRejects(t *testing.T) {
	resolver := &fakeResolver{err: identity.ErrNoValidRole}
	mw := Middleware(testVerifier(), resolver, zerolog.Nop())

	tokenStr := signedToken(t, jwt.MapClaims{
		"email": "a@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSigningKey)

	c, _ := newAuthedContext(t, "Bearer "+tokenStr)
	var called bool
	err := mw(okHandler(&called))(c)

	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	// No partial context: the scope stays unauthenticated.
	if _, ok := reqctx.AuthFrom(c.Request().Context()); ok {
		t.Error("auth context must not be written on resolver failure")
	}
	if called {
		t.Error("handler must not run")
	}
}

func TestMiddleware_Success(t *testing.T) {
	id := &identity.Identity{
		Email:    "a@example.com",
		Name:     "Ada",
		Role:     identity.RoleStaff,
		ClinicID: "clinic-1",
	}
	resolver := &fakeResolver{id: id}
	mw := Middleware(testVerifier(), resolver, zerolog.Nop())

	tokenStr := signedToken(t, jwt.MapClaims{
		"email": "A@EXAMPLE.com",
		"roles": []string{"STAFF"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSigningKey)

	c, _ := newAuthedContext(t, "Bearer "+tokenStr)
	var called bool
	if err := mw(okHandler(&called))(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if !called {
		t.Fatal("handler not invoked")
	}

	// The verified claims reach the resolver untouched.
	if resolver.claims["email"] != "A@EXAMPLE.com" {
		t.Errorf("resolver saw claims %v", resolver.claims)
	}

	// Identity is attached for explicit use and recorded in the scope.
	if got := IdentityFrom(c); got != id {
		t.Error("identity not attached to echo context")
	}
	ac, ok := reqctx.AuthFrom(c.Request().Context())
	if !ok {
		t.Fatal("auth context not recorded")
	}
	if ac.ClinicID != "clinic-1" || ac.Email != "a@example.com" || ac.Role != "STAFF" {
		t.Errorf("unexpected auth context %+v", ac)
	}
}

func TestMiddleware_NoRequestScopeIsServerError(t *testing.T) {
	id := &identity.Identity{Email: "a@example.com", Role: identity.RoleStaff, ClinicID: "c1"}
	resolver := &fakeResolver{id: id}
	mw := Middleware(testVerifier(), resolver, zerolog.Nop())

	tokenStr := signedToken(t, jwt.MapClaims{
		"email": "a@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSigningKey)

	// Deliberately skip reqctx.WithRequestScope: this is the miswired chain.
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var called bool
	err := mw(okHandler(&called))(c)

	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing request scope, got %v", err)
	}
	if called {
		t.Error("handler must not run")
	}
}

func TestDevMiddleware(t *testing.T) {
	mw := DevMiddleware("default")

	c, _ := newAuthedContext(t, "")
	var called bool
	if err := mw(okHandler(&called))(c); err != nil {
		t.Fatalf("dev middleware: %v", err)
	}
	if !called {
		t.Fatal("handler not invoked")
	}

	id := IdentityFrom(c)
	if id == nil || id.Role != identity.RoleAdmin {
		t.Fatalf("expected dev admin identity, got %+v", id)
	}
	if got := reqctx.ClinicIDFrom(c.Request().Context()); got != "default" {
		t.Errorf("clinic id = %q", got)
	}
}
