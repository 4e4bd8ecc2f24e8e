package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinrec/clinrec/internal/domain/identity"
)

func contextWithRole(t *testing.T, role identity.Role) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(IdentityKey, &identity.Identity{Email: "u@example.com", Role: role, ClinicID: "c1"})
	return c
}

func TestRequireRole_Allowed(t *testing.T) {
	c := contextWithRole(t, identity.RoleClinician)

	var called bool
	mw := RequireRole(identity.RoleAdmin, identity.RoleClinician)
	if err := mw(okHandler(&called))(c); err != nil {
		t.Fatalf("RequireRole: %v", err)
	}
	if !called {
		t.Fatal("handler not invoked")
	}
}

func TestRequireRole_Insufficient(t *testing.T) {
	c := contextWithRole(t, identity.RoleNurse)

	var called bool
	mw := RequireRole(identity.RoleAdmin, identity.RoleClinician)
	err := mw(okHandler(&called))(c)

	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if !errors.Is(httpErr.Internal, ErrInsufficientRole) {
		t.Errorf("internal error = %v", httpErr.Internal)
	}
	if called {
		t.Error("handler must not run")
	}
}

func TestRequireRole_EmptySetAllowsAnyAuthenticated(t *testing.T) {
	for _, role := range identity.AllRoles {
		c := contextWithRole(t, role)

		var called bool
		if err := RequireRole()(okHandler(&called))(c); err != nil {
			t.Fatalf("role %s: %v", role, err)
		}
		if !called {
			t.Errorf("role %s: handler not invoked", role)
		}
	}
}

func TestRequireRole_NoAuthenticatedUser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var called bool
	err := RequireRole(identity.RoleAdmin)(okHandler(&called))(c)

	httpErr := &echo.HTTPError{}
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if !errors.Is(httpErr.Internal, ErrNoAuthenticatedUser) {
		t.Errorf("internal error = %v", httpErr.Internal)
	}
	if called {
		t.Error("handler must not run")
	}

	// The empty set still requires authentication.
	err = RequireRole()(okHandler(&called))(c)
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for empty set without identity, got %v", err)
	}
}
