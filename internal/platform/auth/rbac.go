package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinrec/clinrec/internal/domain/identity"
)

var (
	// ErrNoAuthenticatedUser is returned when an authorization check runs
	// without a preceding successful authentication. Middleware ordering is
	// the router's responsibility; this is a defensive check.
	ErrNoAuthenticatedUser = errors.New("auth: no authenticated user")

	// ErrInsufficientRole is returned when the caller's role is not in the
	// operation's required set.
	ErrInsufficientRole = errors.New("auth: insufficient role")
)

// RequireRole is the authorization gate. An empty role list means "no
// restriction": any authenticated caller passes. Otherwise the caller's
// resolved role must be a member of the given set.
func RequireRole(roles ...identity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityFrom(c)
			if id == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "no authenticated user").SetInternal(ErrNoAuthenticatedUser)
			}

			if len(roles) == 0 {
				return next(c)
			}

			for _, required := range roles {
				if id.Role == required {
					return next(c)
				}
			}

			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(names, " or "))).SetInternal(ErrInsufficientRole)
		}
	}
}
