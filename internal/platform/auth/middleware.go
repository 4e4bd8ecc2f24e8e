package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinrec/clinrec/internal/domain/identity"
	"github.com/clinrec/clinrec/internal/platform/reqctx"
)

// ErrMissingOrInvalidAuthHeader is returned when the Authorization header is
// absent or not a Bearer credential.
var ErrMissingOrInvalidAuthHeader = errors.New("auth: missing or invalid authorization header")

// IdentityKey is the echo context key under which the resolved identity is
// attached for handlers that want it explicitly.
const IdentityKey = "auth_identity"

// Resolver maps verified claims to a stored identity. Implemented by
// identity.Resolver; declared here so the middleware can be tested with a
// fake.
type Resolver interface {
	Resolve(ctx context.Context, claims map[string]any) (*identity.Identity, error)
}

// Middleware is the authentication gate. It extracts the bearer token,
// verifies it, resolves the local identity, and records the identity in the
// request scope. Any failure rejects the request before downstream logic
// runs; the scope is never left half-populated.
func Middleware(verifier *Verifier, resolver Resolver, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := bearerToken(c.Request())
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid authorization header").SetInternal(err)
			}

			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				logger.Debug().Err(err).Msg("token verification failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			ctx := c.Request().Context()
			id, err := resolver.Resolve(ctx, claims)
			if err != nil {
				logger.Debug().Err(err).Msg("identity resolution failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "identity resolution failed").SetInternal(err)
			}

			if err := reqctx.SetAuth(ctx, reqctx.AuthContext{
				UserID:   id.ID.String(),
				ClinicID: id.ClinicID,
				Role:     string(id.Role),
				Email:    id.Email,
			}); err != nil {
				// Missing scope means the middleware chain is miswired.
				// This is a structural bug, so fail loudly.
				logger.Error().Err(err).Msg("request scope not established before authentication")
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}

			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

// DevMiddleware is a permissive gate for local development: requests without
// credentials run as a default admin in the default clinic.
func DevMiddleware(defaultClinicID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := &identity.Identity{
				Email:    "dev@localhost",
				Name:     "Dev User",
				Role:     identity.RoleAdmin,
				ClinicID: defaultClinicID,
			}
			_ = reqctx.SetAuth(c.Request().Context(), reqctx.AuthContext{
				UserID:   "dev-user",
				ClinicID: id.ClinicID,
				Role:     string(id.Role),
				Email:    id.Email,
			})
			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity attached by the authentication gate, or
// nil when authentication has not run for this request.
func IdentityFrom(c echo.Context) *identity.Identity {
	id, _ := c.Get(IdentityKey).(*identity.Identity)
	return id
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingOrInvalidAuthHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingOrInvalidAuthHeader
	}
	return parts[1], nil
}
