package reqctx

import (
	"github.com/labstack/echo/v4"
)

// Middleware installs a fresh request scope on every inbound request. It must
// be registered before the authentication middleware; the scope is discarded
// with the request context when the request completes.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := WithRequestScope(c.Request().Context())
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
