package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cocoiru/internal/service"
)

// RequireRole must run after Guard.RequireAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := service.Require(IdentityFrom(c), roles...); err != nil {
				return Reject(c, err)
			}
			return next(c)
		}
	}
}
