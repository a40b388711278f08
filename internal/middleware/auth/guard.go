package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cocoiru/internal/logging"
	"github.com/Skotchmaster/cocoiru/internal/service"
)

const (
	CtxIdentity = "identity"
	CtxSubject  = "subject"
	CtxRole     = "role"
)

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*service.Identity, error)
}

type Guard struct {
	Auth         Authenticator
	SecureCookie bool
}

func NewGuard(a Authenticator, secureCookie bool) *Guard {
	return &Guard{Auth: a, SecureCookie: secureCookie}
}

// TokenFromRequest returns the bearer token and whether it came from the cookie.
// A non-empty cookie always wins over the Authorization header.
func TokenFromRequest(c echo.Context) (string, bool) {
	if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	parts := strings.Fields(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1], false
	}
	return "", false
}

func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, fromCookie := TokenFromRequest(c)

		id, err := g.Auth.Authenticate(c.Request().Context(), raw)
		if err != nil {
			if fromCookie && service.IsUnauthenticated(err) {
				c.SetCookie(DeleteCookie(g.SecureCookie))
			}
			return Reject(c, err)
		}

		c.Set(CtxIdentity, id)
		c.Set(CtxSubject, id.Subject)
		c.Set(CtxRole, id.Role)
		ctx := logging.With(c.Request().Context(), "subject", id.Subject, "role", id.Role)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// Reject maps a guard or role gate failure to its HTTP error.
// Revoked and invalid tokens share one message.
func Reject(c echo.Context, err error) error {
	l := logging.FromContext(c.Request().Context()).With("mw", "auth")
	switch {
	case errors.Is(err, service.ErrMissingToken):
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	case service.IsUnauthenticated(err):
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, service.ErrInsufficientRole):
		return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
	default:
		l.Error("auth_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func IdentityFrom(c echo.Context) *service.Identity {
	id, _ := c.Get(CtxIdentity).(*service.Identity)
	return id
}
