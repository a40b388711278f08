package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cocoiru/internal/logging"
	"github.com/Skotchmaster/cocoiru/internal/middleware/auth"
	"github.com/Skotchmaster/cocoiru/internal/service"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	SecureCookie bool
}

func (h *AuthHTTP) login(c echo.Context) (*service.LoginResult, error) {
	var req service.LoginRequest
	if err := c.Bind(&req); err != nil {
		return nil, badBody(c, err)
	}
	res, err := h.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return nil, httpError(c, err)
	}
	return res, nil
}

func toTokenResponse(res *service.LoginResult) tokenResponse {
	return tokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		ExpiresIn:   res.ExpiresIn,
		Role:        res.Role,
	}
}

// Token returns the access token in the body only.
func (h *AuthHTTP) Token(c echo.Context) error {
	res, err := h.login(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTokenResponse(res))
}

// CookieLogin also sets the token as an HttpOnly cookie.
func (h *AuthHTTP) CookieLogin(c echo.Context) error {
	res, err := h.login(c)
	if err != nil {
		return err
	}
	c.SetCookie(auth.CreateCookie(res.AccessToken, h.Svc.Issuer.TTL(), h.SecureCookie))
	return c.JSON(http.StatusOK, toTokenResponse(res))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	id := auth.IdentityFrom(c)
	if id == nil {
		return auth.Reject(c, service.ErrMissingToken)
	}
	if err := h.Svc.Logout(ctx, id.Token); err != nil {
		return httpError(c, err)
	}

	c.SetCookie(auth.DeleteCookie(h.SecureCookie))
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	id := auth.IdentityFrom(c)
	if id == nil {
		return auth.Reject(c, service.ErrMissingToken)
	}
	return c.JSON(http.StatusOK, meResponse{Subject: id.Subject, Role: id.Role, ExpiresAt: id.ExpiresAt})
}

// Validate checks credentials without issuing a token.
func (h *AuthHTTP) Validate(c echo.Context) error {
	var req service.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}
	ok, err := h.Svc.ValidateCredentials(c.Request().Context(), req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, validationResponse{Valid: ok})
}
