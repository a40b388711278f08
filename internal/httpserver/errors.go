package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cocoiru/internal/logging"
	"github.com/Skotchmaster/cocoiru/internal/middleware/auth"
	"github.com/Skotchmaster/cocoiru/internal/service"
)

// httpError is the single place service errors become HTTP statuses.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrMissingDiscriminant), errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "already exists")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case service.IsUnauthenticated(err), errors.Is(err, service.ErrInsufficientRole):
		return auth.Reject(c, err)
	}
	logging.FromContext(c.Request().Context()).Error("request_failed", "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func badBody(c echo.Context, err error) error {
	logging.FromContext(c.Request().Context()).Warn("bind_error", "status", 400, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}
