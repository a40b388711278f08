package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/cocoiru/internal/middleware/logging"
)

func Common(base *slog.Logger) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		loggingmw.RequestLogger(base),
		ecM.Secure(),
		ecM.BodyLimit("1M"),
	}
}
