package loggingmw

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cocoiru/internal/logging"
)

// subjectKey matches the key the auth guard stores the token subject under.
const subjectKey = "subject"

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// RequestLogger puts a request-scoped logger into the request context and writes
// one record per request. Errors are rendered here so the logged status is final.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"route", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			if sub, ok := c.Get(subjectKey).(string); ok {
				attrs = append(attrs, "subject", sub)
			}
			if err != nil && status >= http.StatusInternalServerError {
				attrs = append(attrs, "error", err.Error())
			}
			if status < http.StatusBadRequest {
				attrs = append(attrs, "bytes", c.Response().Size)
			}

			l.Log(context.Background(), levelFor(status), "request", attrs...)
			return nil
		}
	}
}
