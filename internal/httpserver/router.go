package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cocoiru/internal/db"
	"github.com/Skotchmaster/cocoiru/internal/middleware"
	"github.com/Skotchmaster/cocoiru/internal/middleware/auth"
	"github.com/Skotchmaster/cocoiru/internal/models"
	"github.com/Skotchmaster/cocoiru/internal/service"
)

type Deps struct {
	Svc          *service.AuthService
	DB           *gorm.DB
	Logger       *slog.Logger
	SecureCookie bool
}

// New builds the echo instance with the common middleware and all routes.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(ecM.RemoveTrailingSlash())
	for _, m := range middleware.Common(d.Logger) {
		e.Use(m)
	}
	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})

	authHTTP := &AuthHTTP{Svc: d.Svc, SecureCookie: d.SecureCookie}
	communities := &CommunityHTTP{Svc: d.Svc}
	govUsers := &GovUserHTTP{Svc: d.Svc}

	guard := auth.NewGuard(d.Svc, d.SecureCookie)
	authn := guard.RequireAuth
	govOnly := auth.RequireRole(models.RoleGov)

	api := e.Group("/api/v1")

	api.POST("/token", authHTTP.Token)
	api.POST("/validate", authHTTP.Validate)
	api.POST("/login/login", authHTTP.CookieLogin)
	api.POST("/login/logout", authHTTP.Logout, authn)
	api.GET("/login/me", authHTTP.Me, authn)

	api.POST("/communities", communities.Register)
	api.GET("/communities", communities.List, authn, govOnly)
	api.GET("/communities/:id", communities.Get, authn)

	api.POST("/government/users", govUsers.Create, authn, govOnly)
}
