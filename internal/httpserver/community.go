package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cocoiru/internal/middleware/auth"
	"github.com/Skotchmaster/cocoiru/internal/service"
	"github.com/Skotchmaster/cocoiru/internal/util"
)

type CommunityHTTP struct {
	Svc *service.AuthService
}

func (h *CommunityHTTP) Register(c echo.Context) error {
	var in service.CommunityInput
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	community, err := h.Svc.RegisterCommunity(c.Request().Context(), in)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, community)
}

func (h *CommunityHTTP) List(c echo.Context) error {
	page := util.Atoi(c.QueryParam("page"), 1)
	size := util.Atoi(c.QueryParam("size"), util.DefaultPageSize)
	list, err := h.Svc.ListCommunities(c.Request().Context(), page, size)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CommunityHTTP) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	community, err := h.Svc.Community(c.Request().Context(), auth.IdentityFrom(c), uint(id))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, community)
}

type GovUserHTTP struct {
	Svc *service.AuthService
}

func (h *GovUserHTTP) Create(c echo.Context) error {
	var in service.GovUserInput
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	u, err := h.Svc.RegisterGovUser(c.Request().Context(), in)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}
