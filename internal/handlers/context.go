package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/microsocial/backend/internal/middleware"
	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/services"
	"github.com/anonto42/microsocial/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the authenticated user's id, or 0
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(middleware.ContextKeyUser).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// actorFromContext returns the authenticated principal, zero-valued if anonymous
func actorFromContext(c echo.Context) services.Actor {
	claims, ok := c.Get(middleware.ContextKeyUser).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return services.Actor{}
	}
	return services.Actor{ID: claims.UserID, Role: claims.Role}
}

func requireActor(c echo.Context) (services.Actor, error) {
	actor := actorFromContext(c)
	if actor.ID == 0 {
		return actor, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return actor, nil
}

func parseUintParam(c echo.Context, name, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what)
	}
	return uint(id), nil
}

// serviceError turns a service or repository error into an HTTP error.
// Internal failures are logged and hidden from the client.
func serviceError(c echo.Context, err error) error {
	code := services.StatusCode(err)
	if code == http.StatusInternalServerError {
		logger.WithComponent("http").
			WithError(err).
			WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Error("internal error")
		return echo.NewHTTPError(code, "Internal server error")
	}
	return echo.NewHTTPError(code, err.Error())
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// normalizer is implemented by requests that clean up their fields before validation
type normalizer interface {
	Normalize()
}

// bindAndValidate binds the request body into req and runs struct validation
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if n, ok := req.(normalizer); ok {
		n.Normalize()
	}
	return c.Validate(req)
}
