package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/anonto42/microsocial/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const searchResultLimit = 20

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
	followService  *services.FollowService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followService *services.FollowService) *UserHandler {
	return &UserHandler{userRepository: userRepo, followService: followService}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/:id", h.UpdateUser)
	g.DELETE("/users/:id", h.DeleteUser)
}

// GetProfile returns the authenticated user's own account
func (h *UserHandler) GetProfile(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), actor.ID)
	if err != nil {
		return serviceError(c, err)
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	return success(c, http.StatusOK, user)
}

// GetUser renders another user's profile as seen by the caller
func (h *UserHandler) GetUser(c echo.Context) error {
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	viewerID := getUserIDFromContext(c)
	ctx := c.Request().Context()

	target, err := h.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		return serviceError(c, err)
	}
	if target == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}

	view := models.ProfileView{
		User:         target.ToCompact(),
		IsMe:         viewerID == target.ID,
		FollowStatus: models.FollowStatusNone,
	}
	if viewerID != 0 && !view.IsMe {
		if view.FollowStatus, err = h.followService.FollowStatus(ctx, viewerID, target.ID); err != nil {
			return serviceError(c, err)
		}
	}
	if view.CanViewContent, err = h.followService.CanViewContent(ctx, viewerID, target.ID); err != nil {
		return serviceError(c, err)
	}
	if view.FollowersCount, err = h.followService.FollowerCount(ctx, target.ID); err != nil {
		return serviceError(c, err)
	}
	if view.FollowingCount, err = h.followService.FollowingCount(ctx, target.ID); err != nil {
		return serviceError(c, err)
	}
	if view.CanViewContent {
		view.Description = target.Description
	}

	return success(c, http.StatusOK, view)
}

// UpdateUser edits a profile; only the owner or an admin may do so
func (h *UserHandler) UpdateUser(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		return serviceError(c, err)
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	if err := services.Authorize(actor, user.ID); err != nil {
		return serviceError(c, err)
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Description != nil {
		user.Description = *req.Description
	}
	if req.IsPrivate != nil {
		user.IsPrivate = *req.IsPrivate
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, user)
}

// DeleteUser removes an account; only the owner or an admin may do so
func (h *UserHandler) DeleteUser(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		return serviceError(c, err)
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}
	if err := services.Authorize(actor, user.ID); err != nil {
		return serviceError(c, err)
	}

	if err := h.userRepository.DeleteUser(ctx, user.ID); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchUsers searches for users by a query string (email or name)
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query, searchResultLimit)
	if err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}
