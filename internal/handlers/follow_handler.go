package handlers

import (
	"net/http"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/anonto42/microsocial/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler exposes the follow relationship lifecycle over HTTP
type FollowHandler struct {
	followService  *services.FollowService
	userRepository repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followService *services.FollowService, userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{
		followService:  followService,
		userRepository: userRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.DELETE("/users/:id/follow-request", h.CancelFollowRequest)
	g.GET("/users/:id/follow-status", h.GetFollowStatus)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)

	g.GET("/follow-requests", h.GetPendingRequests)
	g.POST("/follow-requests/:id/accept", h.AcceptRequest)
	g.POST("/follow-requests/:id/reject", h.RejectRequest)
}

// FollowUser sends a follow request; public targets are followed immediately
func (h *FollowHandler) FollowUser(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	edge, err := h.followService.SendFollowRequest(c.Request().Context(), actor.ID, targetID)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, echo.Map{
		"following": edge.Status == models.FollowAccepted,
		"status":    edge.Status,
		"follow":    edge,
	})
}

// UnfollowUser removes an accepted follow. Unfollowing someone you don't follow succeeds.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	if err := h.followService.Unfollow(c.Request().Context(), actor.ID, targetID); err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"following": false})
}

// CancelFollowRequest withdraws the caller's pending request to a private account
func (h *FollowHandler) CancelFollowRequest(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	if err := h.followService.CancelRequest(c.Request().Context(), actor.ID, targetID); err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"requested": false})
}

// GetFollowStatus reports the caller's relationship to a user
func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	status, err := h.followService.FollowStatus(ctx, actor.ID, targetID)
	if err != nil {
		return serviceError(c, err)
	}
	followsYou, err := h.followService.IsAccepted(ctx, targetID, actor.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, echo.Map{
		"status":      status,
		"following":   status == string(models.FollowAccepted),
		"follows_you": followsYou,
	})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	users, err := h.followService.ListFollowers(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	userID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	users, err := h.followService.ListFollowing(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

// GetPendingRequests lists requests waiting for the caller's decision
func (h *FollowHandler) GetPendingRequests(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	pending, err := h.followService.ListPendingRequests(ctx, actor.ID)
	if err != nil {
		return serviceError(c, err)
	}

	views := make([]models.FollowRequestView, 0, len(pending))
	for _, f := range pending {
		requester, err := h.userRepository.GetUserByID(ctx, f.FollowerID)
		if err != nil {
			return serviceError(c, err)
		}
		if requester == nil {
			// account deleted after requesting
			continue
		}
		views = append(views, models.FollowRequestView{Follow: f, Requester: requester.ToCompact()})
	}

	return success(c, http.StatusOK, echo.Map{"requests": views})
}

func (h *FollowHandler) AcceptRequest(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	requestID, err := parseUintParam(c, "id", "request ID")
	if err != nil {
		return err
	}

	if err := h.followService.Accept(c.Request().Context(), requestID, actor.ID); err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"status": models.FollowAccepted})
}

func (h *FollowHandler) RejectRequest(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	requestID, err := parseUintParam(c, "id", "request ID")
	if err != nil {
		return err
	}

	if err := h.followService.Reject(c.Request().Context(), requestID, actor.ID); err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"status": models.FollowRejected})
}

func compactUsers(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return out
}
