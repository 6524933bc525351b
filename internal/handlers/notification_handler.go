package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const recentNotificationsLimit = 10

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/recent", h.GetRecentNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications", h.ClearAll)
}

// EnrichedNotification includes the related user, if any
type EnrichedNotification struct {
	models.Notification
	RelatedUser *models.UserCompact `json:"related_user,omitempty"`
}

func (h *NotificationHandler) enrichNotifications(ctx context.Context, notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[uint]*models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if n.RelatedUserID == nil {
			continue
		}
		relatedID := *n.RelatedUserID
		compact, ok := userCache[relatedID]
		if !ok {
			user, err := h.userRepository.GetUserByID(ctx, relatedID)
			if err == nil && user != nil {
				c := user.ToCompact()
				compact = &c
			}
			userCache[relatedID] = compact
		}
		enriched[i].RelatedUser = compact
	}
	return enriched
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	page, limit := pageParams(c, 20)

	ctx := c.Request().Context()
	notifications, total, err := h.notificationRepository.GetByRecipientID(ctx, actor.ID, page, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return paginated(c, "notifications", h.enrichNotifications(ctx, notifications), page, limit, total)
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	groups, err := h.notificationRepository.GetGrouped(ctx, actor.ID, time.Now())
	if err != nil {
		return serviceError(c, err)
	}
	unreadCount, err := h.notificationRepository.GetUnreadCount(ctx, actor.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, echo.Map{
		"notifications": echo.Map{
			"today":     h.enrichNotifications(ctx, groups.Today),
			"yesterday": h.enrichNotifications(ctx, groups.Yesterday),
			"thisWeek":  h.enrichNotifications(ctx, groups.ThisWeek),
			"older":     h.enrichNotifications(ctx, groups.Older),
		},
		"unreadCount": unreadCount,
	})
}

// GetRecentNotifications returns the latest few notifications for the header dropdown
func (h *NotificationHandler) GetRecentNotifications(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	notifications, _, err := h.notificationRepository.GetByRecipientID(ctx, actor.ID, 1, recentNotificationsLimit)
	if err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"notifications": h.enrichNotifications(ctx, notifications)})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), actor.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	notifID, err := parseUintParam(c, "id", "notification ID")
	if err != nil {
		return err
	}

	updated, err := h.notificationRepository.MarkAsRead(c.Request().Context(), notifID, actor.ID)
	if err != nil {
		return serviceError(c, err)
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	return success(c, http.StatusOK, echo.Map{"read": true})
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), actor.ID); err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"read": true})
}

// ClearAll deletes every notification of the caller
func (h *NotificationHandler) ClearAll(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	deleted, err := h.notificationRepository.DeleteAll(c.Request().Context(), actor.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"deleted": deleted})
}
