package handlers

import (
	"fmt"
	"net/http"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/anonto42/microsocial/backend/internal/services"
	"github.com/anonto42/microsocial/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	posts             *PostHandler
	userRepository    repositories.UserRepository
	notifier          services.NotificationSink
	log               *logrus.Entry
}

// NewCommentHandler creates a new CommentHandler. Post lookups and their
// visibility rules are shared with the PostHandler.
func NewCommentHandler(commentRepo repositories.CommentRepository, posts *PostHandler, userRepo repositories.UserRepository, notifier services.NotificationSink) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		posts:             posts,
		userRepository:    userRepo,
		notifier:          notifier,
		log:               logger.WithComponent("comments"),
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetCommentsByPostID)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// EnrichedComment is a comment with its author's public info
type EnrichedComment struct {
	models.Comment
	Author models.UserCompact `json:"author"`
}

// CreateComment comments on a post the caller can see and tells the post's author
func (h *CommentHandler) CreateComment(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.posts.visiblePost(ctx, actor, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	postID := post.ID.Hex()

	comment := &models.Comment{
		PostID:  postID,
		UserID:  actor.ID,
		Content: req.Content,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return serviceError(c, err)
	}

	if err := h.posts.postRepository.IncrementCommentsCount(ctx, postID, 1); err != nil {
		h.log.WithError(err).WithField("post_id", postID).Warn("comments count not incremented")
	}

	if post.AuthorID != actor.ID && h.notifier != nil {
		name := "Someone"
		if user, err := h.userRepository.GetUserByID(ctx, actor.ID); err == nil && user != nil && user.DisplayName != "" {
			name = user.DisplayName
		}
		err := h.notifier.Create(ctx, services.NotificationInput{
			RecipientID:   post.AuthorID,
			Type:          models.NotificationComment,
			Title:         "New comment",
			Body:          fmt.Sprintf("%s commented on your post", name),
			Link:          "/posts/" + postID,
			RelatedUserID: actor.ID,
		})
		if err != nil {
			h.log.WithError(err).WithField("post_id", postID).Warn("notification dropped")
		}
	}

	return success(c, http.StatusCreated, comment)
}

// GetCommentsByPostID lists a visible post's comments, oldest first
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.posts.visiblePost(ctx, actor, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}

	comments, err := h.commentRepository.GetCommentsByPostID(ctx, post.ID.Hex())
	if err != nil {
		return serviceError(c, err)
	}

	authors := make(map[uint]models.UserCompact)
	enriched := make([]EnrichedComment, len(comments))
	for i, cm := range comments {
		author, ok := authors[cm.UserID]
		if !ok {
			if user, err := h.userRepository.GetUserByID(ctx, cm.UserID); err == nil && user != nil {
				author = user.ToCompact()
			}
			authors[cm.UserID] = author
		}
		enriched[i] = EnrichedComment{Comment: cm, Author: author}
	}

	return success(c, http.StatusOK, echo.Map{"comments": enriched})
}

// DeleteComment removes a comment; only its author or an admin may do so
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id", "comment ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return serviceError(c, err)
	}
	if comment == nil {
		return serviceError(c, services.ErrCommentNotFound)
	}
	if err := services.Authorize(actor, comment.UserID); err != nil {
		return serviceError(c, err)
	}

	if err := h.commentRepository.DeleteComment(ctx, commentID); err != nil {
		return serviceError(c, err)
	}
	if err := h.posts.postRepository.IncrementCommentsCount(ctx, comment.PostID, -1); err != nil {
		h.log.WithError(err).WithField("post_id", comment.PostID).Warn("comments count not decremented")
	}

	return c.NoContent(http.StatusNoContent)
}
