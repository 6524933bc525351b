package handlers

import (
	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/anonto42/microsocial/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	followService  *services.FollowService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, followService *services.FollowService) *FeedHandler {
	return &FeedHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		followService:  followService,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the caller's posts and those of accounts they follow,
// newest first. Admins see every post.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	page, limit := pageParams(c, 10)
	skip := int64((page - 1) * limit)
	ctx := c.Request().Context()

	var (
		posts []models.Post
		total int64
	)
	if actor.IsAdmin() {
		posts, total, err = h.postRepository.GetAllPosts(ctx, skip, int64(limit))
	} else {
		var authorIDs []uint
		authorIDs, err = h.followService.FollowingIDs(ctx, actor.ID)
		if err != nil {
			return serviceError(c, err)
		}
		authorIDs = append(authorIDs, actor.ID)
		posts, total, err = h.postRepository.GetPostsByAuthors(ctx, authorIDs, skip, int64(limit))
	}
	if err != nil {
		return serviceError(c, err)
	}

	return paginated(c, "posts", enrichPosts(ctx, h.userRepository, posts), page, limit, total)
}
