package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/anonto42/microsocial/backend/internal/models"
	"github.com/anonto42/microsocial/backend/internal/repositories"
	"github.com/anonto42/microsocial/backend/internal/services"
	"github.com/anonto42/microsocial/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository    repositories.PostRepository
	commentRepository repositories.CommentRepository
	userRepository    repositories.UserRepository
	followService     *services.FollowService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	userRepo repositories.UserRepository,
	followService *services.FollowService,
) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		commentRepository: commentRepo,
		userRepository:    userRepo,
		followService:     followService,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// EnrichedPost is a post with its author's public info
type EnrichedPost struct {
	models.Post
	Author models.UserCompact `json:"author"`
}

// CreatePost creates a new post authored by the caller
func (h *PostHandler) CreatePost(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post := &models.Post{
		AuthorID: actor.ID,
		Content:  req.Content,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusCreated, post)
}

// GetPost returns a post if the caller may see its author's content
func (h *PostHandler) GetPost(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.visiblePost(ctx, actor, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}

	return success(c, http.StatusOK, enrichPosts(ctx, h.userRepository, []models.Post{*post})[0])
}

// UpdatePost edits a post; only the author or an admin may do so
func (h *PostHandler) UpdatePost(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	postID := c.Param("id")
	post, err := h.ownedPost(ctx, actor, postID)
	if err != nil {
		return serviceError(c, err)
	}

	if err := h.postRepository.UpdatePostContent(ctx, postID, req.Content); err != nil {
		return serviceError(c, err)
	}
	post.Content = req.Content

	return success(c, http.StatusOK, post)
}

// DeletePost removes a post and its comments; only the author or an admin may do so
func (h *PostHandler) DeletePost(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	postID := c.Param("id")
	if _, err := h.ownedPost(ctx, actor, postID); err != nil {
		return serviceError(c, err)
	}

	if err := h.postRepository.DeletePost(ctx, postID); err != nil {
		return serviceError(c, err)
	}
	if err := h.commentRepository.DeleteCommentsByPostID(ctx, postID); err != nil {
		logger.WithComponent("posts").WithError(err).WithField("post_id", postID).Warn("orphaned comments left behind")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetUserPosts lists one author's posts, newest first, if the caller may see them
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	authorID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	allowed, err := h.followService.CanViewContent(ctx, actor.ID, authorID)
	if err != nil {
		return serviceError(c, err)
	}
	if !allowed && !actor.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "This account is private")
	}

	page, limit := pageParams(c, 10)
	posts, total, err := h.postRepository.GetPostsByAuthors(ctx, []uint{authorID}, int64((page-1)*limit), int64(limit))
	if err != nil {
		return serviceError(c, err)
	}

	return paginated(c, "posts", enrichPosts(ctx, h.userRepository, posts), page, limit, total)
}

func (h *PostHandler) visiblePost(ctx context.Context, actor services.Actor, postID string) (*models.Post, error) {
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, services.ErrPostNotFound
	}
	if actor.IsAdmin() {
		return post, nil
	}
	allowed, err := h.followService.CanViewContent(ctx, actor.ID, post.AuthorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		// private author: don't reveal the post exists
		return nil, services.ErrPostNotFound
	}
	return post, nil
}

func (h *PostHandler) ownedPost(ctx context.Context, actor services.Actor, postID string) (*models.Post, error) {
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, services.ErrPostNotFound
	}
	if err := services.Authorize(actor, post.AuthorID); err != nil {
		return nil, err
	}
	return post, nil
}

// enrichPosts attaches author info; authors that no longer exist are left blank
func enrichPosts(ctx context.Context, users repositories.UserRepository, posts []models.Post) []EnrichedPost {
	authors := make(map[uint]models.UserCompact)
	enriched := make([]EnrichedPost, len(posts))
	for i, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok {
			if user, err := users.GetUserByID(ctx, p.AuthorID); err == nil && user != nil {
				author = user.ToCompact()
			}
			authors[p.AuthorID] = author
		}
		enriched[i] = EnrichedPost{Post: p, Author: author}
	}
	return enriched
}

// maxPage keeps (page-1)*limit far from overflowing the skip
const maxPage = 100000

func pageParams(c echo.Context, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 || limit > 50 {
		limit = defaultLimit
	}
	return page, limit
}

func paginated(c echo.Context, key string, items interface{}, page, limit int, total int64) error {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{key: items},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}
