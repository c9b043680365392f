package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts. Reads go to the
// durable store only; the counter fields on the returned documents are the
// trigger engine's eventually-consistent mirror of the ledger.
type PostHandler struct {
	ledger                 ledger.Ledger
	postRepository         repositories.PostRepository
	commentRepository      repositories.CommentRepository
	notificationRepository repositories.NotificationRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(led ledger.Ledger, postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, notifRepo repositories.NotificationRepository) *PostHandler {
	return &PostHandler{
		ledger:                 led,
		postRepository:         postRepo,
		commentRepository:      commentRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/:post_id", h.GetPost)
	g.GET("/users/:id/posts", h.GetUserPosts)
	g.PUT("/posts/:post_id", h.UpdatePost)
	g.DELETE("/posts/:post_id", h.DeletePost)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	uid := actorID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	req := new(models.CreatePostRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post := &models.Post{
		UserID:    uid,
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a single post
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return c.JSON(http.StatusOK, post)
}

func paging(c echo.Context) (skip, limit int64) {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ = strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return (page - 1) * limit, limit
}

// GetPosts retrieves all posts with pagination
func (h *PostHandler) GetPosts(c echo.Context) error {
	skip, limit := paging(c)
	posts, err := h.postRepository.GetAllPosts(c.Request().Context(), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": posts}})
}

// GetUserPosts retrieves posts authored by one user
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	skip, limit := paging(c)
	posts, err := h.postRepository.GetPostsByUserID(c.Request().Context(), c.Param("id"), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": posts}})
}

// UpdatePost updates the caller's own post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	uid := actorID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	existing, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if existing.UserID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot edit another user's post")
	}

	req := new(models.UpdatePostRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Content != "" {
		existing.Content = req.Content
	}
	if req.ImageURLs != nil {
		existing.ImageURLs = req.ImageURLs
	}
	if err := h.postRepository.UpdatePost(c.Request().Context(), postID, existing); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, existing)
}

// DeletePost deletes the caller's own post and kicks off the best-effort
// cascade: ledger subtree, comment rows, and notifications referencing the
// post. An in-flight fan-out may still land an orphaned notification; the
// cascade is cleanup, not a transaction.
func (h *PostHandler) DeletePost(c echo.Context) error {
	uid := actorID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	existing, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if existing.UserID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot delete another user's post")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// The context goes back to the pool when this handler returns; only the
	// shared logger may outlive it.
	logger := c.Echo().Logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		entity := ledger.Entity{Kind: models.EntityPost, ID: postID}
		if err := h.ledger.RemoveEntity(ctx, entity); err != nil {
			logger.Errorf("ledger cascade for post %s: %v", postID, err)
		}
		if err := h.commentRepository.DeleteByPostID(ctx, postID); err != nil {
			logger.Errorf("comment cascade for post %s: %v", postID, err)
		}
		if err := h.notificationRepository.DeleteByEntity(ctx, postID); err != nil {
			logger.Errorf("notification cascade for post %s: %v", postID, err)
		}
	}()

	return c.NoContent(http.StatusNoContent)
}
