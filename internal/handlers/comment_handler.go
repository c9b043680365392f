package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/koinonia-app/backend/internal/fanout"
	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment HTTP requests. Comments are append-only
// interactions: the ledger child record is the source of truth, the Postgres
// row is the queryable mirror, and the comment counter flows through the
// trigger pipeline like every other counter.
type CommentHandler struct {
	ledger            ledger.Ledger
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	fanout            *fanout.Service
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(led ledger.Ledger, commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, fan *fanout.Service) *CommentHandler {
	return &CommentHandler{
		ledger:            led,
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		fanout:            fan,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetComments)
	g.DELETE("/comments/:id", h.DeleteComment)
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9]{2,30})`)

// CreateComment appends a comment to a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	uid := actorID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	// Verify post exists
	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	req := new(models.CreateCommentRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var parent *models.Comment
	if req.ParentID != nil {
		var err error
		parent, err = h.commentRepository.GetCommentByID(*req.ParentID)
		if err != nil || parent.PostID != postID {
			return echo.NewHTTPError(http.StatusNotFound, "Parent comment not found")
		}
	}

	now := time.Now()
	entity := ledger.Entity{Kind: models.EntityPost, ID: postID}
	childID, _, err := h.ledger.AppendChild(c.Request().Context(), entity, models.KindComment, ledger.ChildRecord{
		ActorID:   uid,
		Content:   req.Content,
		CreatedAt: now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	comment := &models.Comment{
		LedgerID:  childID,
		PostID:    postID,
		ParentID:  req.ParentID,
		UserID:    uid,
		Content:   req.Content,
		CreatedAt: now,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Replies additionally notify the parent comment's author; the post
	// owner's comment notification came from the ledger append.
	if parent != nil {
		h.fanout.Enqueue(models.NotificationEvent{
			RecipientID: parent.UserID,
			ActorID:     uid,
			EntityID:    postID,
			EntityKind:  models.EntityPost,
			Kind:        models.KindReply,
			Preview:     req.Content,
			CreatedAt:   now,
		})
	}
	h.notifyMentions(uid, postID, req.Content, now)

	return c.JSON(http.StatusCreated, comment)
}

// notifyMentions fans out a Mention event per @handle that resolves to a
// user. Unresolvable handles are ignored.
func (h *CommentHandler) notifyMentions(uid, postID, content string, at time.Time) {
	seen := make(map[string]bool)
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		handle := m[1]
		if seen[handle] {
			continue
		}
		seen[handle] = true

		user, err := h.userRepository.GetUserByHandle(handle)
		if err != nil {
			continue
		}
		h.fanout.Enqueue(models.NotificationEvent{
			RecipientID: user.UID,
			ActorID:     uid,
			EntityID:    postID,
			EntityKind:  models.EntityPost,
			Kind:        models.KindMention,
			Preview:     content,
			CreatedAt:   at,
		})
	}
}

// GetComments retrieves comments for a post with pagination
func (h *CommentHandler) GetComments(c echo.Context) error {
	postID := c.Param("post_id")

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	comments, total, err := h.commentRepository.GetCommentsByPostID(postID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"comments": comments, "total": total},
	})
}

// DeleteComment removes the caller's own comment and its ledger child.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	uid := actorID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}
	if comment.UserID != uid {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot delete another user's comment")
	}

	entity := ledger.Entity{Kind: models.EntityPost, ID: comment.PostID}
	if _, err := h.ledger.RemoveChild(c.Request().Context(), entity, models.KindComment, comment.LedgerID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.commentRepository.DeleteComment(uint(id)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
