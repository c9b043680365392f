package handlers

import (
	"net/http"

	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests. A follow edge is a
// toggle interaction on the followed user's ledger subtree; the follower
// counter on the target and the following counter on the actor both mirror
// into Postgres through the trigger engine.
type FollowHandler struct {
	ledger         ledger.Ledger
	userRepository repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(led ledger.Ledger, userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{
		ledger:         led,
		userRepository: userRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.ToggleFollow)
	g.GET("/users/:id/follow/status", h.FollowStatus)
}

// ToggleFollow follows or unfollows a user
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	uid := actorID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetUID := c.Param("id")
	if targetUID == uid {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}
	if _, err := h.userRepository.GetUserByUID(targetUID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	target := ledger.Entity{Kind: models.EntityUser, ID: targetUID}
	following, _, err := h.ledger.ToggleInteraction(c.Request().Context(), target, models.KindFollow, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// The actor's own "following" counter lives under their ledger subtree
	// and syncs through the same trigger path. Cross-entity atomicity is
	// not required.
	actor := ledger.Entity{Kind: models.EntityUser, ID: uid}
	delta := int64(1)
	if !following {
		delta = -1
	}
	if _, err := h.ledger.IncrementCounter(c.Request().Context(), actor, models.KindFollowing, delta); err != nil {
		c.Logger().Errorf("following counter update failed for %s: %v", uid, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": following}})
}

// FollowStatus reports whether the authenticated user follows the target.
func (h *FollowHandler) FollowStatus(c echo.Context) error {
	uid := actorID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	target := ledger.Entity{Kind: models.EntityUser, ID: c.Param("id")}
	following, err := h.ledger.HasInteraction(c.Request().Context(), target, models.KindFollow, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": following}})
}
