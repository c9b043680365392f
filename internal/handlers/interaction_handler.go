package handlers

import (
	"errors"
	"net/http"

	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// InteractionHandler handles the toggle interactions on posts (amen,
// lightbulb, repost). The handler's only write is the single atomic ledger
// toggle; counter mirroring and notification fan-out happen downstream and
// never delay or fail the response.
type InteractionHandler struct {
	ledger         ledger.Ledger
	postRepository repositories.PostRepository
}

// NewInteractionHandler creates a new InteractionHandler
func NewInteractionHandler(led ledger.Ledger, postRepo repositories.PostRepository) *InteractionHandler {
	return &InteractionHandler{
		ledger:         led,
		postRepository: postRepo,
	}
}

// RegisterInteractionRoutes registers interaction-related routes
func (h *InteractionHandler) RegisterInteractionRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/interactions/:kind/toggle", h.Toggle)
	g.GET("/posts/:post_id/interactions/:kind/status", h.Status)
	g.GET("/posts/:post_id/interactions/:kind/count", h.Count)
}

func (h *InteractionHandler) parseRequest(c echo.Context) (ledger.Entity, models.InteractionKind, error) {
	kind, ok := models.ParseToggleKind(c.Param("kind"))
	if !ok {
		return ledger.Entity{}, "", echo.NewHTTPError(http.StatusBadRequest, "Unknown interaction kind")
	}
	postID := c.Param("post_id")

	// Verify post exists
	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return ledger.Entity{}, "", echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return ledger.Entity{Kind: models.EntityPost, ID: postID}, kind, nil
}

// Toggle flips the actor's interaction record and returns the new state.
// The response is written as soon as the ledger commit lands; downstream
// sync failures are invisible here.
func (h *InteractionHandler) Toggle(c echo.Context) error {
	uid := actorID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	entity, kind, err := h.parseRequest(c)
	if err != nil {
		return err
	}

	active, count, err := h.ledger.ToggleInteraction(c.Request().Context(), entity, kind, uid)
	if err != nil {
		if errors.Is(err, ledger.ErrPermissionDenied) {
			return echo.NewHTTPError(http.StatusForbidden, "Interaction not permitted")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"kind": kind, "active": active, "count": count},
	})
}

// Status reports whether the authenticated actor currently has the
// interaction. This is the one client-facing ledger read, for instant
// button-state rendering.
func (h *InteractionHandler) Status(c echo.Context) error {
	uid := actorID(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	entity, kind, err := h.parseRequest(c)
	if err != nil {
		return err
	}

	active, err := h.ledger.HasInteraction(c.Request().Context(), entity, kind, uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"kind": kind, "active": active},
	})
}

// Count returns the live ledger counter for one interaction kind.
func (h *InteractionHandler) Count(c echo.Context) error {
	entity, kind, err := h.parseRequest(c)
	if err != nil {
		return err
	}

	count, err := h.ledger.Counter(c.Request().Context(), entity, kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"kind": kind, "count": count},
	})
}
