package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// fakePostRepo serves a single known post; everything else is not found.
type fakePostRepo struct {
	postID  string
	ownerID string
}

func (f *fakePostRepo) CreatePost(ctx context.Context, post *models.Post) error { return nil }

func (f *fakePostRepo) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if id != f.postID {
		return nil, errors.New("post not found")
	}
	return &models.Post{UserID: f.ownerID}, nil
}

func (f *fakePostRepo) GetPostsByUserID(ctx context.Context, userID string, skip, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) UpdatePost(ctx context.Context, id string, post *models.Post) error {
	return nil
}

func (f *fakePostRepo) DeletePost(ctx context.Context, id string) error { return nil }

func (f *fakePostRepo) SetCounter(ctx context.Context, postID string, kind models.InteractionKind, value int64) error {
	return nil
}

func (f *fakePostRepo) Owner(ctx context.Context, postID string) (string, error) {
	return f.ownerID, nil
}

func toggleContext(e *echo.Echo, uid, postID, kind string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/posts/:post_id/interactions/:kind/toggle")
	c.SetParamNames("post_id", "kind")
	c.SetParamValues(postID, kind)
	c.Set("firebaseUID", uid)
	return c, rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	return body.Data
}

func TestToggleFlipsStateAndCount(t *testing.T) {
	e := echo.New()
	h := NewInteractionHandler(ledger.NewMemory(), &fakePostRepo{postID: "p1", ownerID: "owner-1"})

	c, rec := toggleContext(e, "u1", "p1", "amen")
	if err := h.Toggle(c); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	data := decodeData(t, rec)
	if data["active"] != true || data["count"] != float64(1) {
		t.Errorf("first toggle data = %v, want active=true count=1", data)
	}

	c, rec = toggleContext(e, "u1", "p1", "amen")
	if err := h.Toggle(c); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	data = decodeData(t, rec)
	if data["active"] != false || data["count"] != float64(0) {
		t.Errorf("second toggle data = %v, want active=false count=0", data)
	}
}

func TestToggleRejectsUnknownKind(t *testing.T) {
	e := echo.New()
	h := NewInteractionHandler(ledger.NewMemory(), &fakePostRepo{postID: "p1"})

	c, _ := toggleContext(e, "u1", "p1", "superlike")
	err := h.Toggle(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Errorf("got %v, want 400", err)
	}

	// Follow is a toggle kind but not a post interaction route.
	c, _ = toggleContext(e, "u1", "p1", "follow")
	err = h.Toggle(c)
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Errorf("got %v, want 400", err)
	}
}

func TestToggleRejectsMissingPost(t *testing.T) {
	e := echo.New()
	h := NewInteractionHandler(ledger.NewMemory(), &fakePostRepo{postID: "p1"})

	c, _ := toggleContext(e, "u1", "missing", "amen")
	err := h.Toggle(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Errorf("got %v, want 404", err)
	}
}

func TestToggleRequiresAuthentication(t *testing.T) {
	e := echo.New()
	h := NewInteractionHandler(ledger.NewMemory(), &fakePostRepo{postID: "p1"})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("post_id", "kind")
	c.SetParamValues("p1", "amen")

	err := h.Toggle(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("got %v, want 401", err)
	}
}

func TestStatusAndCountReflectLedger(t *testing.T) {
	e := echo.New()
	led := ledger.NewMemory()
	h := NewInteractionHandler(led, &fakePostRepo{postID: "p1", ownerID: "owner-1"})

	entity := ledger.Entity{Kind: models.EntityPost, ID: "p1"}
	led.ToggleInteraction(context.Background(), entity, models.KindLightbulb, "u1")
	led.ToggleInteraction(context.Background(), entity, models.KindLightbulb, "u2")

	c, rec := toggleContext(e, "u1", "p1", "lightbulb")
	if err := h.Status(c); err != nil {
		t.Fatalf("status: %v", err)
	}
	if data := decodeData(t, rec); data["active"] != true {
		t.Errorf("status data = %v, want active=true", data)
	}

	c, rec = toggleContext(e, "u3", "p1", "lightbulb")
	if err := h.Status(c); err != nil {
		t.Fatalf("status: %v", err)
	}
	if data := decodeData(t, rec); data["active"] != false {
		t.Errorf("status data = %v, want active=false", data)
	}

	c, rec = toggleContext(e, "u1", "p1", "lightbulb")
	if err := h.Count(c); err != nil {
		t.Fatalf("count: %v", err)
	}
	if data := decodeData(t, rec); data["count"] != float64(2) {
		t.Errorf("count data = %v, want count=2", data)
	}
}
