package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/koinonia-app/backend/internal/fanout"
	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/trigger"
	"github.com/labstack/echo/v4"
	"github.com/neilotoole/slogt"
)

// syncedPostRepo is a fakePostRepo that also records mirrored counter writes
// and signals each one, so tests can wait for pipeline convergence.
type syncedPostRepo struct {
	fakePostRepo
	mu       sync.Mutex
	counters map[models.InteractionKind]int64
	synced   chan int64
}

func newSyncedPostRepo(postID, ownerID string) *syncedPostRepo {
	return &syncedPostRepo{
		fakePostRepo: fakePostRepo{postID: postID, ownerID: ownerID},
		counters:     make(map[models.InteractionKind]int64),
		synced:       make(chan int64, 16),
	}
}

func (f *syncedPostRepo) SetCounter(ctx context.Context, postID string, kind models.InteractionKind, value int64) error {
	f.mu.Lock()
	f.counters[kind] = value
	f.mu.Unlock()
	f.synced <- value
	return nil
}

func (f *syncedPostRepo) counter(kind models.InteractionKind) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counters[kind]
}

type pipelineUsers struct{}

func (pipelineUsers) DisplayName(ctx context.Context, uid string) (string, error) {
	return "Pilgrim", nil
}

type pipelinePrefs struct{}

func (pipelinePrefs) Allows(ctx context.Context, uid string, kind models.InteractionKind) (bool, error) {
	return true, nil
}

type pipelineRecords struct {
	mu      sync.Mutex
	nextID  uint
	records []*models.Notification
	created chan *models.Notification
}

func newPipelineRecords() *pipelineRecords {
	return &pipelineRecords{created: make(chan *models.Notification, 16)}
}

func (f *pipelineRecords) CreateNotification(ctx context.Context, n *models.Notification) error {
	f.mu.Lock()
	f.nextID++
	n.ID = f.nextID
	f.records = append(f.records, n)
	f.mu.Unlock()
	f.created <- n
	return nil
}

func (f *pipelineRecords) FindUnread(ctx context.Context, recipientID, actorID, entityID string, kind models.InteractionKind) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.records {
		if !n.IsRead && n.RecipientID == recipientID && n.ActorID == actorID && n.EntityID == entityID && n.Kind == kind {
			return n, nil
		}
	}
	return nil, nil
}

func (f *pipelineRecords) Touch(ctx context.Context, id uint, at time.Time) error {
	return nil
}

func (f *pipelineRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type pipelineTokens struct{}

func (pipelineTokens) Token(ctx context.Context, uid string) (string, error) {
	return "device-token", nil
}

type pipelineGateway struct {
	mu    sync.Mutex
	sends int
	sent  chan struct{}
}

func newPipelineGateway() *pipelineGateway {
	return &pipelineGateway{sent: make(chan struct{}, 16)}
}

func (f *pipelineGateway) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	f.mu.Lock()
	f.sends++
	f.mu.Unlock()
	f.sent <- struct{}{}
	return nil
}

func (f *pipelineGateway) pushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

func awaitSignal[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		var zero T
		return zero
	}
}

// Exercises the whole pipeline in process: one HTTP toggle commits to the
// ledger, the trigger engine mirrors the counter into the durable store, and
// the fan-out writes one notification and one push. An untoggle mirrors the
// counter back down without producing any notification.
func TestAmenFlowsThroughPipeline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slogt.New(t)

	postRepo := newSyncedPostRepo("p1", "u2")
	records := newPipelineRecords()
	gateway := newPipelineGateway()

	engine := trigger.New(logger)
	engine.Handle(models.EntityPost, models.KindAmen, func(ctx context.Context, postID string, value int64) error {
		return postRepo.SetCounter(ctx, postID, models.KindAmen, value)
	})
	engine.Start(ctx, 1)

	fan := fanout.New(fanout.Config{
		Logger:  logger,
		Posts:   postRepo,
		Users:   pipelineUsers{},
		Prefs:   pipelinePrefs{},
		Records: records,
		Tokens:  pipelineTokens{},
		Gateway: gateway,
	})
	fan.Start(ctx, 1)

	led := &ledger.Emitting{
		Ledger:       ledger.NewMemory(),
		Counters:     []ledger.CounterSink{engine},
		Interactions: []ledger.InteractionSink{fan},
	}
	h := NewInteractionHandler(led, postRepo)
	e := echo.New()

	// U1 says Amen to U2's post.
	c, rec := toggleContext(e, "u1", "p1", "amen")
	if err := h.Toggle(c); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	data := decodeData(t, rec)
	if data["active"] != true || data["count"] != float64(1) {
		t.Fatalf("toggle data = %v, want active=true count=1", data)
	}

	if v := awaitSignal(t, postRepo.synced, "counter sync"); v != 1 {
		t.Errorf("durable counter write = %d, want 1", v)
	}
	n := awaitSignal(t, records.created, "notification record")
	if n.RecipientID != "u2" || n.ActorID != "u1" || n.Kind != models.KindAmen || n.EntityID != "p1" {
		t.Errorf("notification = %+v", n)
	}
	awaitSignal(t, gateway.sent, "push delivery")
	if gateway.pushes() != 1 {
		t.Errorf("pushes = %d, want 1", gateway.pushes())
	}

	// U1 takes the Amen back: the mirror converges to zero and nobody is
	// notified about it.
	c, rec = toggleContext(e, "u1", "p1", "amen")
	if err := h.Toggle(c); err != nil {
		t.Fatalf("untoggle: %v", err)
	}
	data = decodeData(t, rec)
	if data["active"] != false || data["count"] != float64(0) {
		t.Fatalf("untoggle data = %v, want active=false count=0", data)
	}

	if v := awaitSignal(t, postRepo.synced, "counter sync"); v != 0 {
		t.Errorf("durable counter write = %d, want 0", v)
	}
	if got := postRepo.counter(models.KindAmen); got != 0 {
		t.Errorf("durable counter = %d, want 0", got)
	}

	select {
	case n := <-records.created:
		t.Errorf("unexpected notification for untoggle: %+v", n)
	case <-time.After(200 * time.Millisecond):
	}
	if records.count() != 1 {
		t.Errorf("records = %d, want 1", records.count())
	}
	if gateway.pushes() != 1 {
		t.Errorf("pushes = %d, want 1", gateway.pushes())
	}
}

// The response must be written from the ledger commit alone even when the
// durable mirror is down; the counter stays stale, not corrupted.
func TestToggleSucceedsWhenMirrorUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slogt.New(t)

	postRepo := &fakePostRepo{postID: "p1", ownerID: "u2"}
	engine := trigger.New(logger)
	// No handlers registered: every counter event is dropped downstream.
	engine.Start(ctx, 1)

	led := &ledger.Emitting{
		Ledger:   ledger.NewMemory(),
		Counters: []ledger.CounterSink{engine},
	}
	h := NewInteractionHandler(led, postRepo)
	e := echo.New()

	c, rec := toggleContext(e, "u1", "p1", "repost")
	if err := h.Toggle(c); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	data := decodeData(t, rec)
	if data["active"] != true || data["count"] != float64(1) {
		t.Errorf("data = %v, want active=true count=1", data)
	}
}
