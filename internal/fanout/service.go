// Package fanout converts triggering interactions into at most one persisted
// notification and at most one push message each.
package fanout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/koinonia-app/backend/internal/ledger"
	"github.com/koinonia-app/backend/internal/metrics"
	"github.com/koinonia-app/backend/internal/models"
	"github.com/koinonia-app/backend/internal/push"
)

// Outcome classifies what happened to one notification event.
type Outcome string

const (
	OutcomeDelivered  Outcome = "delivered"   // record written, push sent
	OutcomeStored     Outcome = "stored"      // record written, no token
	OutcomePushFailed Outcome = "push_failed" // record written, push gave up
	OutcomeDeduped    Outcome = "deduped"     // refreshed an unread record
	OutcomeSelf       Outcome = "self"        // actor is the recipient
	OutcomeDisabled   Outcome = "disabled"    // recipient preference off
	OutcomeOrphaned   Outcome = "orphaned"    // recipient unresolvable
	OutcomeError      Outcome = "error"
)

// PostDirectory resolves a post's owner from the durable store.
type PostDirectory interface {
	Owner(ctx context.Context, postID string) (string, error)
}

// UserDirectory resolves actor display names.
type UserDirectory interface {
	DisplayName(ctx context.Context, uid string) (string, error)
}

// PreferenceSource answers whether a recipient wants a notification kind.
type PreferenceSource interface {
	Allows(ctx context.Context, uid string, kind models.InteractionKind) (bool, error)
}

// NotificationStore persists notification records.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	FindUnread(ctx context.Context, recipientID, actorID, entityID string, kind models.InteractionKind) (*models.Notification, error)
	Touch(ctx context.Context, id uint, at time.Time) error
}

// TokenSource resolves a recipient's push token; empty string means none.
type TokenSource interface {
	Token(ctx context.Context, uid string) (string, error)
}

// Config carries the fan-out service's dependencies.
type Config struct {
	Logger  *slog.Logger
	Posts   PostDirectory
	Users   UserDirectory
	Prefs   PreferenceSource
	Records NotificationStore
	Tokens  TokenSource
	Gateway push.Gateway
}

// Service is the notification fan-out worker pool. Stateless per event; all
// state lives in the stores it is constructed with.
type Service struct {
	cfg          Config
	queue        chan models.NotificationEvent
	storeTimeout time.Duration
	pushTimeout  time.Duration
	wg           sync.WaitGroup
}

// New creates a fan-out service.
func New(cfg Config) *Service {
	return &Service{
		cfg:          cfg,
		queue:        make(chan models.NotificationEvent, 256),
		storeTimeout: 10 * time.Second,
		pushTimeout:  5 * time.Second,
	}
}

// Enqueue hands the service one notification event. Never blocks; on
// backpressure the event is dropped and logged (a missed notification is an
// accepted degradation, never a crash).
func (s *Service) Enqueue(ev models.NotificationEvent) {
	select {
	case s.queue <- ev:
	default:
		s.cfg.Logger.Warn("fanout queue full, dropping event",
			"kind", ev.Kind, "entity", ev.EntityID, "actor", ev.ActorID)
	}
}

// InteractionRecorded adapts ledger interaction events into notification
// events. Untoggles never notify, and the actor-side following counter is
// bookkeeping, not an interaction anyone should hear about.
func (s *Service) InteractionRecorded(ev ledger.InteractionEvent) {
	if !ev.Present || ev.Kind == models.KindFollowing {
		return
	}
	ne := models.NotificationEvent{
		ActorID:    ev.ActorID,
		EntityID:   ev.Entity.ID,
		EntityKind: ev.Entity.Kind,
		Kind:       ev.Kind,
		Preview:    ev.Preview,
		CreatedAt:  ev.CreatedAt,
	}
	if ev.Entity.Kind == models.EntityUser && ev.Kind == models.KindFollow {
		ne.RecipientID = ev.Entity.ID
	}
	s.Enqueue(ne)
}

// Start launches the worker pool. Workers exit when ctx is canceled.
func (s *Service) Start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-s.queue:
					outcome := s.process(ctx, ev)
					metrics.FanoutTotal.WithLabelValues(string(ev.Kind), string(outcome)).Inc()
				}
			}
		}()
	}
}

// Wait blocks until all workers have exited.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) process(ctx context.Context, ev models.NotificationEvent) Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	recipient := ev.RecipientID
	if recipient == "" {
		owner, err := s.cfg.Posts.Owner(ctx, ev.EntityID)
		if err != nil || owner == "" {
			s.cfg.Logger.Info("dropping event for orphaned entity",
				"entity", ev.EntityID, "kind", ev.Kind, "error", err)
			return OutcomeOrphaned
		}
		recipient = owner
	}

	if recipient == ev.ActorID {
		return OutcomeSelf
	}

	allowed, err := s.cfg.Prefs.Allows(ctx, recipient, ev.Kind)
	if err != nil {
		s.cfg.Logger.Error("preference lookup failed", "recipient", recipient, "error", err)
		return OutcomeError
	}
	if !allowed {
		return OutcomeDisabled
	}

	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	// Toggle kinds dedup against an unread record for the same tuple: an
	// un-then-re-amen refreshes the timestamp instead of spamming twice.
	// Append kinds are each a distinct event.
	if ev.Kind.IsToggle() {
		existing, err := s.cfg.Records.FindUnread(ctx, recipient, ev.ActorID, ev.EntityID, ev.Kind)
		if err != nil {
			s.cfg.Logger.Error("dedup lookup failed", "recipient", recipient, "error", err)
			return OutcomeError
		}
		if existing != nil {
			if err := s.cfg.Records.Touch(ctx, existing.ID, ev.CreatedAt); err != nil {
				s.cfg.Logger.Error("dedup touch failed", "id", existing.ID, "error", err)
				return OutcomeError
			}
			return OutcomeDeduped
		}
	}

	actorName, err := s.cfg.Users.DisplayName(ctx, ev.ActorID)
	if err != nil || actorName == "" {
		actorName = fallbackActorName
	}

	p := buildPayload(ev, actorName)
	record := &models.Notification{
		RecipientID: recipient,
		ActorID:     ev.ActorID,
		Kind:        ev.Kind,
		EntityID:    ev.EntityID,
		Message:     p.Body,
		Preview:     truncate(ev.Preview, previewLimit),
		CreatedAt:   ev.CreatedAt,
	}
	if err := s.cfg.Records.CreateNotification(ctx, record); err != nil {
		s.cfg.Logger.Error("notification write failed", "recipient", recipient, "error", err)
		return OutcomeError
	}

	token, err := s.cfg.Tokens.Token(ctx, recipient)
	if err != nil {
		s.cfg.Logger.Error("token lookup failed", "recipient", recipient, "error", err)
		return OutcomeStored
	}
	if token == "" {
		return OutcomeStored
	}

	if err := s.deliver(ctx, token, p); err != nil {
		s.cfg.Logger.Error("push delivery failed", "recipient", recipient, "error", err)
		return OutcomePushFailed
	}
	return OutcomeDelivered
}

// deliver sends the push, retrying once on transient failure. No further
// retries: a sustained gateway outage must not turn into a push storm.
func (s *Service) deliver(ctx context.Context, token string, p payload) error {
	send := func() error {
		pushCtx, cancel := context.WithTimeout(ctx, s.pushTimeout)
		defer cancel()
		return s.cfg.Gateway.Send(pushCtx, token, p.Title, p.Body, p.Data)
	}

	err := send()
	if err == nil || errors.Is(err, push.ErrInvalidToken) {
		return err
	}
	return send()
}
