package models

import "time"

// EntityKind identifies which durable-store collection an entity lives in.
type EntityKind string

const (
	EntityPost EntityKind = "post"
	EntityUser EntityKind = "user"
)

// InteractionKind identifies one kind of user interaction. Toggle kinds are
// binary and reversible; append kinds accumulate and are never un-done in
// place. Mention is a notification-only kind derived from comment content.
type InteractionKind string

const (
	KindAmen      InteractionKind = "amen"
	KindLightbulb InteractionKind = "lightbulb"
	KindRepost    InteractionKind = "repost"
	KindFollow    InteractionKind = "follow"
	KindFollowing InteractionKind = "following"
	KindComment   InteractionKind = "comment"
	KindReply     InteractionKind = "reply"
	KindMention   InteractionKind = "mention"
)

// IsToggle reports whether the kind is reversible by the same actor.
func (k InteractionKind) IsToggle() bool {
	switch k {
	case KindAmen, KindLightbulb, KindRepost, KindFollow:
		return true
	}
	return false
}

// IsAppend reports whether each occurrence of the kind is a distinct event.
func (k InteractionKind) IsAppend() bool {
	switch k {
	case KindComment, KindReply, KindMention:
		return true
	}
	return false
}

// ParseToggleKind maps a URL segment to a post toggle kind. Follow has its
// own route and is not accepted here.
func ParseToggleKind(s string) (InteractionKind, bool) {
	switch InteractionKind(s) {
	case KindAmen, KindLightbulb, KindRepost:
		return InteractionKind(s), true
	}
	return "", false
}

// NotificationEvent is the transient input to the fan-out service. It is
// consumed and turned into a Notification or dropped, never stored itself.
// RecipientID may be empty, in which case the fan-out service resolves the
// owner of the entity.
type NotificationEvent struct {
	RecipientID string
	ActorID     string
	EntityID    string
	EntityKind  EntityKind
	Kind        InteractionKind
	Preview     string
	CreatedAt   time.Time
}
