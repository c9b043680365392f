package models

import "time"

// Notification represents a persisted user notification (PostgreSQL).
// Created exactly once per qualifying event by the fan-out service; mutated
// only by the recipient marking it read, or by the fan-out service refreshing
// CreatedAt when a toggle interaction repeats while the record is unread.
type Notification struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	RecipientID string          `json:"recipient_id" gorm:"size:128;index:idx_notifications_dedup;index"`
	ActorID     string          `json:"actor_id" gorm:"size:128;index:idx_notifications_dedup"`
	Kind        InteractionKind `json:"kind" gorm:"size:20;index:idx_notifications_dedup"`
	EntityID    string          `json:"entity_id" gorm:"size:64;index:idx_notifications_dedup;index"`
	Message     string          `json:"message"`
	Preview     string          `json:"preview,omitempty" gorm:"size:120"`
	IsRead      bool            `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
}

// DeliveryPreference holds the per-recipient, per-kind notification switches.
// Owned by the recipient, read-only to the fan-out service. A missing row
// means everything is enabled.
type DeliveryPreference struct {
	UserID            string    `json:"user_id" gorm:"primaryKey;size:128"`
	NotifyOnAmen      bool      `json:"notify_on_amen" gorm:"default:true"`
	NotifyOnLightbulb bool      `json:"notify_on_lightbulb" gorm:"default:true"`
	NotifyOnComment   bool      `json:"notify_on_comment" gorm:"default:true"`
	NotifyOnRepost    bool      `json:"notify_on_repost" gorm:"default:true"`
	NotifyOnFollow    bool      `json:"notify_on_follow" gorm:"default:true"`
	NotifyOnMention   bool      `json:"notify_on_mention" gorm:"default:true"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Allows reports whether the preference permits notifications of the given
// kind. Replies fall under the comment switch.
func (p *DeliveryPreference) Allows(kind InteractionKind) bool {
	if p == nil {
		return true
	}
	switch kind {
	case KindAmen:
		return p.NotifyOnAmen
	case KindLightbulb:
		return p.NotifyOnLightbulb
	case KindComment, KindReply:
		return p.NotifyOnComment
	case KindRepost:
		return p.NotifyOnRepost
	case KindFollow:
		return p.NotifyOnFollow
	case KindMention:
		return p.NotifyOnMention
	}
	return false
}

// UpdatePreferencesRequest defines the request body for updating delivery
// preferences. Pointers distinguish "leave unchanged" from "set false".
type UpdatePreferencesRequest struct {
	NotifyOnAmen      *bool `json:"notify_on_amen,omitempty"`
	NotifyOnLightbulb *bool `json:"notify_on_lightbulb,omitempty"`
	NotifyOnComment   *bool `json:"notify_on_comment,omitempty"`
	NotifyOnRepost    *bool `json:"notify_on_repost,omitempty"`
	NotifyOnFollow    *bool `json:"notify_on_follow,omitempty"`
	NotifyOnMention   *bool `json:"notify_on_mention,omitempty"`
}

// DeviceToken stores the latest push token registered by a user's client.
type DeviceToken struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;size:128"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform" gorm:"size:10"`
	UpdatedAt time.Time `json:"updated_at"`
}
