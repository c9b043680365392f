package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a post document stored in MongoDB. The *Count fields mirror
// the fast ledger's aggregate counters; they are written only by the sync
// trigger engine (absolute values, field-path merges) and must never be
// mutated by any client-facing call.
type Post struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         string             `json:"user_id" bson:"user_id"` // Firebase UID of the author
	Content        string             `json:"content" bson:"content"`
	ImageURLs      []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	AmenCount      int64              `json:"amen_count" bson:"amen_count"`
	LightbulbCount int64              `json:"lightbulb_count" bson:"lightbulb_count"`
	CommentCount   int64              `json:"comment_count" bson:"comment_count"`
	RepostCount    int64              `json:"repost_count" bson:"repost_count"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content   string   `json:"content" validate:"required,min=1,max=500"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Content   string   `json:"content,omitempty" validate:"omitempty,min=1,max=500"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
}
