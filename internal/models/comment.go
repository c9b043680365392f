package models

import "time"

// Comment represents a comment row (PostgreSQL). The ledger child record
// written by AppendChild is the interaction source of truth; this row is the
// queryable mirror, linked through LedgerID.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	LedgerID  string    `json:"ledger_id" gorm:"size:64;uniqueIndex"`
	PostID    string    `json:"post_id" gorm:"index"` // MongoDB ObjectID as string
	ParentID  *uint     `json:"parent_id,omitempty" gorm:"index"`
	UserID    string    `json:"user_id" gorm:"size:128;index"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=500"`
	ParentID *uint  `json:"parent_id,omitempty"`
}
