package models

import "time"

// User represents a user profile (PostgreSQL). The primary key is the
// Firebase UID supplied by the identity provider; the pipeline trusts it as
// already authenticated. FollowerCount and FollowingCount mirror the fast
// ledger's counters and are written only by the sync trigger engine.
type User struct {
	UID            string    `json:"uid" gorm:"primaryKey;size:128"`
	Handle         string    `json:"handle" gorm:"size:30;uniqueIndex"`
	DisplayName    string    `json:"display_name" gorm:"size:50"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	Bio            string    `json:"bio,omitempty" gorm:"size:300"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCompact is the embedded actor shape returned with notifications.
type UserCompact struct {
	UID         string `json:"uid"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ToCompact returns the compact representation of the user.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		UID:         u.UID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// CreateUserRequest defines the request body for registering a profile
type CreateUserRequest struct {
	Handle      string `json:"handle" validate:"required,min=2,max=30,alphanum"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=300"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// UpdateUserRequest defines the request body for updating a profile
type UpdateUserRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=300"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// RegisterDeviceTokenRequest defines the request body for saving a push token
type RegisterDeviceTokenRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}
