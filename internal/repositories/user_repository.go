package repositories

import (
	"context"

	"github.com/koinonia-app/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations. The two
// Set*Count methods are the trigger engine's merge-patch surface: a single
// column updated to an absolute value, never an increment.
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByUID(uid string) (*models.User, error)
	GetUserByHandle(handle string) (*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(uid string) error
	SearchUsers(query string) ([]models.User, error)
	SetFollowerCount(ctx context.Context, uid string, value int64) error
	SetFollowingCount(ctx context.Context, uid string, value int64) error
	DisplayName(ctx context.Context, uid string) (string, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

// GetUserByUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByUID(uid string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "uid = ?", uid).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByHandle retrieves a user by handle from PostgreSQL
func (r *PostgresUserRepository) GetUserByHandle(handle string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "handle = ?", handle).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates a user's profile fields. Counter columns are left to
// the trigger engine.
func (r *PostgresUserRepository) UpdateUser(user *models.User) error {
	return r.db.Model(user).Select("display_name", "bio", "avatar_url").Updates(user).Error
}

// DeleteUser deletes a user by UID from PostgreSQL
func (r *PostgresUserRepository) DeleteUser(uid string) error {
	return r.db.Delete(&models.User{}, "uid = ?", uid).Error
}

// SearchUsers searches users by handle or display name
func (r *PostgresUserRepository) SearchUsers(query string) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	err := r.db.Where("handle ILIKE ? OR display_name ILIKE ?", pattern, pattern).
		Limit(20).Find(&users).Error
	return users, err
}

// SetFollowerCount writes the absolute follower count for a user.
func (r *PostgresUserRepository) SetFollowerCount(ctx context.Context, uid string, value int64) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("uid = ?", uid).UpdateColumn("follower_count", value).Error
}

// SetFollowingCount writes the absolute following count for a user.
func (r *PostgresUserRepository) SetFollowingCount(ctx context.Context, uid string, value int64) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("uid = ?", uid).UpdateColumn("following_count", value).Error
}

// DisplayName returns the display name for a UID, empty when unknown.
func (r *PostgresUserRepository) DisplayName(ctx context.Context, uid string) (string, error) {
	var user models.User
	err := r.db.WithContext(ctx).Select("display_name").First(&user, "uid = ?", uid).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return user.DisplayName, nil
}
