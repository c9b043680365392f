package repositories

import (
	"context"
	"time"

	"github.com/koinonia-app/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations.
// FindUnread and Touch carry the fan-out dedup contract; DeleteByEntity is
// the best-effort cascade for deleted entities.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	FindUnread(ctx context.Context, recipientID, actorID, entityID string, kind models.InteractionKind) (*models.Notification, error)
	Touch(ctx context.Context, id uint, at time.Time) error
	GetByRecipientID(recipientID string, page, limit int) ([]models.Notification, int64, error)
	GetGroupedByReadState(recipientID string) (unread, read []models.Notification, err error)
	GetUnreadCount(recipientID string) (int64, error)
	MarkAsRead(recipientID string, notificationID uint) error
	MarkAllAsRead(recipientID string) error
	DeleteByEntity(ctx context.Context, entityID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// FindUnread returns the unread notification for the exact
// (recipient, actor, entity, kind) tuple, or nil when none exists.
func (r *postgresNotificationRepository) FindUnread(ctx context.Context, recipientID, actorID, entityID string, kind models.InteractionKind) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND actor_id = ? AND entity_id = ? AND kind = ? AND is_read = false",
			recipientID, actorID, entityID, kind).
		First(&notification).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// Touch refreshes a record's created_at so a repeated toggle bubbles the
// existing notification up instead of duplicating it.
func (r *postgresNotificationRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).Update("created_at", at).Error
}

func (r *postgresNotificationRepository) GetByRecipientID(recipientID string, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	r.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

// GetGroupedByReadState returns the inbox split into unread and read,
// each sorted newest first.
func (r *postgresNotificationRepository) GetGroupedByReadState(recipientID string) (unread, read []models.Notification, err error) {
	if err := r.db.Where("recipient_id = ? AND is_read = false", recipientID).
		Order("created_at DESC").Find(&unread).Error; err != nil {
		return nil, nil, err
	}
	if err := r.db.Where("recipient_id = ? AND is_read = true", recipientID).
		Order("created_at DESC").Limit(100).Find(&read).Error; err != nil {
		return nil, nil, err
	}
	return unread, read, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsRead(recipientID string, notificationID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true).Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID string) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true).Error
}

// DeleteByEntity removes all notifications referencing an entity that no
// longer resolves.
func (r *postgresNotificationRepository) DeleteByEntity(ctx context.Context, entityID string) error {
	return r.db.WithContext(ctx).Where("entity_id = ?", entityID).Delete(&models.Notification{}).Error
}
