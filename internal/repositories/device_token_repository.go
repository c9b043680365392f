package repositories

import (
	"context"

	"github.com/koinonia-app/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository stores the latest push token per user. Token
// issuance and expiry are owned by the external push platform; this is just
// the lookup table the fan-out service reads.
type DeviceTokenRepository interface {
	Upsert(uid, token, platform string) error
	Delete(uid string) error
	Token(ctx context.Context, uid string) (string, error)
}

type postgresDeviceTokenRepository struct {
	db *gorm.DB
}

func NewPostgresDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &postgresDeviceTokenRepository{db: db}
}

func (r *postgresDeviceTokenRepository) Upsert(uid, token, platform string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "platform", "updated_at"}),
	}).Create(&models.DeviceToken{UserID: uid, Token: token, Platform: platform}).Error
}

func (r *postgresDeviceTokenRepository) Delete(uid string) error {
	return r.db.Delete(&models.DeviceToken{}, "user_id = ?", uid).Error
}

// Token returns the user's current push token, empty when none registered.
func (r *postgresDeviceTokenRepository) Token(ctx context.Context, uid string) (string, error) {
	var dt models.DeviceToken
	err := r.db.WithContext(ctx).First(&dt, "user_id = ?", uid).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return dt.Token, nil
}
