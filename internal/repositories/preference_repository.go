package repositories

import (
	"context"

	"github.com/koinonia-app/backend/internal/models"
	"gorm.io/gorm"
)

// PreferenceRepository defines the interface for delivery preferences. A
// missing row reads as all-enabled defaults; rows are created lazily on
// first update.
type PreferenceRepository interface {
	Get(uid string) (*models.DeliveryPreference, error)
	Update(uid string, req *models.UpdatePreferencesRequest) (*models.DeliveryPreference, error)
	Allows(ctx context.Context, uid string, kind models.InteractionKind) (bool, error)
}

type postgresPreferenceRepository struct {
	db *gorm.DB
}

func NewPostgresPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &postgresPreferenceRepository{db: db}
}

func defaultPreferences(uid string) *models.DeliveryPreference {
	return &models.DeliveryPreference{
		UserID:            uid,
		NotifyOnAmen:      true,
		NotifyOnLightbulb: true,
		NotifyOnComment:   true,
		NotifyOnRepost:    true,
		NotifyOnFollow:    true,
		NotifyOnMention:   true,
	}
}

func (r *postgresPreferenceRepository) Get(uid string) (*models.DeliveryPreference, error) {
	var pref models.DeliveryPreference
	err := r.db.First(&pref, "user_id = ?", uid).Error
	if err == gorm.ErrRecordNotFound {
		return defaultPreferences(uid), nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *postgresPreferenceRepository) Update(uid string, req *models.UpdatePreferencesRequest) (*models.DeliveryPreference, error) {
	pref, err := r.Get(uid)
	if err != nil {
		return nil, err
	}

	if req.NotifyOnAmen != nil {
		pref.NotifyOnAmen = *req.NotifyOnAmen
	}
	if req.NotifyOnLightbulb != nil {
		pref.NotifyOnLightbulb = *req.NotifyOnLightbulb
	}
	if req.NotifyOnComment != nil {
		pref.NotifyOnComment = *req.NotifyOnComment
	}
	if req.NotifyOnRepost != nil {
		pref.NotifyOnRepost = *req.NotifyOnRepost
	}
	if req.NotifyOnFollow != nil {
		pref.NotifyOnFollow = *req.NotifyOnFollow
	}
	if req.NotifyOnMention != nil {
		pref.NotifyOnMention = *req.NotifyOnMention
	}

	if err := r.db.Save(pref).Error; err != nil {
		return nil, err
	}
	return pref, nil
}

// Allows is the fan-out service's read-only view of the preference.
func (r *postgresPreferenceRepository) Allows(ctx context.Context, uid string, kind models.InteractionKind) (bool, error) {
	var pref models.DeliveryPreference
	err := r.db.WithContext(ctx).First(&pref, "user_id = ?", uid).Error
	if err == gorm.ErrRecordNotFound {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return pref.Allows(kind), nil
}
