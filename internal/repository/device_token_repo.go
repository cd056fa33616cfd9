package repository

import (
	"time"

	"edupulse/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceTokenRepository struct {
	db *gorm.DB
}

func NewDeviceTokenRepository(db *gorm.DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

// Register upserts a device token for a user. Re-registering an existing
// token reactivates it and refreshes the platform.
func (r *DeviceTokenRepository) Register(userID uint, token, platform string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"platform", "active", "last_used_at", "updated_at"}),
	}).Create(&models.DeviceToken{
		UserID:     userID,
		Token:      token,
		Platform:   platform,
		Active:     true,
		LastUsedAt: time.Now(),
	}).Error
}

// ActiveTokens returns the push-capable endpoints for a user.
func (r *DeviceTokenRepository) ActiveTokens(userID uint) ([]string, error) {
	var tokens []string
	err := r.db.Model(&models.DeviceToken{}).
		Where("user_id = ? AND active = ?", userID, true).
		Pluck("token", &tokens).Error
	return tokens, err
}

// Deactivate marks a token inactive. Used both for explicit unregistration and
// when the push provider reports the token invalid.
func (r *DeviceTokenRepository) Deactivate(userID uint, token string) error {
	return r.db.Model(&models.DeviceToken{}).
		Where("user_id = ? AND token = ?", userID, token).
		Update("active", false).Error
}

func (r *DeviceTokenRepository) TouchUsed(userID uint, token string) error {
	return r.db.Model(&models.DeviceToken{}).
		Where("user_id = ? AND token = ?", userID, token).
		Update("last_used_at", time.Now()).Error
}
