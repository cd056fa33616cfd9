package repository

import (
	"errors"

	"edupulse/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(s *models.Subscription) error {
	return r.db.Create(s).Error
}

func (r *SubscriptionRepository) Save(s *models.Subscription) error {
	return r.db.Save(s).Error
}

// FindByKey returns the single row for the composite subscription key, active
// or not. Returns (nil, nil) when no row exists.
func (r *SubscriptionRepository) FindByKey(userID uint, eventType, scope string, scopeID uint) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.Where("user_id = ? AND event_type = ? AND scope = ? AND scope_id = ?",
		userID, eventType, scope, scopeID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ActiveUserIDs returns users with an active subscription to the topic.
func (r *SubscriptionRepository) ActiveUserIDs(eventType, scope string, scopeID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Subscription{}).
		Where("event_type = ? AND scope = ? AND scope_id = ? AND is_active = ?", eventType, scope, scopeID, true).
		Pluck("user_id", &ids).Error
	return ids, err
}

// ActiveForUsers returns the active subscriptions a set of users hold on the
// topic, keyed by user. Used to honor per-subscription channel preferences
// during fan-out without one query per recipient.
func (r *SubscriptionRepository) ActiveForUsers(userIDs []uint, eventType, scope string, scopeID uint) (map[uint]*models.Subscription, error) {
	out := make(map[uint]*models.Subscription, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var subs []models.Subscription
	err := r.db.Where("user_id IN ? AND event_type = ? AND scope = ? AND scope_id = ? AND is_active = ?",
		userIDs, eventType, scope, scopeID, true).Find(&subs).Error
	if err != nil {
		return nil, err
	}
	for i := range subs {
		out[subs[i].UserID] = &subs[i]
	}
	return out, nil
}

func (r *SubscriptionRepository) ListByUser(userID uint) ([]models.Subscription, error) {
	var list []models.Subscription
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}
