package repository

import (
	"errors"

	"edupulse/internal/models"

	"gorm.io/gorm"
)

type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetOrCreate loads the user's preference row for a category, lazily creating
// it with system defaults on first use.
func (r *PreferenceRepository) GetOrCreate(userID uint, category string) (*models.Preference, error) {
	var p models.Preference
	err := r.db.Where("user_id = ? AND category = ?", userID, category).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	def := models.DefaultPreference(userID, category)
	if err := r.db.Create(def).Error; err != nil {
		// lost a create race; the row exists now
		if e := r.db.Where("user_id = ? AND category = ?", userID, category).First(&p).Error; e == nil {
			return &p, nil
		}
		return nil, err
	}
	return def, nil
}

func (r *PreferenceRepository) Save(p *models.Preference) error {
	return r.db.Save(p).Error
}

func (r *PreferenceRepository) ListByUser(userID uint) ([]models.Preference, error) {
	var list []models.Preference
	err := r.db.Where("user_id = ?", userID).Order("category ASC").Find(&list).Error
	return list, err
}
