package models

import "time"

// DeviceToken is a push-capable endpoint for a user. A user may register
// several devices; tokens reported invalid by the push provider are
// deactivated, never deleted.
type DeviceToken struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_token,priority:1" json:"user_id"`
	Token      string    `gorm:"size:512;not null;uniqueIndex:idx_user_token,priority:2" json:"-"`
	Platform   string    `gorm:"size:20;not null" json:"platform"` // IOS | ANDROID | WEB
	Active     bool      `gorm:"not null;default:true;index" json:"active"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (DeviceToken) TableName() string {
	return "device_tokens"
}
