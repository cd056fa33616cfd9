package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Notification is one delivery unit for one recipient. The (event_id, user_id)
// unique index is what lets realtime room broadcasts and durable fan-out
// reconcile without ever producing two records for the same user and event.
type Notification struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	EventID   string `gorm:"size:36;not null;uniqueIndex:idx_event_user,priority:1" json:"event_id"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_event_user,priority:2;index" json:"user_id"`
	EventType string `gorm:"size:50;not null;index" json:"event_type"`
	Scope     string `gorm:"size:20;not null" json:"scope"`
	ScopeID   uint   `gorm:"not null;default:0;index" json:"scope_id,omitempty"`
	Title     string `gorm:"size:255" json:"title"`
	Message   string `gorm:"type:text" json:"message"`
	Data      string `gorm:"type:text" json:"data"` // opaque JSON payload
	// Channels is the comma-separated set the router attempted (or will retry).
	Channels     string         `gorm:"size:100" json:"channels"`
	Status       string         `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	RetryCount   int            `gorm:"not null;default:0" json:"retry_count"`
	ErrorMessage string         `gorm:"size:512" json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	DeliveredAt  *time.Time     `json:"delivered_at,omitempty"`
	ReadAt       *time.Time     `json:"read_at,omitempty"`
	ClickedAt    *time.Time     `json:"clicked_at,omitempty"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ChannelList splits the stored channel set.
func (n *Notification) ChannelList() []string {
	if n.Channels == "" {
		return nil
	}
	return strings.Split(n.Channels, ",")
}

// SetChannels stores the channel set as CSV.
func (n *Notification) SetChannels(channels []string) {
	n.Channels = strings.Join(channels, ",")
}
