package models

import (
	"time"

	"edupulse/internal/domain"
)

// Subscription is one user's opt-in to a topic. At most one row exists per
// (user, event type, scope, scope id); unsubscribing deactivates the row and a
// later subscribe reactivates it with fresh channel preferences.
type Subscription struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_sub_key,priority:1" json:"user_id"`
	EventType string `gorm:"size:50;not null;uniqueIndex:idx_sub_key,priority:2;index" json:"event_type"`
	Scope     string `gorm:"size:20;not null;uniqueIndex:idx_sub_key,priority:3" json:"scope"`
	// ScopeID is the course ID for COURSE scope, zero for USER scope. Stored
	// as a plain uint so the composite unique index treats "no course" as one key.
	ScopeID   uint      `gorm:"not null;default:0;uniqueIndex:idx_sub_key,priority:4;index" json:"scope_id,omitempty"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	Realtime  bool      `gorm:"not null;default:true" json:"realtime"`
	Email     bool      `gorm:"not null;default:true" json:"email"`
	Push      bool      `gorm:"not null;default:true" json:"push"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// RequestedChannels returns the channel set this subscription asks for.
func (s *Subscription) RequestedChannels() []string {
	var out []string
	if s.Realtime {
		out = append(out, domain.ChannelRealtime)
	}
	if s.Email {
		out = append(out, domain.ChannelEmail)
	}
	if s.Push {
		out = append(out, domain.ChannelPush)
	}
	return out
}
