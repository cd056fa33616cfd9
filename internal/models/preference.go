package models

import (
	"encoding/json"
	"time"

	"edupulse/internal/domain"
)

// Preference holds one user's channel toggles for a notification category,
// plus an optional quiet-hours window and a muted-topics list. Rows are
// created lazily with defaults the first time a category fires for a user.
type Preference struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;uniqueIndex:idx_user_category,priority:1" json:"user_id"`
	Category string `gorm:"size:30;not null;uniqueIndex:idx_user_category,priority:2" json:"category"`
	Realtime bool   `gorm:"not null;default:true" json:"realtime"`
	Email    bool   `gorm:"not null;default:true" json:"email"`
	Push     bool   `gorm:"not null;default:true" json:"push"`
	// QuietStart/QuietEnd are "HH:MM" in the user's timezone; the window may
	// wrap midnight (e.g. 22:00-07:00). Both empty means no quiet hours.
	QuietStart  string    `gorm:"size:5" json:"quiet_start"`
	QuietEnd    string    `gorm:"size:5" json:"quiet_end"`
	Timezone    string    `gorm:"size:64;not null;default:UTC" json:"timezone"`
	MutedTopics string    `gorm:"type:text" json:"muted_topics"` // JSON array of topic keys
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Preference) TableName() string {
	return "preferences"
}

// DefaultPreference returns the system default for a user/category pair.
func DefaultPreference(userID uint, category string) *Preference {
	return &Preference{
		UserID:   userID,
		Category: category,
		Realtime: true,
		Email:    true,
		Push:     true,
		Timezone: "UTC",
	}
}

// AllowsChannel reports whether the per-category toggle permits a channel.
// IN_APP is never suppressed; the inbox record is the floor of delivery.
func (p *Preference) AllowsChannel(channel string) bool {
	switch channel {
	case domain.ChannelRealtime:
		return p.Realtime
	case domain.ChannelEmail:
		return p.Email
	case domain.ChannelPush:
		return p.Push
	default:
		return true
	}
}

// InQuietHours reports whether t falls inside the quiet window, evaluated in
// the preference's timezone. A malformed window or timezone disables quiet
// hours rather than suppressing delivery.
func (p *Preference) InQuietHours(t time.Time) bool {
	if p.QuietStart == "" || p.QuietEnd == "" {
		return false
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start, err1 := minutesOfDay(p.QuietStart)
	end, err2 := minutesOfDay(p.QuietEnd)
	if err1 != nil || err2 != nil || start == end {
		return false
	}
	local := t.In(loc)
	now := local.Hour()*60 + local.Minute()
	if start < end {
		return now >= start && now < end
	}
	// window wraps midnight, e.g. 22:00-07:00
	return now >= start || now < end
}

func minutesOfDay(hhmm string) (int, error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// MutedTopicSet parses the muted-topics JSON into a lookup set. A corrupt
// value mutes nothing.
func (p *Preference) MutedTopicSet() map[string]struct{} {
	out := make(map[string]struct{})
	if p.MutedTopics == "" {
		return out
	}
	var topics []string
	if err := json.Unmarshal([]byte(p.MutedTopics), &topics); err != nil {
		return out
	}
	for _, topic := range topics {
		out[topic] = struct{}{}
	}
	return out
}

// SetMutedTopics stores the muted-topics list as JSON.
func (p *Preference) SetMutedTopics(topics []string) {
	if len(topics) == 0 {
		p.MutedTopics = ""
		return
	}
	b, _ := json.Marshal(topics)
	p.MutedTopics = string(b)
}
