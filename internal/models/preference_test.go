package models

import (
	"testing"
	"time"

	"edupulse/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestInQuietHoursSimpleWindow(t *testing.T) {
	p := &Preference{QuietStart: "13:00", QuietEnd: "15:00", Timezone: "UTC"}

	assert.False(t, p.InQuietHours(time.Date(2026, 3, 10, 12, 59, 0, 0, time.UTC)))
	assert.True(t, p.InQuietHours(time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)))
	assert.True(t, p.InQuietHours(time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)))
	// end is exclusive
	assert.False(t, p.InQuietHours(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)))
}

func TestInQuietHoursWrapsMidnight(t *testing.T) {
	p := &Preference{QuietStart: "22:00", QuietEnd: "07:00", Timezone: "UTC"}

	assert.True(t, p.InQuietHours(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)))
	assert.True(t, p.InQuietHours(time.Date(2026, 3, 10, 2, 30, 0, 0, time.UTC)))
	assert.True(t, p.InQuietHours(time.Date(2026, 3, 10, 6, 59, 0, 0, time.UTC)))
	assert.False(t, p.InQuietHours(time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)))
	assert.False(t, p.InQuietHours(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)))
	assert.False(t, p.InQuietHours(time.Date(2026, 3, 10, 21, 59, 0, 0, time.UTC)))
}

func TestInQuietHoursUsesPreferenceTimezone(t *testing.T) {
	p := &Preference{QuietStart: "22:00", QuietEnd: "07:00", Timezone: "America/New_York"}

	// 03:00 UTC is 22:00 or 23:00 in New York depending on DST, inside either way
	assert.True(t, p.InQuietHours(time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)))
	// 17:00 UTC is midday in New York
	assert.False(t, p.InQuietHours(time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)))
}

func TestInQuietHoursDisabledOrMalformed(t *testing.T) {
	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	unset := &Preference{Timezone: "UTC"}
	assert.False(t, unset.InQuietHours(midnight))

	malformed := &Preference{QuietStart: "25:99", QuietEnd: "07:00", Timezone: "UTC"}
	assert.False(t, malformed.InQuietHours(midnight))

	degenerate := &Preference{QuietStart: "07:00", QuietEnd: "07:00", Timezone: "UTC"}
	assert.False(t, degenerate.InQuietHours(midnight))
}

func TestAllowsChannel(t *testing.T) {
	p := &Preference{Realtime: true, Email: false, Push: true}

	assert.True(t, p.AllowsChannel(domain.ChannelRealtime))
	assert.False(t, p.AllowsChannel(domain.ChannelEmail))
	assert.True(t, p.AllowsChannel(domain.ChannelPush))
	// the inbox record is never suppressed
	assert.True(t, p.AllowsChannel(domain.ChannelInApp))
}

func TestMutedTopicsRoundTrip(t *testing.T) {
	p := &Preference{}
	assert.Empty(t, p.MutedTopicSet())

	p.SetMutedTopics([]string{domain.EventQuizGraded, "course:42"})
	set := p.MutedTopicSet()
	assert.Contains(t, set, domain.EventQuizGraded)
	assert.Contains(t, set, "course:42")

	p.SetMutedTopics(nil)
	assert.Empty(t, p.MutedTopicSet())
}

func TestMutedTopicsCorruptValueMutesNothing(t *testing.T) {
	p := &Preference{MutedTopics: "{not json"}
	assert.Empty(t, p.MutedTopicSet())
}
