package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusSent, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusFailed, true},
		{StatusFailed, StatusPending, true},
		{StatusFailed, StatusSent, true},
		{StatusSent, StatusRead, true},
		{StatusRead, StatusClicked, true},

		// repeats are no-ops, not errors
		{StatusRead, StatusRead, true},
		{StatusSent, StatusSent, true},

		// backward moves are rejected
		{StatusRead, StatusSent, false},
		{StatusSent, StatusPending, false},
		{StatusClicked, StatusRead, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusSent, false},

		// no skipping the read step
		{StatusPending, StatusRead, false},
		{StatusSent, StatusClicked, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, TerminalStatus(StatusCancelled))
	assert.True(t, TerminalStatus(StatusClicked))
	assert.False(t, TerminalStatus(StatusFailed)) // terminal only once retries are exhausted
	assert.False(t, TerminalStatus(StatusSent))
	assert.False(t, TerminalStatus(StatusPending))
}

func TestEventCatalog(t *testing.T) {
	info, ok := EventCatalog[EventLiveSessionStarting]
	assert.True(t, ok)
	assert.True(t, info.Urgent)
	assert.Equal(t, CategoryLive, info.Category)

	assert.Equal(t, CategoryContent, CategoryFor(EventLessonPublished))
	assert.Equal(t, "", CategoryFor("NO_SUCH_EVENT"))

	assert.True(t, ValidScope(ScopeUser))
	assert.True(t, ValidScope(ScopeCourse))
	assert.False(t, ValidScope("GLOBAL"))
}
