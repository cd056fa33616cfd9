package service

import (
	"testing"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotification(t *testing.T, records *fakeRecords, status string) *models.Notification {
	t.Helper()
	n := &models.Notification{
		EventID: "evt-1", UserID: 1,
		EventType: domain.EventQuizGraded,
		Scope:     domain.ScopeUser,
		Status:    status,
	}
	require.NoError(t, records.CreateBatch([]*models.Notification{n}))
	return n
}

func TestMarkReadTransitionsSentToRead(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	n := seedNotification(t, records, domain.StatusSent)

	got, err := svc.MarkRead(n.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, got.Status)
	require.NotNil(t, got.ReadAt)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	n := seedNotification(t, records, domain.StatusSent)

	first, err := svc.MarkRead(n.ID, 1)
	require.NoError(t, err)
	second, err := svc.MarkRead(n.ID, 1)
	require.NoError(t, err)

	// repeat returns the record unchanged, original timestamp intact
	assert.True(t, first.ReadAt.Equal(*second.ReadAt))
	assert.Equal(t, domain.StatusRead, second.Status)
}

func TestMarkReadRejectsPending(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	n := seedNotification(t, records, domain.StatusPending)

	_, err := svc.MarkRead(n.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestMarkReadRejectsCancelled(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	n := seedNotification(t, records, domain.StatusCancelled)

	_, err := svc.MarkRead(n.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestMarkReadWrongOwnerIsNotFound(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	n := seedNotification(t, records, domain.StatusSent)

	_, err := svc.MarkRead(n.ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkClickedPassesThroughRead(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	n := seedNotification(t, records, domain.StatusSent)

	got, err := svc.MarkClicked(n.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClicked, got.Status)
	require.NotNil(t, got.ReadAt)
	require.NotNil(t, got.ClickedAt)
	assert.True(t, got.ReadAt.Equal(*got.ClickedAt))
}

func TestMarkClickedAfterReadKeepsReadTimestamp(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	readAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return readAt }
	n := seedNotification(t, records, domain.StatusSent)

	_, err := svc.MarkRead(n.ID, 1)
	require.NoError(t, err)

	clickedAt := readAt.Add(5 * time.Minute)
	svc.now = func() time.Time { return clickedAt }
	got, err := svc.MarkClicked(n.ID, 1)
	require.NoError(t, err)
	assert.True(t, got.ReadAt.Equal(readAt))
	assert.True(t, got.ClickedAt.Equal(clickedAt))
}

func TestMarkClickedIsIdempotent(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	n := seedNotification(t, records, domain.StatusSent)

	first, err := svc.MarkClicked(n.ID, 1)
	require.NoError(t, err)
	second, err := svc.MarkClicked(n.ID, 1)
	require.NoError(t, err)
	assert.True(t, first.ClickedAt.Equal(*second.ClickedAt))
}

func TestListExcludesCancelled(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	seedNotification(t, records, domain.StatusSent)
	cancelled := &models.Notification{
		EventID: "evt-2", UserID: 1,
		EventType: domain.EventLessonPublished,
		Scope:     domain.ScopeUser,
		Status:    domain.StatusCancelled,
	}
	require.NoError(t, records.CreateBatch([]*models.Notification{cancelled}))

	list, err := svc.List(1, repository.NotificationFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusSent, list[0].Status)
}

func TestCountUnreadDropsAfterRead(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	n := seedNotification(t, records, domain.StatusSent)

	count, err := svc.CountUnread(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.MarkRead(n.ID, 1)
	require.NoError(t, err)

	count, err = svc.CountUnread(1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	records := newFakeRecords()
	svc := NewNotificationService(records)
	n := seedNotification(t, records, domain.StatusSent)

	assert.ErrorIs(t, svc.Delete(n.ID, 2), domain.ErrNotFound)
	assert.NoError(t, svc.Delete(n.ID, 1))
	_, err := records.GetForUser(n.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
