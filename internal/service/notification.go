package service

import (
	"fmt"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/internal/repository"
)

// NotificationService is the recipient-facing inbox: listing, unread counts
// and the read/clicked transitions. Transitions follow the delivery state
// machine and are idempotent; repeating one returns the record unchanged.
type NotificationService struct {
	records NotificationStore
	now     func() time.Time
}

func NewNotificationService(records NotificationStore) *NotificationService {
	return &NotificationService{records: records, now: time.Now}
}

func (s *NotificationService) List(userID uint, f repository.NotificationFilter, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.records.ListByUser(userID, f, limit, offset)
}

func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.records.CountUnread(userID)
}

// MarkRead moves a SENT notification to READ. Marking an already-read one is a
// no-op that returns the record with its original read timestamp.
func (s *NotificationService) MarkRead(notificationID, userID uint) (*models.Notification, error) {
	n, err := s.records.GetForUser(notificationID, userID)
	if err != nil {
		return nil, err
	}
	if n.ReadAt != nil {
		return n, nil
	}
	if !domain.CanTransition(n.Status, domain.StatusRead) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, n.Status, domain.StatusRead)
	}
	now := s.now()
	n.Status = domain.StatusRead
	n.ReadAt = &now
	if err := s.records.Save(n); err != nil {
		return nil, err
	}
	return n, nil
}

// MarkClicked records an interaction. A still-unread notification passes
// through READ first, which is the only legal path to CLICKED.
func (s *NotificationService) MarkClicked(notificationID, userID uint) (*models.Notification, error) {
	n, err := s.records.GetForUser(notificationID, userID)
	if err != nil {
		return nil, err
	}
	if n.ClickedAt != nil {
		return n, nil
	}
	now := s.now()
	if n.ReadAt == nil {
		if !domain.CanTransition(n.Status, domain.StatusRead) {
			return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, n.Status, domain.StatusClicked)
		}
		n.Status = domain.StatusRead
		n.ReadAt = &now
	}
	if !domain.CanTransition(n.Status, domain.StatusClicked) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, n.Status, domain.StatusClicked)
	}
	n.Status = domain.StatusClicked
	n.ClickedAt = &now
	if err := s.records.Save(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes a notification at its owner's explicit request.
func (s *NotificationService) Delete(notificationID, userID uint) error {
	return s.records.DeleteForUser(notificationID, userID)
}
