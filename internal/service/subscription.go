package service

import (
	"errors"
	"fmt"

	"edupulse/internal/domain"
	"edupulse/internal/models"

	"github.com/sirupsen/logrus"
)

// ChannelPrefs carries the per-subscription channel choices.
type ChannelPrefs struct {
	Realtime bool `json:"realtime"`
	Email    bool `json:"email"`
	Push     bool `json:"push"`
}

// DefaultChannelPrefs enables every channel.
func DefaultChannelPrefs() ChannelPrefs {
	return ChannelPrefs{Realtime: true, Email: true, Push: true}
}

// SubscriptionService is the subscription registry: one row ever exists per
// (user, event type, scope, scope id); unsubscribe deactivates, re-subscribe
// reactivates with fresh preferences.
type SubscriptionService struct {
	subs  SubscriptionStore
	users UserDirectory
	log   *logrus.Entry
}

func NewSubscriptionService(subs SubscriptionStore, users UserDirectory) *SubscriptionService {
	return &SubscriptionService{
		subs:  subs,
		users: users,
		log:   logrus.WithField("component", "subscriptions"),
	}
}

func (s *SubscriptionService) validateKey(eventType, scope string, scopeID uint) error {
	if _, ok := domain.EventCatalog[eventType]; !ok {
		return fmt.Errorf("%w: unknown event type %q", domain.ErrBadRequest, eventType)
	}
	if !domain.ValidScope(scope) {
		return fmt.Errorf("%w: unknown scope %q", domain.ErrBadRequest, scope)
	}
	if scope == domain.ScopeCourse && scopeID == 0 {
		return fmt.Errorf("%w: COURSE scope requires scope_id", domain.ErrBadRequest)
	}
	if scope == domain.ScopeUser && scopeID != 0 {
		return fmt.Errorf("%w: USER scope takes no scope_id", domain.ErrBadRequest)
	}
	return nil
}

// Subscribe opts a user in to a topic. An active row for the same key is a
// Conflict; an inactive row is reactivated with the new preferences.
func (s *SubscriptionService) Subscribe(userID uint, eventType, scope string, scopeID uint, prefs ChannelPrefs) (*models.Subscription, error) {
	if err := s.validateKey(eventType, scope, scopeID); err != nil {
		return nil, err
	}
	existing, err := s.subs.FindByKey(userID, eventType, scope, scopeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsActive {
			return nil, fmt.Errorf("%w: active subscription", domain.ErrConflict)
		}
		existing.IsActive = true
		existing.Realtime = prefs.Realtime
		existing.Email = prefs.Email
		existing.Push = prefs.Push
		if err := s.subs.Save(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	sub := &models.Subscription{
		UserID:    userID,
		EventType: eventType,
		Scope:     scope,
		ScopeID:   scopeID,
		IsActive:  true,
		Realtime:  prefs.Realtime,
		Email:     prefs.Email,
		Push:      prefs.Push,
	}
	if err := s.subs.Create(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe deactivates a subscription. Unknown key is NotFound; an already
// inactive row is a no-op, not an error.
func (s *SubscriptionService) Unsubscribe(userID uint, eventType, scope string, scopeID uint) error {
	if err := s.validateKey(eventType, scope, scopeID); err != nil {
		return err
	}
	existing, err := s.subs.FindByKey(userID, eventType, scope, scopeID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: subscription", domain.ErrNotFound)
	}
	if !existing.IsActive {
		return nil
	}
	existing.IsActive = false
	return s.subs.Save(existing)
}

// SubscribedUsers returns users with an active subscription to the topic.
func (s *SubscriptionService) SubscribedUsers(eventType, scope string, scopeID uint) ([]uint, error) {
	if err := s.validateKey(eventType, scope, scopeID); err != nil {
		return nil, err
	}
	return s.subs.ActiveUserIDs(eventType, scope, scopeID)
}

// BulkSubscribe is best-effort: an unknown user or a per-row failure is logged
// and skipped, never fatal to the batch. Users already subscribed count as
// succeeded. Returns the user IDs that ended up subscribed.
func (s *SubscriptionService) BulkSubscribe(userIDs []uint, eventType, scope string, scopeID uint) ([]uint, error) {
	if err := s.validateKey(eventType, scope, scopeID); err != nil {
		return nil, err
	}
	succeeded := make([]uint, 0, len(userIDs))
	for _, userID := range userIDs {
		exists, err := s.users.Exists(userID)
		if err != nil || !exists {
			s.log.WithField("user_id", userID).Warn("bulk subscribe: skipping unknown user")
			continue
		}
		_, err = s.Subscribe(userID, eventType, scope, scopeID, DefaultChannelPrefs())
		if err != nil {
			if isConflict(err) {
				succeeded = append(succeeded, userID)
				continue
			}
			s.log.WithError(err).WithField("user_id", userID).Warn("bulk subscribe: skipping user")
			continue
		}
		succeeded = append(succeeded, userID)
	}
	return succeeded, nil
}

func (s *SubscriptionService) ListForUser(userID uint) ([]models.Subscription, error) {
	return s.subs.ListByUser(userID)
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}
