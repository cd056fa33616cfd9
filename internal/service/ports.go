package service

import (
	"context"
	"time"

	"edupulse/internal/models"
	"edupulse/internal/repository"
)

// Capabilities the delivery engine consumes. The gorm repositories satisfy the
// store interfaces; the provider interfaces mark the boundary to collaborators
// that live outside this core (identity, courses, email/push providers).

type SubscriptionStore interface {
	Create(s *models.Subscription) error
	Save(s *models.Subscription) error
	FindByKey(userID uint, eventType, scope string, scopeID uint) (*models.Subscription, error)
	ActiveUserIDs(eventType, scope string, scopeID uint) ([]uint, error)
	ActiveForUsers(userIDs []uint, eventType, scope string, scopeID uint) (map[uint]*models.Subscription, error)
	ListByUser(userID uint) ([]models.Subscription, error)
}

type NotificationStore interface {
	CreateBatch(list []*models.Notification) error
	ListByEventAndUsers(eventID string, userIDs []uint) ([]models.Notification, error)
	GetForUser(id, userID uint) (*models.Notification, error)
	Save(n *models.Notification) error
	ListByUser(userID uint, f repository.NotificationFilter, limit, offset int) ([]models.Notification, error)
	CountUnread(userID uint) (int64, error)
	DeleteForUser(id, userID uint) error
	PurgeTerminal(olderThan time.Time) (int64, error)
	SelectRetryable(cutoff time.Time, limit int) ([]models.Notification, error)
	ClaimForRetry(id uint, seenRetryCount int) (bool, error)
	GetRetryStats() (*repository.RetryStats, error)
}

type PreferenceStore interface {
	GetOrCreate(userID uint, category string) (*models.Preference, error)
	Save(p *models.Preference) error
	ListByUser(userID uint) ([]models.Preference, error)
}

type DeviceTokenStore interface {
	Register(userID uint, token, platform string) error
	ActiveTokens(userID uint) ([]string, error)
	Deactivate(userID uint, token string) error
}

// UserDirectory validates recipients and routes email.
type UserDirectory interface {
	Exists(id uint) (bool, error)
	EmailFor(id uint) (string, error)
}

// EnrollmentProvider resolves COURSE-scope audiences.
type EnrollmentProvider interface {
	CoursesForUser(userID uint) ([]uint, error)
	UsersForCourse(courseID uint) ([]uint, error)
	IsEnrolled(userID, courseID uint) (bool, error)
}

// EmailSender is the external email provider boundary.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PushResult reports one token's outcome; Invalid marks tokens the provider
// says are dead, which deactivates the device rather than failing delivery.
type PushResult struct {
	Token   string
	OK      bool
	Invalid bool
	Err     string
}

// PushSender is the external push provider boundary.
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]PushResult, error)
}

// RealtimeEmitter is the live-session manager as seen by the router.
type RealtimeEmitter interface {
	EmitToUser(userID uint, payload interface{}) int
	EmitToCourse(courseID uint, payload interface{}) int
}
