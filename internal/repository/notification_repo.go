package repository

import (
	"errors"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBatch durably inserts one chunk of fan-out records. Conflicts on
// (event_id, user_id) are ignored so a restarted fan-out or a racing realtime
// reconciliation never yields two records for the same user and event.
func (r *NotificationRepository) CreateBatch(list []*models.Notification) error {
	if len(list) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&list).Error
}

// ListByEvent reloads the persisted records of one event, including rows that
// survived a previous partially-completed dispatch.
func (r *NotificationRepository) ListByEvent(eventID string) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("event_id = ?", eventID).Find(&list).Error
	return list, err
}

// ListByEventAndUsers reloads the persisted records of one fan-out chunk.
// Rows created by an earlier partially-completed dispatch come back too, which
// is what makes fan-out restartable at chunk granularity.
func (r *NotificationRepository) ListByEventAndUsers(eventID string, userIDs []uint) ([]models.Notification, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var list []models.Notification
	err := r.db.Where("event_id = ? AND user_id IN ?", eventID, userIDs).Find(&list).Error
	return list, err
}

// GetForUser loads a notification owned by the given user.
func (r *NotificationRepository) GetForUser(id, userID uint) (*models.Notification, error) {
	var n models.Notification
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) Save(n *models.Notification) error {
	return r.db.Save(n).Error
}

// NotificationFilter narrows the inbox listing.
type NotificationFilter struct {
	Status     string
	EventType  string
	UnreadOnly bool
}

func (r *NotificationRepository) ListByUser(userID uint, f NotificationFilter, limit, offset int) ([]models.Notification, error) {
	q := r.db.Where("user_id = ? AND status <> ?", userID, domain.StatusCancelled)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var list []models.Notification
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL AND status <> ?", userID, domain.StatusCancelled).
		Count(&count).Error
	return count, err
}

// DeleteForUser removes a notification at its owner's request. This and
// retention cleanup are the only paths that ever delete records.
func (r *NotificationRepository) DeleteForUser(id, userID uint) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PurgeTerminal deletes aged records that can see no further delivery work:
// terminal statuses plus failures past the retry cap.
func (r *NotificationRepository) PurgeTerminal(olderThan time.Time) (int64, error) {
	res := r.db.Where("created_at < ? AND (status IN ? OR (status = ? AND retry_count >= ?))",
		olderThan, []string{domain.StatusCancelled, domain.StatusClicked}, domain.StatusFailed, domain.MaxRetries).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// SelectRetryable picks failed notifications still under the retry cap whose
// last update predates the backoff cutoff, bounded per sweep.
func (r *NotificationRepository) SelectRetryable(cutoff time.Time, limit int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("status = ? AND retry_count < ? AND updated_at < ?",
		domain.StatusFailed, domain.MaxRetries, cutoff).
		Order("updated_at ASC").Limit(limit).Find(&list).Error
	return list, err
}

// ClaimForRetry flips one failed notification back to PENDING with a guarded
// read-modify-write: the WHERE clause re-checks status and retry count so two
// overlapping sweeps (or a sweep racing live dispatch) cannot both claim the
// same row. Returns false when another worker won.
func (r *NotificationRepository) ClaimForRetry(id uint, seenRetryCount int) (bool, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND status = ? AND retry_count = ?", id, domain.StatusFailed, seenRetryCount).
		Updates(map[string]interface{}{
			"status":        domain.StatusPending,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"error_message": "",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RetryStats summarizes the failure backlog.
type RetryStats struct {
	PendingRetry int64 `json:"pending_retry"`
	Exhausted    int64 `json:"exhausted"`
	TotalFailed  int64 `json:"total_failed"`
}

func (r *NotificationRepository) GetRetryStats() (*RetryStats, error) {
	var stats RetryStats
	base := r.db.Model(&models.Notification{}).Where("status = ?", domain.StatusFailed)
	if err := base.Session(&gorm.Session{}).Count(&stats.TotalFailed).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("retry_count < ?", domain.MaxRetries).Count(&stats.PendingRetry).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("retry_count >= ?", domain.MaxRetries).Count(&stats.Exhausted).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// CountRow is one bucket of an aggregate query.
type CountRow struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// AnalyticsFilter bounds the aggregation window.
type AnalyticsFilter struct {
	From      *time.Time
	To        *time.Time
	EventType string
	Scope     string
}

func (r *NotificationRepository) analyticsQuery(f AnalyticsFilter) *gorm.DB {
	q := r.db.Model(&models.Notification{})
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.Scope != "" {
		q = q.Where("scope = ?", f.Scope)
	}
	return q
}

func (r *NotificationRepository) CountByStatus(f AnalyticsFilter) (map[string]int64, error) {
	var rows []CountRow
	err := r.analyticsQuery(f).
		Select("status AS `key`, COUNT(*) AS count").
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

func (r *NotificationRepository) CountByEventType(f AnalyticsFilter) ([]CountRow, error) {
	var rows []CountRow
	err := r.analyticsQuery(f).
		Select("event_type AS `key`, COUNT(*) AS count").
		Group("event_type").Order("count DESC").Scan(&rows).Error
	return rows, err
}

func (r *NotificationRepository) CountByScope(f AnalyticsFilter) ([]CountRow, error) {
	var rows []CountRow
	err := r.analyticsQuery(f).
		Select("scope AS `key`, COUNT(*) AS count").
		Group("scope").Scan(&rows).Error
	return rows, err
}

// DailyRow is one day of the delivery time series.
type DailyRow struct {
	Day   string `json:"day"`
	Total int64  `json:"total"`
	Sent  int64  `json:"sent"`
	Read  int64  `json:"read"`
}

func (r *NotificationRepository) DailySeries(f AnalyticsFilter) ([]DailyRow, error) {
	var rows []DailyRow
	err := r.analyticsQuery(f).
		Select("DATE(created_at) AS day, COUNT(*) AS total, " +
			"SUM(CASE WHEN status IN ('SENT','READ','CLICKED') THEN 1 ELSE 0 END) AS sent, " +
			"SUM(CASE WHEN status IN ('READ','CLICKED') THEN 1 ELSE 0 END) AS `read`").
		Group("DATE(created_at)").Order("day ASC").Scan(&rows).Error
	return rows, err
}
