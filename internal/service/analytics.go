package service

import (
	"edupulse/internal/domain"
	"edupulse/internal/repository"
)

// AnalyticsStore is the read-only slice of the record store the aggregator
// rolls up.
type AnalyticsStore interface {
	CountByStatus(f repository.AnalyticsFilter) (map[string]int64, error)
	CountByEventType(f repository.AnalyticsFilter) ([]repository.CountRow, error)
	CountByScope(f repository.AnalyticsFilter) ([]repository.CountRow, error)
	DailySeries(f repository.AnalyticsFilter) ([]repository.DailyRow, error)
}

// Overview is the rate rollup over a window.
type Overview struct {
	Total        int64            `json:"total"`
	Delivered    int64            `json:"delivered"`
	Read         int64            `json:"read"`
	Cancelled    int64            `json:"cancelled"`
	Failed       int64            `json:"failed"`
	DeliveryRate float64          `json:"delivery_rate"`
	ReadRate     float64          `json:"read_rate"`
	ByStatus     map[string]int64 `json:"by_status"`
}

// AnalyticsService computes read-only rollups over the notification record
// store. Windows with no data report zero rates, never errors.
type AnalyticsService struct {
	store AnalyticsStore
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

func (s *AnalyticsService) Overview(f repository.AnalyticsFilter) (*Overview, error) {
	byStatus, err := s.store.CountByStatus(f)
	if err != nil {
		return nil, err
	}
	o := &Overview{ByStatus: byStatus}
	for _, c := range byStatus {
		o.Total += c
	}
	delivered := byStatus[domain.StatusSent] + byStatus[domain.StatusRead] + byStatus[domain.StatusClicked]
	read := byStatus[domain.StatusRead] + byStatus[domain.StatusClicked]
	o.Delivered = delivered
	o.Read = read
	o.Cancelled = byStatus[domain.StatusCancelled]
	o.Failed = byStatus[domain.StatusFailed]
	if nonCancelled := o.Total - o.Cancelled; nonCancelled > 0 {
		o.DeliveryRate = float64(delivered) / float64(nonCancelled)
	}
	if delivered > 0 {
		o.ReadRate = float64(read) / float64(delivered)
	}
	return o, nil
}

func (s *AnalyticsService) ByEventType(f repository.AnalyticsFilter) ([]repository.CountRow, error) {
	return s.store.CountByEventType(f)
}

func (s *AnalyticsService) ByScope(f repository.AnalyticsFilter) ([]repository.CountRow, error) {
	return s.store.CountByScope(f)
}

func (s *AnalyticsService) Daily(f repository.AnalyticsFilter) ([]repository.DailyRow, error) {
	return s.store.DailySeries(f)
}
