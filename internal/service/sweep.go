package service

import (
	"context"
	"time"

	"edupulse/config"
	"edupulse/internal/domain"
	"edupulse/internal/repository"

	"github.com/sirupsen/logrus"
)

// RetrySweep periodically rescans failed deliveries and feeds them back
// through the channel router. It races live dispatch for the same rows, so
// every claim is a guarded compare-and-swap; losing the race just means the
// row is skipped this round.
type RetrySweep struct {
	records  NotificationStore
	router   *ChannelRouter
	interval time.Duration
	backoff  time.Duration
	batch    int
	retain   time.Duration
	now      func() time.Time
	log      *logrus.Entry
}

func NewRetrySweep(records NotificationStore, router *ChannelRouter, cfg *config.NotifyConfig) *RetrySweep {
	return &RetrySweep{
		records:  records,
		router:   router,
		interval: cfg.SweepInterval,
		backoff:  cfg.RetryBackoff,
		batch:    cfg.SweepBatch,
		retain:   cfg.Retention,
		now:      time.Now,
		log:      logrus.WithField("component", "retry_sweep"),
	}
}

// Start runs the sweep until the context is cancelled. Retention cleanup
// rides along on a much slower ticker.
func (s *RetrySweep) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	purge := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	defer purge.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-purge.C:
			if n, err := s.records.PurgeTerminal(s.now().Add(-s.retain)); err != nil {
				s.log.WithError(err).Error("retention purge failed")
			} else if n > 0 {
				s.log.WithField("purged", n).Info("retention purge")
			}
		}
	}
}

// RunOnce executes a single sweep and returns how many notifications were
// claimed and re-routed. One bad row never aborts the rest of the batch.
func (s *RetrySweep) RunOnce(ctx context.Context) int {
	cutoff := s.now().Add(-s.backoff)
	rows, err := s.records.SelectRetryable(cutoff, s.batch)
	if err != nil {
		s.log.WithError(err).Error("sweep select failed")
		return 0
	}
	claimed := 0
	for i := range rows {
		n := &rows[i]
		ok, err := s.records.ClaimForRetry(n.ID, n.RetryCount)
		if err != nil {
			s.log.WithError(err).WithField("notification_id", n.ID).Error("claim failed")
			continue
		}
		if !ok {
			continue // another sweep or live dispatch got there first
		}
		claimed++
		n.Status = domain.StatusPending
		n.RetryCount++
		n.ErrorMessage = ""
		urgent := domain.EventCatalog[n.EventType].Urgent
		if err := s.router.Deliver(ctx, n, DeliverOptions{Urgent: urgent}); err != nil {
			s.log.WithError(err).WithField("notification_id", n.ID).Error("retry delivery failed")
		}
	}
	if claimed > 0 {
		s.log.WithField("claimed", claimed).Info("retry sweep complete")
	}
	return claimed
}

// Stats surfaces the failure backlog; exhausted notifications stay FAILED
// permanently and are reported here rather than escalated.
func (s *RetrySweep) Stats() (*repository.RetryStats, error) {
	return s.records.GetRetryStats()
}
