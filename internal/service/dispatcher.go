package service

import (
	"context"
	"encoding/json"
	"fmt"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/internal/ws"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event is the single ingress payload other domain modules hand to the
// dispatcher when something notification-worthy happens.
type Event struct {
	Type         string                 `json:"event_type"`
	Scope        string                 `json:"scope"`
	ScopeID      uint                   `json:"scope_id,omitempty"`      // course ID for COURSE scope
	TargetUserID uint                   `json:"target_user_id,omitempty"` // recipient for USER scope
	Title        string                 `json:"title,omitempty"`
	Message      string                 `json:"message,omitempty"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// DispatchResult reports what one event produced.
type DispatchResult struct {
	EventID    string `json:"event_id"`
	Recipients int    `json:"recipients"`
}

// Dispatcher turns domain events into per-recipient notification records and
// routes each through the channel router. Channel failures are recorded and
// retried asynchronously; Dispatch itself fails only on malformed input or an
// unknown direct recipient.
type Dispatcher struct {
	subs        SubscriptionStore
	records     NotificationStore
	users       UserDirectory
	enrollments EnrollmentProvider
	router      *ChannelRouter
	hub         RealtimeEmitter
	log         *logrus.Entry
}

func NewDispatcher(subs SubscriptionStore, records NotificationStore, users UserDirectory,
	enrollments EnrollmentProvider, router *ChannelRouter, hub RealtimeEmitter) *Dispatcher {
	return &Dispatcher{
		subs:        subs,
		records:     records,
		users:       users,
		enrollments: enrollments,
		router:      router,
		hub:         hub,
		log:         logrus.WithField("component", "dispatcher"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (*DispatchResult, error) {
	info, ok := domain.EventCatalog[ev.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event type %q", domain.ErrBadRequest, ev.Type)
	}
	if !domain.ValidScope(ev.Scope) {
		return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrBadRequest, ev.Scope)
	}
	if ev.Scope == domain.ScopeCourse && ev.ScopeID == 0 {
		return nil, fmt.Errorf("%w: COURSE scope requires scope_id", domain.ErrBadRequest)
	}
	if ev.Title == "" {
		ev.Title = info.DefaultTitle
	}

	audience, subsByUser, err := d.resolveAudience(ev)
	if err != nil {
		return nil, err
	}
	eventID := uuid.NewString()
	result := &DispatchResult{EventID: eventID, Recipients: len(audience)}
	if len(audience) == 0 {
		return result, nil
	}

	var dataJSON string
	if ev.Payload != nil {
		b, _ := json.Marshal(ev.Payload)
		dataJSON = string(b)
	}

	// Urgent course events hit the course room before durable fan-out so live
	// viewers see them with no fan-out latency. Records reconcile below via
	// the (event_id, user_id) conflict-ignoring insert.
	broadcast := false
	if info.Urgent && ev.Scope == domain.ScopeCourse {
		frame := &models.Notification{
			EventID:   eventID,
			EventType: ev.Type,
			Scope:     ev.Scope,
			ScopeID:   ev.ScopeID,
			Title:     ev.Title,
			Message:   ev.Message,
			Data:      dataJSON,
		}
		d.hub.EmitToCourse(ev.ScopeID, ws.NotificationMessage(frame))
		broadcast = true
	}

	// Chunked fan-out: each chunk's records are durably created before any
	// channel dispatch for that chunk, so a crash mid-fan-out only needs the
	// remaining chunks reprocessed.
	for start := 0; start < len(audience); start += domain.FanoutChunkSize {
		end := start + domain.FanoutChunkSize
		if end > len(audience) {
			end = len(audience)
		}
		chunk := audience[start:end]
		if err := d.fanOutChunk(ctx, ev, eventID, dataJSON, chunk, subsByUser, info.Urgent, broadcast); err != nil {
			return nil, err
		}
	}
	d.log.WithFields(logrus.Fields{
		"event_id":   eventID,
		"event_type": ev.Type,
		"scope":      ev.Scope,
		"recipients": len(audience),
	}).Info("event dispatched")
	return result, nil
}

// resolveAudience returns the deduplicated recipient list and, for COURSE
// scope, any explicit subscriptions keyed by user so their channel choices are
// honored during fan-out.
func (d *Dispatcher) resolveAudience(ev Event) ([]uint, map[uint]*models.Subscription, error) {
	if ev.Scope == domain.ScopeUser {
		if ev.TargetUserID == 0 {
			return nil, nil, fmt.Errorf("%w: USER scope requires target_user_id", domain.ErrBadRequest)
		}
		exists, err := d.users.Exists(ev.TargetUserID)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			return nil, nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, ev.TargetUserID)
		}
		return []uint{ev.TargetUserID}, nil, nil
	}

	// COURSE scope: union of explicit subscribers and enrolled users.
	// Enrollment implies an ambient subscription; mutes are applied later by
	// the channel router.
	subscribers, err := d.subs.ActiveUserIDs(ev.Type, domain.ScopeCourse, ev.ScopeID)
	if err != nil {
		return nil, nil, err
	}
	enrolled, err := d.enrollments.UsersForCourse(ev.ScopeID)
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[uint]struct{}, len(subscribers)+len(enrolled))
	audience := make([]uint, 0, len(subscribers)+len(enrolled))
	for _, id := range subscribers {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			audience = append(audience, id)
		}
	}
	for _, id := range enrolled {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			audience = append(audience, id)
		}
	}
	subsByUser, err := d.subs.ActiveForUsers(audience, ev.Type, domain.ScopeCourse, ev.ScopeID)
	if err != nil {
		return nil, nil, err
	}
	return audience, subsByUser, nil
}

func (d *Dispatcher) fanOutChunk(ctx context.Context, ev Event, eventID, dataJSON string,
	chunk []uint, subsByUser map[uint]*models.Subscription, urgent, broadcast bool) error {
	records := make([]*models.Notification, 0, len(chunk))
	for _, userID := range chunk {
		n := &models.Notification{
			EventID:   eventID,
			UserID:    userID,
			EventType: ev.Type,
			Scope:     ev.Scope,
			ScopeID:   ev.ScopeID,
			Title:     ev.Title,
			Message:   ev.Message,
			Data:      dataJSON,
			Status:    domain.StatusPending,
		}
		if sub := subsByUser[userID]; sub != nil {
			n.SetChannels(sub.RequestedChannels())
		} else {
			n.SetChannels([]string{domain.ChannelRealtime, domain.ChannelEmail, domain.ChannelPush})
		}
		records = append(records, n)
	}
	if err := d.records.CreateBatch(records); err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}
	// Reload so rows from an earlier interrupted run come back with their
	// real IDs and current status; only PENDING rows get routed.
	persisted, err := d.records.ListByEventAndUsers(eventID, chunk)
	if err != nil {
		return fmt.Errorf("reload notifications: %w", err)
	}
	for i := range persisted {
		n := &persisted[i]
		if n.Status != domain.StatusPending {
			continue
		}
		opts := DeliverOptions{Urgent: urgent, SkipRealtimeEmit: broadcast}
		if err := d.router.Deliver(ctx, n, opts); err != nil {
			// channel problems are per-recipient and retried later, never
			// surfaced to the event producer
			d.log.WithError(err).WithFields(logrus.Fields{
				"event_id": eventID,
				"user_id":  n.UserID,
			}).Error("delivery failed")
		}
	}
	return nil
}
