package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/internal/ws"

	"github.com/sirupsen/logrus"
)

// ChannelRouter decides which channels fire for a notification and runs the
// sends. Channel outcomes are independent: one channel failing never rolls
// back another's success. The notification ends SENT if at least one attempted
// channel succeeded, FAILED if every attempt failed, CANCELLED if preferences,
// quiet hours or mutes left nothing to attempt.
type ChannelRouter struct {
	records     NotificationStore
	prefs       PreferenceStore
	tokens      DeviceTokenStore
	users       UserDirectory
	email       EmailSender
	push        PushSender
	hub         RealtimeEmitter
	sendTimeout time.Duration
	now         func() time.Time
	log         *logrus.Entry
}

func NewChannelRouter(records NotificationStore, prefs PreferenceStore, tokens DeviceTokenStore,
	users UserDirectory, email EmailSender, push PushSender, hub RealtimeEmitter, sendTimeout time.Duration) *ChannelRouter {
	return &ChannelRouter{
		records:     records,
		prefs:       prefs,
		tokens:      tokens,
		users:       users,
		email:       email,
		push:        push,
		hub:         hub,
		sendTimeout: sendTimeout,
		now:         time.Now,
		log:         logrus.WithField("component", "channel_router"),
	}
}

// DeliverOptions tune one routing pass.
type DeliverOptions struct {
	// Urgent bypasses quiet hours.
	Urgent bool
	// SkipRealtimeEmit suppresses the per-user realtime frame when the event
	// was already broadcast to a course room; the channel still counts as
	// delivered for status accounting.
	SkipRealtimeEmit bool
}

// Deliver routes one PENDING notification. The requested channel set is read
// from the record itself so retries attempt the same channels as the original
// dispatch.
func (r *ChannelRouter) Deliver(ctx context.Context, n *models.Notification, opts DeliverOptions) error {
	if n.Status != domain.StatusPending {
		return nil // already routed, nothing to do
	}
	category := domain.CategoryFor(n.EventType)
	pref, err := r.prefs.GetOrCreate(n.UserID, category)
	if err != nil {
		return fmt.Errorf("load preference: %w", err)
	}

	if r.blocked(n, pref, opts.Urgent) {
		return r.cancel(n)
	}

	enabled := make([]string, 0, 3)
	for _, ch := range n.ChannelList() {
		if pref.AllowsChannel(ch) {
			enabled = append(enabled, ch)
		}
	}
	if len(enabled) == 0 {
		return r.cancel(n)
	}

	var (
		attempted []string
		succeeded int
		failures  []string
		delivered bool
	)
	for _, ch := range enabled {
		switch ch {
		case domain.ChannelRealtime:
			// Realtime cannot fail from the router's perspective: a live
			// session gets the frame, otherwise the record itself is the
			// in-app inbox entry.
			live := 0
			if opts.SkipRealtimeEmit {
				live = 1
			} else {
				live = r.hub.EmitToUser(n.UserID, ws.NotificationMessage(n))
			}
			attempted = append(attempted, domain.ChannelRealtime)
			if live > 0 {
				delivered = true
			} else {
				attempted = append(attempted, domain.ChannelInApp)
			}
			succeeded++
		case domain.ChannelEmail:
			attempted = append(attempted, domain.ChannelEmail)
			if err := r.sendEmail(ctx, n); err != nil {
				failures = append(failures, fmt.Sprintf("EMAIL: %v", err))
			} else {
				succeeded++
			}
		case domain.ChannelPush:
			attempted = append(attempted, domain.ChannelPush)
			if err := r.sendPush(ctx, n); err != nil {
				failures = append(failures, fmt.Sprintf("PUSH: %v", err))
			} else {
				succeeded++
			}
		}
	}

	now := r.now()
	n.SetChannels(attempted)
	if succeeded > 0 {
		n.Status = domain.StatusSent
		n.SentAt = &now
		if delivered {
			n.DeliveredAt = &now
		}
		n.ErrorMessage = strings.Join(failures, "; ")
	} else {
		n.Status = domain.StatusFailed
		n.ErrorMessage = strings.Join(failures, "; ")
	}
	if err := r.records.Save(n); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	if len(failures) > 0 {
		r.log.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"user_id":         n.UserID,
			"status":          n.Status,
			"errors":          n.ErrorMessage,
		}).Warn("channel failures during delivery")
	}
	return nil
}

// blocked applies mutes and quiet hours. Urgent events are never suppressed by
// quiet hours.
func (r *ChannelRouter) blocked(n *models.Notification, pref *models.Preference, urgent bool) bool {
	muted := pref.MutedTopicSet()
	if _, ok := muted[n.EventType]; ok {
		return true
	}
	if n.Scope == domain.ScopeCourse {
		if _, ok := muted[fmt.Sprintf("course:%d", n.ScopeID)]; ok {
			return true
		}
	}
	if !urgent && pref.InQuietHours(r.now()) {
		return true
	}
	return false
}

func (r *ChannelRouter) cancel(n *models.Notification) error {
	if !domain.CanTransition(n.Status, domain.StatusCancelled) {
		return nil
	}
	n.Status = domain.StatusCancelled
	n.SetChannels(nil)
	return r.records.Save(n)
}

func (r *ChannelRouter) sendEmail(ctx context.Context, n *models.Notification) error {
	if r.email == nil {
		return fmt.Errorf("email sender unavailable")
	}
	address, err := r.users.EmailFor(n.UserID)
	if err != nil {
		return fmt.Errorf("resolve address: %w", err)
	}
	sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()
	return r.email.Send(sendCtx, address, n.Title, n.Message)
}

// sendPush fires the push channel; the channel succeeds when at least one
// device token accepts the message. Tokens the provider reports invalid are
// deactivated as a side effect, not counted as delivery failures on their own.
func (r *ChannelRouter) sendPush(ctx context.Context, n *models.Notification) error {
	if r.push == nil {
		return fmt.Errorf("push sender unavailable")
	}
	tokens, err := r.tokens.ActiveTokens(n.UserID)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}
	if len(tokens) == 0 {
		return fmt.Errorf("no active device tokens")
	}
	sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()
	var payload map[string]interface{}
	if n.Data != "" {
		_ = json.Unmarshal([]byte(n.Data), &payload)
	}
	data := PushData(n.EventType, payload)
	data["event_id"] = n.EventID
	results, _ := r.push.Send(sendCtx, tokens, n.Title, n.Message, data)

	okCount := 0
	var firstErr string
	for _, res := range results {
		if res.OK {
			okCount++
			continue
		}
		if res.Invalid {
			if err := r.tokens.Deactivate(n.UserID, res.Token); err != nil {
				r.log.WithError(err).WithField("user_id", n.UserID).Warn("failed to deactivate invalid token")
			}
		}
		if firstErr == "" {
			firstErr = res.Err
		}
	}
	if okCount == 0 {
		if firstErr == "" {
			firstErr = "all tokens rejected"
		}
		return fmt.Errorf("%s", firstErr)
	}
	return nil
}
