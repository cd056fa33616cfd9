package service

import (
	"context"
	"encoding/json"
	"fmt"

	"edupulse/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// FCMSender delivers mobile push via Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
	log    *logrus.Entry
}

// NewFCMSender creates the sender. Returns nil if Firebase is not configured;
// a nil sender reports every token as failed, which feeds the normal retry path.
func NewFCMSender(cfg *config.FirebaseConfig) *FCMSender {
	log := logrus.WithField("component", "fcm")
	if cfg.ServiceAccountPath == "" {
		return nil
	}
	ctx := context.Background()
	opt := option.WithCredentialsFile(cfg.ServiceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		log.WithError(err).Error("failed to init Firebase app")
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.WithError(err).Error("failed to get Messaging client")
		return nil
	}
	return &FCMSender{client: client, log: log}
}

// Send pushes to every token and reports per-token outcomes. Tokens the
// provider marks unregistered come back with Invalid set so the caller can
// deactivate the device without treating the notification as failed.
func (s *FCMSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]PushResult, error) {
	results := make([]PushResult, len(tokens))
	for i, t := range tokens {
		results[i] = PushResult{Token: t}
	}
	if s == nil || s.client == nil {
		for i := range results {
			results[i].Err = "push provider not configured"
		}
		return results, nil
	}
	if len(tokens) == 0 {
		return results, nil
	}
	msg := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:   data,
		Tokens: tokens,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
	br, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		for i := range results {
			results[i].Err = err.Error()
		}
		return results, err
	}
	for i, resp := range br.Responses {
		if resp.Success {
			results[i].OK = true
			continue
		}
		results[i].Err = resp.Error.Error()
		if messaging.IsUnregistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
			results[i].Invalid = true
		}
	}
	return results, nil
}

// PushData flattens an opaque payload into the string map FCM requires.
func PushData(eventType string, payload map[string]interface{}) map[string]string {
	data := map[string]string{"event_type": eventType}
	for k, v := range payload {
		switch val := v.(type) {
		case string:
			data[k] = val
		case uint:
			data[k] = fmt.Sprintf("%d", val)
		case int:
			data[k] = fmt.Sprintf("%d", val)
		case float64:
			data[k] = fmt.Sprintf("%.0f", val)
		default:
			b, _ := json.Marshal(v)
			data[k] = string(b)
		}
	}
	return data
}
