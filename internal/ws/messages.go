package ws

import "edupulse/internal/models"

// Wire contract. Client to server:
//
//	{"type":"join_course","course_id":N}
//	{"type":"leave_course","course_id":N}
//	{"type":"mark_read","notification_id":N}
//
// Server to client: unread_count and notification frames, nothing else.

type clientMessage struct {
	Type           string `json:"type"`
	CourseID       uint   `json:"course_id,omitempty"`
	NotificationID uint   `json:"notification_id,omitempty"`
}

// UnreadCountMessage is the server frame carrying the current unread total.
func UnreadCountMessage(count int64) map[string]interface{} {
	return map[string]interface{}{"type": "unread_count", "count": count}
}

// NotificationMessage is the server frame carrying one notification.
func NotificationMessage(n *models.Notification) map[string]interface{} {
	return map[string]interface{}{
		"type":       "notification",
		"id":         n.ID,
		"event_id":   n.EventID,
		"event_type": n.EventType,
		"scope":      n.Scope,
		"scope_id":   n.ScopeID,
		"title":      n.Title,
		"message":    n.Message,
		"data":       n.Data,
		"created_at": n.CreatedAt,
	}
}
