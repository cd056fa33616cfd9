package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"edupulse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenVerifier validates the transport-level token at connect time.
type TokenVerifier interface {
	Verify(token string) (userID uint, role string, err error)
}

// EnrollmentProvider resolves course membership for room joins.
type EnrollmentProvider interface {
	CoursesForUser(userID uint) ([]uint, error)
	IsEnrolled(userID, courseID uint) (bool, error)
}

// Inbox is the slice of the notification service the socket needs: unread
// totals on connect and read-marking over the wire.
type Inbox interface {
	CountUnread(userID uint) (int64, error)
	MarkRead(notificationID, userID uint) (*models.Notification, error)
}

// Upgrade authenticates the connection, joins the per-user room plus one room
// per enrolled course, pushes the current unread count, and then serves the
// wire contract until the peer goes away.
func Upgrade(hub *Hub, verifier TokenVerifier, enrollments EnrollmentProvider, inbox Inbox) gin.HandlerFunc {
	log := logrus.WithField("component", "ws")
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		userID, role, err := verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		// Enrollment list is fetched once at connect time; explicit join
		// requests later are each re-validated against it.
		courses, err := enrollments.CoursesForUser(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enrollment lookup failed"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &Client{
			UserID: userID,
			Role:   role,
			Send:   make(chan []byte, 256),
		}
		hub.Register(client, courses)
		defer client.Close()

		if count, err := inbox.CountUnread(userID); err == nil {
			if data, err := json.Marshal(UnreadCountMessage(count)); err == nil {
				client.Send <- data
			}
		}

		go writePump(client, conn)
		readPump(conn, client, hub, enrollments, inbox, log)
	}
}

func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn, client *Client, hub *Hub, enrollments EnrollmentProvider, inbox Inbox, log *logrus.Entry) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if json.Unmarshal(raw, &msg) != nil {
			continue
		}
		switch msg.Type {
		case "join_course":
			// re-validated on every join, not only at connect time
			ok, err := enrollments.IsEnrolled(client.UserID, msg.CourseID)
			if err != nil || !ok {
				continue
			}
			hub.JoinCourse(client, msg.CourseID)
		case "leave_course":
			hub.LeaveCourse(client, msg.CourseID)
		case "mark_read":
			if _, err := inbox.MarkRead(msg.NotificationID, client.UserID); err != nil {
				continue
			}
			if count, err := inbox.CountUnread(client.UserID); err == nil {
				hub.EmitToUser(client.UserID, UnreadCountMessage(count))
			}
		default:
			log.WithField("type", msg.Type).Debug("ignoring unknown client message")
		}
	}
}
