package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection with user context. A user
// may hold several clients at once (multiple devices or tabs).
type Client struct {
	UserID uint
	Role   string
	Send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

// Close unregisters the client and closes its send channel exactly once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// Hub tracks live connections per user and per course room. All map mutations
// happen under the lock; emits snapshot the connection list first so a client
// that disconnects mid-broadcast is skipped, not crashed into.
type Hub struct {
	mu       sync.RWMutex
	byUser   map[uint]map[*Client]struct{}
	byCourse map[uint]map[*Client]struct{}
	// courses per client, so unregister can leave every room
	memberOf map[*Client]map[uint]struct{}
}

func NewHub() *Hub {
	return &Hub{
		byUser:   make(map[uint]map[*Client]struct{}),
		byCourse: make(map[uint]map[*Client]struct{}),
		memberOf: make(map[*Client]map[uint]struct{}),
	}
}

// Register adds a connection to its user room and to the rooms of the courses
// the user is enrolled in (resolved once at connect time by the caller).
func (h *Hub) Register(c *Client, courseIDs []uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
	h.memberOf[c] = make(map[uint]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		h.joinLocked(c, id)
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	for courseID := range h.memberOf[c] {
		h.leaveLocked(c, courseID)
	}
	delete(h.memberOf, c)
}

func (h *Hub) joinLocked(c *Client, courseID uint) {
	if h.byCourse[courseID] == nil {
		h.byCourse[courseID] = make(map[*Client]struct{})
	}
	h.byCourse[courseID][c] = struct{}{}
	h.memberOf[c][courseID] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, courseID uint) {
	if m := h.byCourse[courseID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byCourse, courseID)
		}
	}
	if m := h.memberOf[c]; m != nil {
		delete(m, courseID)
	}
}

// JoinCourse adds a live connection to a course room. Authorization against
// the enrollment model is the caller's job and happens on every join request.
func (h *Hub) JoinCourse(c *Client, courseID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.memberOf[c] == nil {
		return // already unregistered
	}
	h.joinLocked(c, courseID)
}

func (h *Hub) LeaveCourse(c *Client, courseID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, courseID)
}

// EmitToUser broadcasts to every live connection of one user and returns how
// many connections accepted the frame.
func (h *Hub) EmitToUser(userID uint, payload interface{}) int {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := snapshot(h.byUser[userID])
	h.mu.RUnlock()
	return deliver(clients, data)
}

// EmitToCourse broadcasts to every connection in a course room.
func (h *Hub) EmitToCourse(courseID uint, payload interface{}) int {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := snapshot(h.byCourse[courseID])
	h.mu.RUnlock()
	return deliver(clients, data)
}

// SessionsFor returns the number of live connections a user holds.
func (h *Hub) SessionsFor(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// CourseRoomSize returns the number of connections in a course room.
func (h *Hub) CourseRoomSize(courseID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byCourse[courseID])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.memberOf)
}

func snapshot(m map[*Client]struct{}) []*Client {
	if len(m) == 0 {
		return nil
	}
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	return clients
}

func deliver(clients []*Client, data []byte) int {
	sent := 0
	for _, c := range clients {
		c.mu.Lock()
		if !c.closed {
			select {
			case c.Send <- data:
				sent++
			default:
				// slow consumer, drop the frame rather than block the broadcast
			}
		}
		c.mu.Unlock()
	}
	return sent
}
