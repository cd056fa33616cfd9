package handler

import (
	"net/http"

	"edupulse/internal/middleware"
	"edupulse/internal/service"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subs *service.SubscriptionService
}

func NewSubscriptionHandler(subs *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

type subscribeRequest struct {
	EventType   string                `json:"event_type" binding:"required"`
	Scope       string                `json:"scope" binding:"required"`
	ScopeID     uint                  `json:"scope_id"`
	Preferences *service.ChannelPrefs `json:"preferences"`
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	prefs := service.DefaultChannelPrefs()
	if req.Preferences != nil {
		prefs = *req.Preferences
	}
	sub, err := h.subs.Subscribe(userID, req.EventType, req.Scope, req.ScopeID, prefs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

type unsubscribeRequest struct {
	EventType string `json:"event_type" binding:"required"`
	Scope     string `json:"scope" binding:"required"`
	ScopeID   uint   `json:"scope_id"`
}

func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.subs.Unsubscribe(userID, req.EventType, req.Scope, req.ScopeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.subs.ListForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": list})
}

type bulkSubscribeRequest struct {
	UserIDs   []uint `json:"user_ids" binding:"required"`
	EventType string `json:"event_type" binding:"required"`
	Scope     string `json:"scope" binding:"required"`
	ScopeID   uint   `json:"scope_id"`
}

// BulkSubscribe is best-effort; the response reports which users succeeded.
func (h *SubscriptionHandler) BulkSubscribe(c *gin.Context) {
	var req bulkSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	succeeded, err := h.subs.BulkSubscribe(req.UserIDs, req.EventType, req.Scope, req.ScopeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": succeeded, "requested": len(req.UserIDs)})
}
