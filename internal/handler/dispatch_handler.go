package handler

import (
	"net/http"

	"edupulse/internal/service"

	"github.com/gin-gonic/gin"
)

// DispatchHandler is the single ingress other domain modules call when
// something notification-worthy happens. Channel failures downstream never
// surface here; only malformed input or an unknown direct recipient does.
type DispatchHandler struct {
	dispatcher *service.Dispatcher
}

func NewDispatchHandler(dispatcher *service.Dispatcher) *DispatchHandler {
	return &DispatchHandler{dispatcher: dispatcher}
}

func (h *DispatchHandler) Dispatch(c *gin.Context) {
	var ev service.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.dispatcher.Dispatch(c.Request.Context(), ev)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}
