package handler

import (
	"net/http"

	"edupulse/internal/domain"
	"edupulse/internal/middleware"
	"edupulse/internal/service"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	tokens service.DeviceTokenStore
}

func NewDeviceHandler(tokens service.DeviceTokenStore) *DeviceHandler {
	return &DeviceHandler{tokens: tokens}
}

type registerDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required"`
}

func (h *DeviceHandler) Register(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	switch req.Platform {
	case domain.PlatformIOS, domain.PlatformAndroid, domain.PlatformWeb:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}
	if err := h.tokens.Register(userID, req.Token, req.Platform); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

type unregisterDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *DeviceHandler) Unregister(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req unregisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.tokens.Deactivate(userID, req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unregister failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
