package handler

import (
	"net/http"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/middleware"
	"edupulse/internal/service"

	"github.com/gin-gonic/gin"
)

type PreferenceHandler struct {
	prefs service.PreferenceStore
}

func NewPreferenceHandler(prefs service.PreferenceStore) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

func (h *PreferenceHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.prefs.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": list})
}

type updatePreferenceRequest struct {
	Realtime    *bool    `json:"realtime"`
	Email       *bool    `json:"email"`
	Push        *bool    `json:"push"`
	QuietStart  *string  `json:"quiet_start"`
	QuietEnd    *string  `json:"quiet_end"`
	Timezone    *string  `json:"timezone"`
	MutedTopics []string `json:"muted_topics"`
}

// Update patches one category's toggles. Only the owner ever writes a
// preference row; missing rows are created with defaults first.
func (h *PreferenceHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	category := c.Param("category")
	if !validCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	var req updatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.QuietStart != nil && *req.QuietStart != "" {
		if _, err := time.Parse("15:04", *req.QuietStart); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quiet_start must be HH:MM"})
			return
		}
	}
	if req.QuietEnd != nil && *req.QuietEnd != "" {
		if _, err := time.Parse("15:04", *req.QuietEnd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quiet_end must be HH:MM"})
			return
		}
	}
	if req.Timezone != nil && *req.Timezone != "" {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown timezone"})
			return
		}
	}

	p, err := h.prefs.GetOrCreate(userID, category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	if req.Realtime != nil {
		p.Realtime = *req.Realtime
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Push != nil {
		p.Push = *req.Push
	}
	if req.QuietStart != nil {
		p.QuietStart = *req.QuietStart
	}
	if req.QuietEnd != nil {
		p.QuietEnd = *req.QuietEnd
	}
	if req.Timezone != nil && *req.Timezone != "" {
		p.Timezone = *req.Timezone
	}
	if req.MutedTopics != nil {
		p.SetMutedTopics(req.MutedTopics)
	}
	if err := h.prefs.Save(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preference": p})
}

func validCategory(category string) bool {
	switch category {
	case domain.CategoryEnrollment, domain.CategoryContent, domain.CategoryGrading, domain.CategoryLive:
		return true
	}
	return false
}
