package handler

import (
	"net/http"
	"time"

	"edupulse/internal/repository"
	"edupulse/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	sweep     *service.RetrySweep
}

func NewAnalyticsHandler(analytics *service.AnalyticsService, sweep *service.RetrySweep) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, sweep: sweep}
}

// parseFilter reads the shared window/filter query params. Dates are
// YYYY-MM-DD; "to" is exclusive of the following midnight.
func parseFilter(c *gin.Context) (repository.AnalyticsFilter, bool) {
	var f repository.AnalyticsFilter
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return f, false
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return f, false
		}
		end := t.AddDate(0, 0, 1)
		f.To = &end
	}
	f.EventType = c.Query("event_type")
	f.Scope = c.Query("scope")
	return f, true
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	overview, err := h.analytics.Overview(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation failed"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AnalyticsHandler) ByEventType(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	rows, err := h.analytics.ByEventType(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"breakdown": rows})
}

func (h *AnalyticsHandler) ByScope(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	rows, err := h.analytics.ByScope(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"breakdown": rows})
}

func (h *AnalyticsHandler) Daily(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	// bound the series so one request cannot scan the whole table
	if f.From == nil || f.To == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}
	if f.To.Sub(*f.From) > 92*24*time.Hour {
		c.JSON(http.StatusBadRequest, gin.H{"error": "range too large (max 92 days)"})
		return
	}
	rows, err := h.analytics.Daily(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": rows})
}

func (h *AnalyticsHandler) RetryStats(c *gin.Context) {
	stats, err := h.sweep.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
