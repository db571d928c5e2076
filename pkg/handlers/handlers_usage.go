package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetUsage returns the daily run counters with totals
func (h *Handler) GetUsage(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	usage, totals, err := h.Store.UsageHistory(c.Request.Context(), days)
	if err != nil {
		h.log().Errorf("usage history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"usage_history": usage,
		"totals":        totals,
	})
}

func (h *Handler) requireStore(c *gin.Context) bool {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Persistence is disabled"})
		return false
	}
	return true
}
