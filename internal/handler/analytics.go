package handler

import (
	"net/http"

	"github.com/chrism0rs/Taskie/internal/store"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	Store *store.Store
}

func (h *AnalyticsHandler) Stats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	stats, err := h.Store.TaskStats(c.Request.Context(), userID)
	if err != nil {
		storeError(c, err, "User not found", "Failed to fetch analytics")
		return
	}
	c.JSON(http.StatusOK, stats)
}
