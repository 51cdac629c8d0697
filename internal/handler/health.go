package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/chrism0rs/Taskie/internal/hub"
	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Hub   *hub.Hub
	Store Pinger
}

func (h *HealthHandler) Check(c *gin.Context) {
	connections, authenticated := h.Hub.Stats()
	resp := gin.H{
		"status":        "ok",
		"connections":   connections,
		"authenticated": authenticated,
	}

	if h.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			resp["status"] = "degraded"
			resp["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}
