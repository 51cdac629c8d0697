package handler

import (
	"net/http"

	"github.com/chrism0rs/Taskie/internal/hub"
	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	Hub *hub.Hub
}

// Online lists the users with at least one authenticated socket.
func (h *PresenceHandler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.Hub.Online()})
}
