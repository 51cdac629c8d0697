package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chrism0rs/Taskie/internal/middleware"
	"github.com/chrism0rs/Taskie/internal/store"
	"github.com/gin-gonic/gin"
)

func requireUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return 0, false
	}
	return userID, true
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

// storeError maps store sentinels to status codes. Anything else is logged and
// reported as fallback with a 500.
func storeError(c *gin.Context, err error, notFound, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict"})
	default:
		slog.Error(fallback, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
