package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/chrism0rs/Taskie/internal/store"
	"github.com/gin-gonic/gin"
)

type StudySessionHandler struct {
	Store *store.Store
}

func (h *StudySessionHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessions, err := h.Store.ListStudySessions(c.Request.Context(), userID)
	if err != nil {
		storeError(c, err, "Study sessions not found", "Failed to fetch study sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *StudySessionHandler) Start(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body struct {
		WellnessReminders json.RawMessage `json:"wellnessReminders"`
	}
	// An empty body starts a session with no reminders.
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	session, err := h.Store.CreateStudySession(c.Request.Context(), userID, body.WellnessReminders)
	if err != nil {
		storeError(c, err, "User not found", "Failed to create study session")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *StudySessionHandler) End(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c)
	if !ok {
		return
	}
	var body struct {
		Duration *int `json:"duration" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	session, err := h.Store.EndStudySession(c.Request.Context(), sessionID, userID, *body.Duration)
	if err != nil {
		storeError(c, err, "Study session not found", "Failed to end study session")
		return
	}
	c.JSON(http.StatusOK, session)
}
