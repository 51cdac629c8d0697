package handler

import (
	"net/http"

	"github.com/chrism0rs/Taskie/internal/store"
	"github.com/gin-gonic/gin"
)

type CollaborationHandler struct {
	Store *store.Store
}

func (h *CollaborationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	collaborations, err := h.Store.ListCollaborations(c.Request.Context(), userID)
	if err != nil {
		storeError(c, err, "Collaborations not found", "Failed to fetch collaborations")
		return
	}
	c.JSON(http.StatusOK, collaborations)
}

func (h *CollaborationHandler) Invite(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body struct {
		FriendID int64 `json:"friendId" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	collab, err := h.Store.CreateCollaboration(c.Request.Context(), userID, body.FriendID)
	if err != nil {
		storeError(c, err, "User not found", "Failed to create collaboration")
		return
	}
	c.JSON(http.StatusCreated, collab)
}

// Accept is only allowed for the invited user.
func (h *CollaborationHandler) Accept(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	collab, err := h.Store.AcceptCollaboration(c.Request.Context(), id, userID)
	if err != nil {
		storeError(c, err, "Collaboration not found", "Failed to accept collaboration")
		return
	}
	c.JSON(http.StatusOK, collab)
}
