package handler

import (
	"net/http"

	"github.com/chrism0rs/Taskie/internal/store"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	Store *store.Store
}

func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		storeError(c, err, "User not found", "Failed to fetch user profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateBackground(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body struct {
		BackgroundImage string `json:"backgroundImage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	user, err := h.Store.UpdateUserBackground(c.Request.Context(), userID, body.BackgroundImage)
	if err != nil {
		storeError(c, err, "User not found", "Failed to update background")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateSpotify(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var body struct {
		AccessToken  string `json:"accessToken" binding:"required"`
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	user, err := h.Store.UpdateUserSpotifyTokens(c.Request.Context(), userID, body.AccessToken, body.RefreshToken)
	if err != nil {
		storeError(c, err, "User not found", "Failed to update Spotify tokens")
		return
	}
	c.JSON(http.StatusOK, user)
}
