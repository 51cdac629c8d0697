package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chrism0rs/Taskie/internal/auth"
	"github.com/chrism0rs/Taskie/internal/model"
	"github.com/chrism0rs/Taskie/internal/store"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Store       *store.Store
	TokenConfig auth.TokenConfig
}

type registerBody struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	user, err := h.Store.CreateUser(c.Request.Context(), username, strings.ToLower(strings.TrimSpace(body.Email)), hash)
	if errors.Is(err, store.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
		return
	}
	if err != nil {
		storeError(c, err, "User not found", "Registration failed")
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.Store.GetUserByUsername(c.Request.Context(), strings.TrimSpace(body.Username))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		storeError(c, err, "User not found", "Login failed")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, body.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user model.User) {
	token, err := auth.CreateToken(user.ID, h.TokenConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token creation failed"})
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}
