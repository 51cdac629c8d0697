package server

import (
	"time"

	"github.com/chrism0rs/Taskie/internal/auth"
	"github.com/chrism0rs/Taskie/internal/handler"
	"github.com/chrism0rs/Taskie/internal/hub"
	"github.com/chrism0rs/Taskie/internal/middleware"
	"github.com/chrism0rs/Taskie/internal/store"
	"github.com/gin-gonic/gin"
)

const defaultLoginRatePerMinute = 10

type Deps struct {
	Store       *store.Store
	TokenConfig auth.TokenConfig
	Hub         *hub.Hub
	// LoginLimiter throttles register and login per client IP. Nil uses
	// defaultLoginRatePerMinute.
	LoginLimiter *middleware.RateLimiter
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	healthHandler := &handler.HealthHandler{Hub: deps.Hub, Store: deps.Store}
	r.GET("/health", healthHandler.Check)

	wsHandler := &handler.WebSocketHandler{Hub: deps.Hub}
	r.GET("/ws", wsHandler.Serve)

	limiter := deps.LoginLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(defaultLoginRatePerMinute, time.Minute)
	}
	authHandler := &handler.AuthHandler{Store: deps.Store, TokenConfig: deps.TokenConfig}
	authGroup := r.Group("/api/auth", middleware.RateLimitMiddleware(limiter))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth(deps.TokenConfig))

	userHandler := &handler.UserHandler{Store: deps.Store}
	api.GET("/user/profile", userHandler.Profile)
	api.PUT("/user/background", userHandler.UpdateBackground)
	api.PUT("/user/spotify", userHandler.UpdateSpotify)

	taskHandler := &handler.TaskHandler{Store: deps.Store, Events: deps.Hub}
	api.GET("/tasks", taskHandler.List)
	api.POST("/tasks", taskHandler.Create)
	api.PUT("/tasks/:id", taskHandler.Update)
	api.POST("/tasks/:id/complete", taskHandler.Complete)
	api.DELETE("/tasks/:id", taskHandler.Delete)

	analyticsHandler := &handler.AnalyticsHandler{Store: deps.Store}
	api.GET("/analytics/stats", analyticsHandler.Stats)

	sessionHandler := &handler.StudySessionHandler{Store: deps.Store}
	api.GET("/study-sessions", sessionHandler.List)
	api.POST("/study-sessions", sessionHandler.Start)
	api.PUT("/study-sessions/:id/end", sessionHandler.End)

	collabHandler := &handler.CollaborationHandler{Store: deps.Store}
	api.GET("/collaborations", collabHandler.List)
	api.POST("/collaborations", collabHandler.Invite)
	api.POST("/collaborations/:id/accept", collabHandler.Accept)

	presenceHandler := &handler.PresenceHandler{Hub: deps.Hub}
	api.GET("/presence", presenceHandler.Online)

	return r
}
