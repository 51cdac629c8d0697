package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrism0rs/Taskie/internal/auth"
	"github.com/chrism0rs/Taskie/internal/config"
	"github.com/chrism0rs/Taskie/internal/hub"
	"github.com/chrism0rs/Taskie/internal/middleware"
	"github.com/chrism0rs/Taskie/internal/registry"
	"github.com/chrism0rs/Taskie/internal/server"
	"github.com/chrism0rs/Taskie/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.GinMode)

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	tokenCfg := auth.TokenConfig{
		Secret: cfg.MasterSecret,
		Expiry: cfg.TokenExpiry(),
		Issuer: "taskie",
	}

	opts := hub.Options{
		QueueDepth:  cfg.WSQueueDepth,
		AuthTimeout: cfg.WSAuthTimeout(),
		Logger:      logger.With("component", "hub"),
	}
	if cfg.WSRequireToken {
		opts.Verifier = auth.SocketVerifier{Config: tokenCfg}
	}
	wsHub := hub.New(registry.New[*hub.Conn](), opts)

	router := server.NewRouter(server.Deps{
		Store:        st,
		TokenConfig:  tokenCfg,
		Hub:          wsHub,
		LoginLimiter: middleware.NewRateLimiter(cfg.LoginRatePerMinute, time.Minute),
	})

	serveErr := server.Run(ctx, cfg, router)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsHub.Shutdown(shutdownCtx); err != nil {
		logger.Warn("hub shutdown incomplete", "error", err)
	}
	logger.Info("server stopped")
	return serveErr
}
