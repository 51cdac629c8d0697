package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port         int    `env:"PORT" envDefault:"3000"`
	MasterSecret string `env:"MASTER_SECRET,required,notEmpty"`
	GinMode      string `env:"GIN_MODE" envDefault:"release"`
	TLSCertFile  string `env:"TLS_CERT_FILE"`
	TLSKeyFile   string `env:"TLS_KEY_FILE"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"taskie.db"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	TokenExpirySeconds   int  `env:"TOKEN_EXPIRY_SECONDS" envDefault:"604800"`
	WSQueueDepth         int  `env:"WS_QUEUE_DEPTH" envDefault:"256"`
	WSAuthTimeoutSeconds int  `env:"WS_AUTH_TIMEOUT_SECONDS" envDefault:"30"`
	WSRequireToken       bool `env:"WS_REQUIRE_TOKEN" envDefault:"false"`
	LoginRatePerMinute   int  `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
}

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(env.ToMap(os.Environ()))
}

func LoadConfigFromEnv(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT")
	}
	if cfg.TokenExpirySeconds <= 0 {
		return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_SECONDS")
	}
	if cfg.WSQueueDepth <= 0 {
		return Config{}, fmt.Errorf("invalid WS_QUEUE_DEPTH")
	}
	if cfg.WSAuthTimeoutSeconds < 0 {
		return Config{}, fmt.Errorf("invalid WS_AUTH_TIMEOUT_SECONDS")
	}
	if cfg.LoginRatePerMinute <= 0 {
		return Config{}, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE")
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) TokenExpiry() time.Duration {
	return time.Duration(c.TokenExpirySeconds) * time.Second
}

func (c Config) WSAuthTimeout() time.Duration {
	return time.Duration(c.WSAuthTimeoutSeconds) * time.Second
}

func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
}
