package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	ListenAddr      string        // HTTP listen address
	GRPCAddr        string        // gRPC listen address, empty disables the gRPC server
	StaticDir       string        // Directory served under /static/
	LogLevel        string        // debug, info, warn or error
	LogFormat       string        // json or console
	AllowedOrigins  []string      // CORS allowed origins
	ShutdownTimeout time.Duration // Grace period for in-flight requests on shutdown
	WSBuffer        int           // Per-subscriber queue length for the change stream
}

// Load reads configuration from the environment, falling back to defaults.
// A .env file in the working directory is loaded first if one exists;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("LISTEN_ADDR", ":8000")
	v.SetDefault("GRPC_ADDR", "")
	v.SetDefault("STATIC_DIR", "./static")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("WS_BUFFER", 16)
	v.AutomaticEnv()

	timeout, err := time.ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg := &Config{
		ListenAddr:      v.GetString("LISTEN_ADDR"),
		GRPCAddr:        v.GetString("GRPC_ADDR"),
		StaticDir:       v.GetString("STATIC_DIR"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		AllowedOrigins:  splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS")),
		ShutdownTimeout: timeout,
		WSBuffer:        v.GetInt("WS_BUFFER"),
	}

	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("LISTEN_ADDR must not be empty")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: want debug, info, warn or error", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or console", cfg.LogFormat)
	}
	return cfg, nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
