// Package config holds runtime configuration and the tuning constants shared
// across the server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server defaults
const (
	DefaultHTTPAddr    = ":8080"
	DefaultDataDir     = "./data"
	DefaultMaxMemoryMB = 48
	DefaultJWTTTL      = 2 * time.Hour
	DefaultJWTIssuer   = "fleethub"
)

// DefaultPartitionWindow groups telemetry rows written in the same window
// under one partition.
const DefaultPartitionWindow = 24 * time.Hour

// Background task intervals
const (
	BadgerGCInterval = 10 * time.Minute
)

// HTTP timeouts
const (
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 256
	WSChannelBuffer   = 10
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)

// Config is the server's runtime configuration, loaded from environment
// variables (FLEETHUB_ prefix) or a config file.
type Config struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	DatabaseURL string `mapstructure:"database_url"`
	DataDir     string `mapstructure:"data_dir"`
	InMemory    bool   `mapstructure:"in_memory"`
	MaxMemoryMB int64  `mapstructure:"max_memory_mb"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTIssuer string        `mapstructure:"jwt_issuer"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`

	PartitionWindow time.Duration `mapstructure:"partition_window"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Load reads configuration from the environment and an optional fleethub.yaml
// in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("fleethub")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLEETHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", DefaultHTTPAddr)
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("in_memory", false)
	v.SetDefault("max_memory_mb", DefaultMaxMemoryMB)
	v.SetDefault("jwt_issuer", DefaultJWTIssuer)
	v.SetDefault("jwt_ttl", DefaultJWTTTL)
	v.SetDefault("partition_window", DefaultPartitionWindow)
	v.SetDefault("cors_allowed_origins", []string{"*"})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required (set FLEETHUB_JWT_SECRET)")
	}
	if cfg.PartitionWindow <= 0 {
		return nil, fmt.Errorf("partition_window must be positive")
	}
	return &cfg, nil
}
