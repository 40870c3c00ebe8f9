package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/goto-dispatcher/internal/dispatch"
	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the dispatch worker
type Config struct {
	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"dispatch-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"dispatch.navigate"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"dispatch-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"dispatch.results"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`

	// Route configuration
	RoutesFile     string `env:"ROUTES_FILE" envDefault:"configs/routes.yaml"`
	RootPath       string `env:"ROOT_PATH" envDefault:""`
	BindHashClicks bool   `env:"BIND_HASH_CLICKS" envDefault:"true"`
	IgnoreCase     bool   `env:"IGNORE_CASE" envDefault:"true"`
	IgnoreSlash    bool   `env:"IGNORE_SLASH" envDefault:"true"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8082"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.WorkerID == "" {
		return fmt.Errorf("WORKER_ID is required")
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.StreamKey == "" {
		return fmt.Errorf("STREAM_KEY is required")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("CONSUMER_GROUP is required")
	}

	if c.ResultStream == "" {
		return fmt.Errorf("RESULT_STREAM is required")
	}

	if c.ResultStream == c.StreamKey {
		return fmt.Errorf("RESULT_STREAM must differ from STREAM_KEY")
	}

	if c.BlockTime <= 0 {
		return fmt.Errorf("BLOCK_TIME must be positive")
	}

	if c.RoutesFile == "" {
		return fmt.Errorf("ROUTES_FILE is required")
	}

	if c.RootPath != "" && !strings.HasPrefix(c.RootPath, dispatch.PathSeparator) {
		return fmt.Errorf("ROOT_PATH must start with %q", dispatch.PathSeparator)
	}

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// ErrorStream is where failed requests are reported
func (c *Config) ErrorStream() string {
	return c.ResultStream + ".errors"
}

// DispatchOptions returns the base dispatcher options. A route file may
// override them.
func (c *Config) DispatchOptions() dispatch.Options {
	return dispatch.Options{
		RootPath:       c.RootPath,
		BindHashClicks: c.BindHashClicks,
		IgnoreCase:     c.IgnoreCase,
		IgnoreSlash:    c.IgnoreSlash,
	}
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, ConsumerGroup=%s, "+
			"ResultStream=%s, RoutesFile=%s, RootPath=%s, HealthPort=%d, LogLevel=%s}",
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.ResultStream,
		c.RoutesFile,
		c.RootPath,
		c.HealthPort,
		c.LogLevel,
	)
}
