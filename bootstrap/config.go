package bootstrap

import (
	"time"

	"github.com/rise-and-shine/dispatch/observability/logger"
	"github.com/rise-and-shine/dispatch/observability/tracing"
)

// Config is the dispatch section of a service config file.
type Config struct {
	ServiceName    string `yaml:"service_name"    validate:"required"`
	ServiceVersion string `yaml:"service_version" default:"0.0.0"`

	Logger  logger.Config  `yaml:"logger"`
	Tracing tracing.Config `yaml:"tracing"`

	Command CommandConfig `yaml:"command"`
	Query   QueryConfig   `yaml:"query"`
}

// CommandConfig tunes the default command pipeline.
type CommandConfig struct {
	// Timeout bounds a single command. Zero disables the deadline.
	Timeout time.Duration `yaml:"timeout" default:"30s" validate:"gte=0"`
	Tracing bool          `yaml:"tracing" default:"true"`
	Metrics bool          `yaml:"metrics" default:"false"`
}

// QueryConfig tunes the default query pipeline.
type QueryConfig struct {
	Timeout time.Duration `yaml:"timeout" default:"10s" validate:"gte=0"`
	Tracing bool          `yaml:"tracing" default:"true"`

	CacheTTL    time.Duration `yaml:"cache_ttl"    default:"60s" validate:"gte=0"`
	CachePrefix string        `yaml:"cache_prefix"`

	// RetryAttempts of 0 or 1 disables retries.
	RetryAttempts uint          `yaml:"retry_attempts" default:"1"`
	RetryDelay    time.Duration `yaml:"retry_delay"    default:"50ms"`
}
