// Package config provides process-wide configuration management for
// the player core using Viper, loaded from files, environment
// variables, and defaults. The session-local owner-priority override
// store layered on top of this baseline lives in internal/aampconfig.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultNetworkTimeout       = 10 * time.Second
	defaultNetworkConnTimeout   = 5 * time.Second
	defaultRetryAttempts        = 3
	defaultRetryDelay           = 1 * time.Second
	defaultBufferTargetDuration = 10 * time.Second
	defaultBufferMaxBytes       = 8 * 1024 * 1024 // 8MB per track
	defaultRampUpThreshold      = 0.80
	defaultRampDownThreshold    = 0.20
	defaultLLDLatencyCeiling    = 4 * time.Second
	defaultTSBMaxDuration       = 30 * time.Minute
	defaultTSBMaxBytes          = 512 * 1024 * 1024
	defaultSchedulerWorkers     = 4
)

// Config holds all configuration for the player core.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Network   NetworkConfig   `mapstructure:"network"`
	Buffer    BufferConfig    `mapstructure:"buffer"`
	LLD       LLDConfig       `mapstructure:"lld"`
	TSB       TSBConfig       `mapstructure:"tsb"`
	Profiler  ProfilerConfig  `mapstructure:"profiler"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// NetworkConfig holds fetcher timeout/retry configuration.
type NetworkConfig struct {
	Timeout           Duration `mapstructure:"timeout"`
	ConnectTimeout    Duration `mapstructure:"connect_timeout"`
	RetryAttempts     int      `mapstructure:"retry_attempts"`
	RetryDelay        Duration `mapstructure:"retry_delay"`
	PreferredLanguage string   `mapstructure:"preferred_language"`
}

// BufferConfig holds Buffer Control Master tuning (spec §4.1).
type BufferConfig struct {
	// TargetDuration is the time-based strategy's full-buffer target.
	TargetDuration Duration `mapstructure:"target_duration"`
	// MaxBytes is the byte-based strategy's per-track ceiling.
	// Supports human-readable values like "8MB" or raw byte counts.
	MaxBytes ByteSize `mapstructure:"max_bytes"`
	// RampUpThreshold is the fraction of target/ceiling at which downloads pause (enough_data).
	RampUpThreshold float64 `mapstructure:"ramp_up_threshold"`
	// RampDownThreshold is the fraction at which downloads resume (need_data).
	RampDownThreshold float64 `mapstructure:"ramp_down_threshold"`
	// TimeBased selects the 3-state time-based strategy over the 2-state byte-based one.
	TimeBased bool `mapstructure:"time_based"`
}

// LLDConfig holds Low-Latency DASH configuration.
type LLDConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	LatencyCeiling Duration `mapstructure:"latency_ceiling"`
}

// TSBConfig holds Local Time-Shift Buffer configuration.
type TSBConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	MaxDuration Duration `mapstructure:"max_duration"`
	MaxBytes    ByteSize `mapstructure:"max_bytes"`
	StorePath   string   `mapstructure:"store_path"`
}

// ProfilerConfig controls telemetry payload emission.
type ProfilerConfig struct {
	EnableCSV  bool `mapstructure:"enable_csv"`  // legacy IP_AAMP_TUNETIME line
	EnableJSON bool `mapstructure:"enable_json"` // structured telemetry payload
}

// SchedulerConfig controls the async named-task runner.
type SchedulerConfig struct {
	Workers int `mapstructure:"workers"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with AAMPCORE_ and use underscores for nesting.
// Example: AAMPCORE_NETWORK_TIMEOUT=10s.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/aampcore")
		v.AddConfigPath("$HOME/.aampcore")
	}

	v.SetEnvPrefix("AAMPCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Network defaults
	v.SetDefault("network.timeout", defaultNetworkTimeout.String())
	v.SetDefault("network.connect_timeout", defaultNetworkConnTimeout.String())
	v.SetDefault("network.retry_attempts", defaultRetryAttempts)
	v.SetDefault("network.retry_delay", defaultRetryDelay.String())
	v.SetDefault("network.preferred_language", "")

	// Buffer defaults
	v.SetDefault("buffer.target_duration", defaultBufferTargetDuration.String())
	v.SetDefault("buffer.max_bytes", defaultBufferMaxBytes)
	v.SetDefault("buffer.ramp_up_threshold", defaultRampUpThreshold)
	v.SetDefault("buffer.ramp_down_threshold", defaultRampDownThreshold)
	v.SetDefault("buffer.time_based", true)

	// LLD defaults
	v.SetDefault("lld.enabled", false)
	v.SetDefault("lld.latency_ceiling", defaultLLDLatencyCeiling.String())

	// TSB defaults
	v.SetDefault("tsb.enabled", false)
	v.SetDefault("tsb.max_duration", defaultTSBMaxDuration.String())
	v.SetDefault("tsb.max_bytes", defaultTSBMaxBytes)
	v.SetDefault("tsb.store_path", "")

	// Profiler defaults
	v.SetDefault("profiler.enable_csv", true)
	v.SetDefault("profiler.enable_json", true)

	// Scheduler defaults
	v.SetDefault("scheduler.workers", defaultSchedulerWorkers)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Network.Timeout.Duration() <= 0 {
		return fmt.Errorf("network.timeout must be positive")
	}
	if c.Network.RetryAttempts < 0 {
		return fmt.Errorf("network.retry_attempts must not be negative")
	}

	if c.Buffer.TargetDuration.Duration() <= 0 {
		return fmt.Errorf("buffer.target_duration must be positive")
	}
	if c.Buffer.RampUpThreshold <= 0 || c.Buffer.RampUpThreshold > 1 {
		return fmt.Errorf("buffer.ramp_up_threshold must be in (0, 1]")
	}
	if c.Buffer.RampDownThreshold < 0 || c.Buffer.RampDownThreshold >= c.Buffer.RampUpThreshold {
		return fmt.Errorf("buffer.ramp_down_threshold must be non-negative and less than ramp_up_threshold")
	}

	if c.Scheduler.Workers < 1 {
		return fmt.Errorf("scheduler.workers must be at least 1")
	}

	return nil
}
