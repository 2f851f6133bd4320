package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, 10*time.Second, cfg.Network.Timeout.Duration())
	assert.Equal(t, 3, cfg.Network.RetryAttempts)

	assert.Equal(t, 10*time.Second, cfg.Buffer.TargetDuration.Duration())
	assert.InDelta(t, 0.80, cfg.Buffer.RampUpThreshold, 0.001)
	assert.InDelta(t, 0.20, cfg.Buffer.RampDownThreshold, 0.001)
	assert.True(t, cfg.Buffer.TimeBased)

	assert.False(t, cfg.LLD.Enabled)
	assert.False(t, cfg.TSB.Enabled)

	assert.True(t, cfg.Profiler.EnableCSV)
	assert.True(t, cfg.Profiler.EnableJSON)

	assert.Equal(t, 4, cfg.Scheduler.Workers)
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"
  format: "text"

network:
  timeout: 20s
  retry_attempts: 5

buffer:
  target_duration: 15s
  ramp_up_threshold: 0.9

tsb:
  enabled: true
  max_duration: 1h
`
	err := os.WriteFile(configPath, []byte(configContent), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 20*time.Second, cfg.Network.Timeout.Duration())
	assert.Equal(t, 5, cfg.Network.RetryAttempts)
	assert.Equal(t, 15*time.Second, cfg.Buffer.TargetDuration.Duration())
	assert.InDelta(t, 0.9, cfg.Buffer.RampUpThreshold, 0.001)
	assert.True(t, cfg.TSB.Enabled)
	assert.Equal(t, time.Hour, cfg.TSB.MaxDuration.Duration())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AAMPCORE_LOGGING_LEVEL", "warn")
	t.Setenv("AAMPCORE_NETWORK_RETRY_ATTEMPTS", "7")
	t.Setenv("AAMPCORE_TSB_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Network.RetryAttempts)
	assert.True(t, cfg.TSB.Enabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "info"
network:
  retry_attempts: 2
`
	err := os.WriteFile(configPath, []byte(configContent), 0o600)
	require.NoError(t, err)

	t.Setenv("AAMPCORE_LOGGING_LEVEL", "error")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Network.RetryAttempts)
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Network: NetworkConfig{Timeout: Duration(10 * time.Second)},
		Buffer: BufferConfig{
			TargetDuration:    Duration(10 * time.Second),
			RampUpThreshold:   0.8,
			RampDownThreshold: 0.2,
		},
		Scheduler: SchedulerConfig{Workers: 4},
	}

	assert.NoError(t, cfg.Validate())
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Logging.Level = "invalid"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidate_InvalidNetworkTimeout(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Network.Timeout = Duration(0)

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "network.timeout")
}

func TestValidate_InvalidBufferThresholds(t *testing.T) {
	tests := []struct {
		name    string
		rampUp  float64
		rampDn  float64
		wantErr string
	}{
		{"ramp up zero", 0, 0.2, "ramp_up_threshold"},
		{"ramp up over one", 1.5, 0.2, "ramp_up_threshold"},
		{"ramp down negative", 0.8, -0.1, "ramp_down_threshold"},
		{"ramp down equals ramp up", 0.5, 0.5, "ramp_down_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			cfg.Buffer.RampUpThreshold = tt.rampUp
			cfg.Buffer.RampDownThreshold = tt.rampDn

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_InvalidSchedulerWorkers(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Scheduler.Workers = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler.workers")
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidContent := `
network:
  timeout: "not a duration"
  invalid yaml structure
`
	err := os.WriteFile(configPath, []byte(invalidContent), 0o600)
	require.NoError(t, err)

	_, err = Load(configPath)
	assert.Error(t, err)
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func validBaseConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Network: NetworkConfig{Timeout: Duration(10 * time.Second)},
		Buffer: BufferConfig{
			TargetDuration:    Duration(10 * time.Second),
			RampUpThreshold:   0.8,
			RampDownThreshold: 0.2,
		},
		Scheduler: SchedulerConfig{Workers: 4},
	}
}
