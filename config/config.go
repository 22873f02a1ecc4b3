package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the complete module configuration.
type Config struct {
	// Origin is the frontend origin the client runs under, e.g.
	// "https://console.example.com:3000". It drives base-URL resolution.
	Origin string `yaml:"origin" envconfig:"ORIGIN"`

	// APIBaseOverride, when set, replaces the derived backend origin for
	// generic production deployments.
	APIBaseOverride string `yaml:"api_base_override" envconfig:"API_BASE_OVERRIDE"`

	// AppName identifies this deployment in fault-report metadata.
	AppName string `yaml:"app_name" envconfig:"APP_NAME"`

	// Timeout is the overall per-attempt request timeout.
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`

	Retry     RetryConfig     `yaml:"retry"`
	Collector CollectorConfig `yaml:"collector"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
}

// RetryConfig controls the HTTP client's backoff policy.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries" envconfig:"MAX_RETRIES"`
	InitialDelay time.Duration `yaml:"initial_delay" envconfig:"INITIAL_DELAY"`
	MaxDelay     time.Duration `yaml:"max_delay" envconfig:"MAX_DELAY"`
	Multiplier   float64       `yaml:"multiplier" envconfig:"MULTIPLIER"`
}

// CollectorConfig controls fault collection and batching.
type CollectorConfig struct {
	Enabled       bool          `yaml:"enabled" envconfig:"ENABLED"`
	Endpoint      string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	DedupeWindow  time.Duration `yaml:"dedupe_window" envconfig:"DEDUPE_WINDOW"`
	BatchInterval time.Duration `yaml:"batch_interval" envconfig:"BATCH_INTERVAL"`
	MaxBatchSize  int           `yaml:"max_batch_size" envconfig:"MAX_BATCH_SIZE"`
}

// RealtimeConfig controls the realtime channel.
type RealtimeConfig struct {
	Path                 string        `yaml:"path" envconfig:"PATH"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval" envconfig:"HEARTBEAT_INTERVAL"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval" envconfig:"RECONNECT_INTERVAL"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts" envconfig:"MAX_RECONNECT_ATTEMPTS"`
}

// Default returns the production constants the console ships with.
func Default() Config {
	return Config{
		Origin:  "http://localhost:5173",
		AppName: "app-management-console",
		Timeout: 30 * time.Second,
		Retry: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
		Collector: CollectorConfig{
			Enabled:       true,
			Endpoint:      "/system/error-report",
			DedupeWindow:  60 * time.Second,
			BatchInterval: 5 * time.Second,
			MaxBatchSize:  10,
		},
		Realtime: RealtimeConfig{
			Path:                 "/ws",
			HeartbeatInterval:    30 * time.Second,
			ReconnectInterval:    3 * time.Second,
			MaxReconnectAttempts: 5,
		},
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides. A missing file is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config.Load: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config.Load: parse %s: %w", path, err)
		}
	}

	if err := envconfig.Process("consoleclient", &cfg); err != nil {
		return cfg, fmt.Errorf("config.Load: environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (Config, error) {
	return Load("")
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("config: retry.max_retries cannot be negative, got %d", c.Retry.MaxRetries)
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("config: retry.multiplier must be >= 1, got %g", c.Retry.Multiplier)
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("config: retry.max_delay %s below initial_delay %s", c.Retry.MaxDelay, c.Retry.InitialDelay)
	}
	if c.Collector.MaxBatchSize <= 0 {
		return fmt.Errorf("config: collector.max_batch_size must be positive, got %d", c.Collector.MaxBatchSize)
	}
	if c.Realtime.MaxReconnectAttempts < 0 {
		return fmt.Errorf("config: realtime.max_reconnect_attempts cannot be negative, got %d",
			c.Realtime.MaxReconnectAttempts)
	}
	return nil
}
