// Package config loads and validates tracklog configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Progress ProgressConfig `mapstructure:"progress"`
	Hub      HubConfig      `mapstructure:"hub"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Scan     ScanConfig     `mapstructure:"scan"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// ProgressConfig controls tracker emission.
type ProgressConfig struct {
	// MaxDepth is the deepest nesting level that may emit step lines; a
	// negative value means unbounded.
	MaxDepth     int           `mapstructure:"max_depth"`
	EmitInterval time.Duration `mapstructure:"emit_interval"`
}

// HubConfig sizes the entry buffer and batching.
type HubConfig struct {
	BufferSize      int           `mapstructure:"buffer_size"`
	MaxBatchEntries int           `mapstructure:"max_batch_entries"`
	MaxBatchWait    time.Duration `mapstructure:"max_batch_wait"`
	SinkTimeout     time.Duration `mapstructure:"sink_timeout"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ScanConfig tunes the directory scan workload.
type ScanConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACKLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("progress.max_depth", -1)
	v.SetDefault("progress.emit_interval", 500*time.Millisecond)
	v.SetDefault("hub.buffer_size", 1024)
	v.SetDefault("hub.max_batch_entries", 64)
	v.SetDefault("hub.max_batch_wait", 100*time.Millisecond)
	v.SetDefault("hub.sink_timeout", 5*time.Second)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("scan.concurrency", 4)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Progress.EmitInterval <= 0 {
		return fmt.Errorf("progress.emit_interval must be > 0")
	}
	if c.Hub.BufferSize <= 0 {
		return fmt.Errorf("hub.buffer_size must be > 0")
	}
	if c.Hub.MaxBatchEntries <= 0 {
		return fmt.Errorf("hub.max_batch_entries must be > 0")
	}
	if c.Hub.MaxBatchWait <= 0 {
		return fmt.Errorf("hub.max_batch_wait must be > 0")
	}
	if c.Scan.Concurrency <= 0 {
		return fmt.Errorf("scan.concurrency must be > 0")
	}
	return nil
}

// MaxDepth converts progress.max_depth into the optional form trackers take.
func (c Config) MaxDepth() *int {
	if c.Progress.MaxDepth < 0 {
		return nil
	}
	d := c.Progress.MaxDepth
	return &d
}
