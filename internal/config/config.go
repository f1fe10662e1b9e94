// Package config defines all configuration for the exchange process.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// overrides via CLOB_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for cmd/exchanged.
type Config struct {
	Symbols  []string       `mapstructure:"symbols"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Bus      BusConfig      `mapstructure:"bus"`
	Ingress  IngressConfig  `mapstructure:"ingress"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// EngineConfig holds settings for the single-threaded matching loop.
// CommandQueueSize is checked by Validate but cmd/exchanged does not pass
// it to the engine, whose command queue has a fixed capacity of 4096.
type EngineConfig struct {
	CommandQueueSize int `mapstructure:"command_queue_size"`
}

// PipelineConfig tunes the fan-out worker.
type PipelineConfig struct {
	DepthIntervalMs int64 `mapstructure:"depth_interval_ms"`
}

// BusConfig points at the Redis instance backing the broadcast publisher.
type BusConfig struct {
	Addr          string        `mapstructure:"addr"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	Workers       int           `mapstructure:"workers"`
	QueueCapacity int           `mapstructure:"queue_capacity"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
}

// IngressConfig tunes the TCP order-entry listener.
type IngressConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Workers    int    `mapstructure:"workers"`
}

// LoggingConfig controls zerolog's level and output format.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Json  bool   `mapstructure:"json"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load reads config from a YAML file with CLOB_* env var overrides, e.g.
// CLOB_BUS_ADDR overrides bus.addr.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CLOB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.command_queue_size", 4096)
	v.SetDefault("pipeline.depth_interval_ms", 100)
	v.SetDefault("bus.addr", "localhost:6379")
	v.SetDefault("bus.workers", 4)
	v.SetDefault("bus.queue_capacity", 4096)
	v.SetDefault("bus.dial_timeout", 5*time.Second)
	v.SetDefault("ingress.listen_addr", ":9443")
	v.SetDefault("ingress.workers", 8)
	v.SetDefault("logging.level", "info")
	v.SetDefault("metrics.listen_addr", ":9090")
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols: at least one symbol is required")
	}
	if c.Engine.CommandQueueSize <= 0 {
		return fmt.Errorf("engine.command_queue_size must be > 0")
	}
	if c.Pipeline.DepthIntervalMs <= 0 {
		return fmt.Errorf("pipeline.depth_interval_ms must be > 0")
	}
	if c.Bus.Addr == "" {
		return fmt.Errorf("bus.addr is required")
	}
	if c.Ingress.ListenAddr == "" {
		return fmt.Errorf("ingress.listen_addr is required")
	}
	return nil
}
