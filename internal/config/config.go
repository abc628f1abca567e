// Package config loads tollgated's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/benjaminclauss/tollgate/internal/feed"
	"github.com/benjaminclauss/tollgate/internal/ledger"
)

// DefaultListen is where tollgated listens when nothing else is configured.
const DefaultListen = ":9740"

const (
	defaultReadTimeoutSecs   = 30
	defaultWriteTimeoutSecs  = 30
	defaultStatsIntervalSecs = 5
	defaultRate              = 1.0
)

// Config is the top-level structure of the configuration file. Timeouts and
// intervals are whole seconds; zero timeouts disable the deadline.
type Config struct {
	Listen           string        `yaml:"listen"`
	ReadTimeoutSecs  int           `yaml:"readTimeoutSecs"`
	WriteTimeoutSecs int           `yaml:"writeTimeoutSecs"`
	LogFile          string        `yaml:"logFile"`
	Ledger           ledger.Config `yaml:"ledger"`
	Feed             feed.Config   `yaml:"feed"`
	Stats            StatsConfig   `yaml:"stats"`
}

// StatsConfig controls the usage report.
type StatsConfig struct {
	IntervalSecs int     `yaml:"intervalSecs"`
	Rate         float64 `yaml:"rate"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:           DefaultListen,
		ReadTimeoutSecs:  defaultReadTimeoutSecs,
		WriteTimeoutSecs: defaultWriteTimeoutSecs,
		Stats: StatsConfig{
			IntervalSecs: defaultStatsIntervalSecs,
			Rate:         defaultRate,
		},
	}
}

// Load reads the YAML file at path. Keys absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	return cfg, nil
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSecs) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSecs) * time.Second
}

func (c StatsConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSecs) * time.Second
}
