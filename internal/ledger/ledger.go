// Package ledger provides the vehicle ledger backends and a factory for
// selecting one from configuration.
package ledger

import (
	"fmt"

	"github.com/benjaminclauss/tollgate/internal/toll"
)

// StoreType identifies the ledger backend.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// Config selects and configures the ledger backend.
type Config struct {
	Type  StoreType   `yaml:"type"`
	Redis RedisConfig `yaml:"redis"`
}

// New creates the configured ledger. An empty type means in-memory.
func New(cfg Config) (toll.Ledger, error) {
	switch cfg.Type {
	case StoreTypeMemory, "":
		return NewMemory(), nil
	case StoreTypeRedis:
		return NewRedis(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown ledger store type: %s", cfg.Type)
	}
}
