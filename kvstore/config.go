package kvstore

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/validation"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config selects and configures a store backend.
type Config struct {
	Backend string      `yaml:"backend" mapstructure:"backend" validate:"oneof=memory file redis"`
	Path    string      `yaml:"path" mapstructure:"path" validate:"required_if=Backend file"`
	Prefix  string      `yaml:"prefix" mapstructure:"prefix"`
	Redis   RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Backend == BackendRedis {
		c.Redis.ApplyDefaults()
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Backend == BackendRedis {
		return c.Redis.Validate()
	}
	return nil
}

// Open builds the configured store. File stores live on fsys. A redis
// store is returned unstarted as a *RedisComponent; register it with a
// component.Registry or call Start before use.
func Open(cfg Config, fsys afero.Fs, log *logger.Logger) (Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kvstore config: %w", err)
	}
	var store Store
	switch cfg.Backend {
	case BackendMemory:
		store = NewMemory()
	case BackendFile:
		store = NewFile(fsys, cfg.Path)
	case BackendRedis:
		// redis namespaces keys itself
		return NewRedisComponent(cfg.Redis, cfg.Prefix, log), nil
	}
	if cfg.Prefix != "" {
		store = Prefixed(store, cfg.Prefix)
	}
	return store, nil
}
