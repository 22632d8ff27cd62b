package worker

import (
	"time"

	"github.com/kbukum/goplatform/validation"
)

// Config controls the manager side of the protocol.
type Config struct {
	// ReadyTimeout bounds the wait for a worker's ready frame.
	// Defaults to 10 seconds.
	ReadyTimeout time.Duration `yaml:"ready_timeout" mapstructure:"ready_timeout"`
	// PoolSize is the number of workers a Pool spawns. Defaults to 1.
	PoolSize int `yaml:"pool_size" mapstructure:"pool_size" validate:"gte=1,lte=256"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = 10 * time.Second
	}
	if c.PoolSize == 0 {
		c.PoolSize = 1
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
