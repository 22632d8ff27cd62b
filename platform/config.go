package platform

import (
	"fmt"
	"time"

	"github.com/kbukum/goplatform/config"
	"github.com/kbukum/goplatform/kvstore"
	"github.com/kbukum/goplatform/observability"
	"github.com/kbukum/goplatform/process"
	"github.com/kbukum/goplatform/worker"
)

// Config aggregates the configuration of every platform service.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Process   process.Config       `yaml:"process" mapstructure:"process"`
	KV        kvstore.Config       `yaml:"kv" mapstructure:"kv"`
	Worker    worker.Config        `yaml:"worker" mapstructure:"worker"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`

	// ShutdownTimeout bounds Stop. Defaults to 15 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ApplyDefaults fills in zero-valued fields of every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "goplatform"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Process.ApplyDefaults()
	c.KV.ApplyDefaults()
	c.Worker.ApplyDefaults()
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = c.Version
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	c.Telemetry.ApplyDefaults()
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Process.Validate(); err != nil {
		return fmt.Errorf("config.process: %w", err)
	}
	if err := c.KV.Validate(); err != nil {
		return fmt.Errorf("config.kv: %w", err)
	}
	if err := c.Worker.Validate(); err != nil {
		return fmt.Errorf("config.worker: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}
