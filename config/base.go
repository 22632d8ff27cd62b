package config

import (
	"fmt"

	"github.com/kbukum/goplatform/validation"
)

// Environments a deployment may declare.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// BaseConfig identifies the running program. Name also selects the config
// and env files the loader searches for.
type BaseConfig struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required,max=64,excludesall=/"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults selects development when no environment is set. Development
// always runs with debug on.
func (c *BaseConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Environment == EnvDevelopment {
		c.Debug = true
	}
}

// Validate checks the struct tags above.
func (c *BaseConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config.base: %w", err)
	}
	return nil
}

// IsProduction reports whether the program runs in production.
func (c *BaseConfig) IsProduction() bool { return c.Environment == EnvProduction }
