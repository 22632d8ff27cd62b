package process

import (
	"fmt"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kbukum/goplatform/validation"
)

// Config controls how the executor spawns and releases processes.
type Config struct {
	// GracePeriod is how long release waits after KillSignal before sending
	// SIGKILL. Defaults to 5 seconds.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	// KillSignal is sent to a still-running process on release.
	// Defaults to SIGTERM.
	KillSignal string `yaml:"kill_signal" mapstructure:"kill_signal"`
	// SharedProcessGroup keeps children in the parent's process group.
	// By default every child leads its own group and signals reach the
	// whole group. A child that inherits a terminal on stdin always stays
	// in the parent's group, which owns the terminal.
	SharedProcessGroup bool `yaml:"shared_process_group" mapstructure:"shared_process_group"`
	// SpawnAttempts bounds retries of a spawn that fails with Busy (for
	// example ETXTBSY right after a binary was written). Defaults to 3.
	SpawnAttempts int `yaml:"spawn_attempts" mapstructure:"spawn_attempts" validate:"gte=1"`
	// SpawnBackoff is the initial delay between spawn attempts.
	SpawnBackoff time.Duration `yaml:"spawn_backoff" mapstructure:"spawn_backoff"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.GracePeriod == 0 {
		c.GracePeriod = 5 * time.Second
	}
	if c.KillSignal == "" {
		c.KillSignal = "SIGTERM"
	}
	if c.SpawnAttempts == 0 {
		c.SpawnAttempts = 3
	}
	if c.SpawnBackoff == 0 {
		c.SpawnBackoff = 10 * time.Millisecond
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if _, err := ParseSignal(c.KillSignal); err != nil {
		return fmt.Errorf("process.kill_signal: %w", err)
	}
	return nil
}

// ParseSignal resolves a signal name such as "SIGTERM" or "TERM".
func ParseSignal(name string) (syscall.Signal, error) {
	if sig := unix.SignalNum(name); sig != 0 {
		return sig, nil
	}
	if sig := unix.SignalNum("SIG" + name); sig != 0 {
		return sig, nil
	}
	return 0, fmt.Errorf("unknown signal %q", name)
}

// SignalName returns the conventional name of sig, such as "SIGKILL".
func SignalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return sig.String()
}
