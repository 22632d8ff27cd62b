package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/goplatform/component"
	"github.com/kbukum/goplatform/validation"
)

// Config selects whether telemetry is exported and where to.
type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	ServiceName    string        `yaml:"service_name" mapstructure:"service_name" validate:"required"`
	ServiceVersion string        `yaml:"service_version" mapstructure:"service_version"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`
}

// Defaults target a collector on the local machine.
const (
	DefaultEndpoint       = "localhost:4318"
	DefaultExportInterval = 15 * time.Second
)

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "goplatform"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "dev"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval == 0 {
		c.Interval = DefaultExportInterval
	}
}

// Validate checks the telemetry configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Telemetry is the component owning the tracer and meter providers. When
// disabled it still hands out Metrics bound to the global (no-op) meter.
type Telemetry struct {
	cfg Config

	mu      sync.Mutex
	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *Metrics
	started bool
}

var _ component.Component = (*Telemetry)(nil)

// NewTelemetry creates the telemetry component.
func NewTelemetry(cfg Config) *Telemetry {
	return &Telemetry{cfg: cfg}
}

// Name implements component.Component.
func (t *Telemetry) Name() string { return "telemetry" }

// Start initializes the exporters when enabled and builds the instruments.
func (t *Telemetry) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.Enabled {
		tp, err := InitTracer(ctx, t.cfg)
		if err != nil {
			return err
		}
		mp, err := InitMeter(ctx, t.cfg)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return err
		}
		t.tp, t.mp = tp, mp
	}

	metrics, err := NewMetrics(Meter(t.cfg.ServiceName))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	t.metrics = metrics
	t.started = true
	return nil
}

// Stop flushes and shuts down the exporters.
func (t *Telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
	}
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
	}
	t.tp, t.mp = nil, nil
	t.started = false
	return stderrors.Join(errs...)
}

// Health implements component.Component.
func (t *Telemetry) Health(_ context.Context) component.Health {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := component.Health{Name: t.Name(), Status: component.StatusHealthy}
	switch {
	case !t.started:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	case !t.cfg.Enabled:
		h.Message = "export disabled"
	}
	return h
}

// Metrics returns the instruments, or nil before Start.
func (t *Telemetry) Metrics() *Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}
