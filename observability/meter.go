package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/goplatform/logger"
)

// InitMeter installs an OTLP/HTTP meter provider, exporting every
// cfg.Interval, as the global provider. The caller shuts it down.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the process and worker instruments. A nil *Metrics is
// valid and records nothing, so callers never need to check.
type Metrics struct {
	spawnTotal      metric.Int64Counter
	spawnFailures   metric.Int64Counter
	processActive   metric.Int64UpDownCounter
	processDuration metric.Float64Histogram
	workerRequests  metric.Int64Counter
	workerDuration  metric.Float64Histogram
	workerPorts     metric.Int64UpDownCounter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	spawnTotal, err := meter.Int64Counter("process.spawn.total",
		metric.WithDescription("Total number of spawned processes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.spawn.total counter: %w", err)
	}

	spawnFailures, err := meter.Int64Counter("process.spawn.failures",
		metric.WithDescription("Total number of failed spawns by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.spawn.failures counter: %w", err)
	}

	processActive, err := meter.Int64UpDownCounter("process.active",
		metric.WithDescription("Number of processes that have not exited"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.active gauge: %w", err)
	}

	processDuration, err := meter.Float64Histogram("process.duration",
		metric.WithDescription("Process lifetime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating process.duration histogram: %w", err)
	}

	workerRequests, err := meter.Int64Counter("worker.requests.total",
		metric.WithDescription("Total number of handled worker requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating worker.requests.total counter: %w", err)
	}

	workerDuration, err := meter.Float64Histogram("worker.requests.duration",
		metric.WithDescription("Worker request handling time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating worker.requests.duration histogram: %w", err)
	}

	workerPorts, err := meter.Int64UpDownCounter("worker.ports.active",
		metric.WithDescription("Number of open worker ports"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating worker.ports.active gauge: %w", err)
	}

	return &Metrics{
		spawnTotal:      spawnTotal,
		spawnFailures:   spawnFailures,
		processActive:   processActive,
		processDuration: processDuration,
		workerRequests:  workerRequests,
		workerDuration:  workerDuration,
		workerPorts:     workerPorts,
	}, nil
}

// RecordSpawn records a spawn attempt. reason is empty on success.
func (m *Metrics) RecordSpawn(ctx context.Context, program, reason string) {
	if m == nil {
		return
	}
	if reason != "" {
		m.spawnFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("program", program),
			attribute.String("reason", reason),
		))
		return
	}
	m.spawnTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("program", program)))
	m.processActive.Add(ctx, 1)
}

// RecordExit records a process exit. code is -1 for a signal.
func (m *Metrics) RecordExit(ctx context.Context, program string, code int, lifetime time.Duration) {
	if m == nil {
		return
	}
	m.processActive.Add(ctx, -1)
	m.processDuration.Record(ctx, lifetime.Seconds(), metric.WithAttributes(
		attribute.String("program", program),
		attribute.Int("exit_code", code),
	))
}

// RecordWorkerRequest records one handled request.
func (m *Metrics) RecordWorkerRequest(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.workerRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.workerDuration.Record(ctx, duration.Seconds())
}

// PortOpened increments the open port gauge.
func (m *Metrics) PortOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.workerPorts.Add(ctx, 1)
}

// PortClosed decrements the open port gauge.
func (m *Metrics) PortClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.workerPorts.Add(ctx, -1)
}
