package component

import (
	"context"
	"fmt"
)

// HealthStatus is the state a component reports.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's entry in a ready check.
type Health struct {
	Name    string
	Status  HealthStatus
	Message string
}

// OK reports whether the component can serve.
func (h Health) OK() bool { return h.Status == StatusHealthy }

func (h Health) String() string {
	if h.Message == "" {
		return fmt.Sprintf("%s: %s", h.Name, h.Status)
	}
	return fmt.Sprintf("%s: %s (%s)", h.Name, h.Status, h.Message)
}

// Component is a backing service started before the platform runs and
// stopped after, such as the redis key-value store or the telemetry
// exporters.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}
