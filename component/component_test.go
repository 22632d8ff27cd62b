package component

import (
	"context"
	"fmt"
	"testing"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "start:"+m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "stop:"+m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health { return m.health }

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockComponent{name: "kv"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "kv"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if r.Get("kv") == nil || r.Get("missing") != nil {
		t.Error("unexpected Get results")
	}
}

func TestStartStopOrder(t *testing.T) {
	r := NewRegistry()
	var events []string
	for _, name := range []string{"telemetry", "kv", "workers"} {
		_ = r.Register(&mockComponent{name: name, events: &events})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := []string{"start:telemetry", "start:kv", "start:workers", "stop:workers", "stop:kv", "stop:telemetry"}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, events)
	}
	if len(r.All()) != 3 {
		t.Errorf("expected 3 components, got %d", len(r.All()))
	}
}

func TestStartAllFailureStopsStarted(t *testing.T) {
	r := NewRegistry()
	var events []string
	_ = r.Register(&mockComponent{name: "telemetry", events: &events})
	_ = r.Register(&mockComponent{name: "kv", events: &events, startErr: fmt.Errorf("connection refused")})
	_ = r.Register(&mockComponent{name: "workers", events: &events})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected error from StartAll")
	}
	want := []string{"start:telemetry", "start:kv", "stop:telemetry"}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, events)
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	r := NewRegistry()
	var events []string
	_ = r.Register(&mockComponent{name: "kv", events: &events})

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no stops for unstarted components, got %v", events)
	}
}

func TestStopAllWithErrors(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "kv", stopErr: fmt.Errorf("stop failed")})
	_ = r.StartAll(context.Background())

	if err := r.StopAll(context.Background()); err == nil {
		t.Error("expected error from StopAll")
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "kv", health: Health{Name: "kv", Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "telemetry", health: Health{Name: "telemetry", Status: StatusUnhealthy, Message: "not started"}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusHealthy || results[1].OK() || results[1].String() != "telemetry: unhealthy (not started)" {
		t.Errorf("unexpected health results %v", results)
	}
}
