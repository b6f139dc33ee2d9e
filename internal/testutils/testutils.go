// Package testutils provides shared helpers for bitcore tests: capturing
// sinks, isolated service registries, and telemetry recorders.
package testutils

import (
	"sync"
	"testing"

	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// CaptureSink records every value emitted to it, in order.
type CaptureSink struct {
	mu     sync.Mutex
	values []any
}

// Sink returns the bittypes.Sink recording into this capture.
func (c *CaptureSink) Sink() bittypes.Sink {
	return func(value any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.values = append(c.values, value)
	}
}

// Values returns a snapshot of everything captured so far.
func (c *CaptureSink) Values() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// Strings returns the captured values that are plain strings.
func (c *CaptureSink) Strings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, v := range c.values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of captured values.
func (c *CaptureSink) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// Reset discards captured values.
func (c *CaptureSink) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = nil
}

// FreshServices swaps in an isolated service registry backed by a
// temporary storage directory, restoring the previous registry when the
// test ends.
func FreshServices(t *testing.T) *services.Registry {
	t.Helper()

	t.Setenv("BITCORE_STORAGE_DIR", t.TempDir())

	previous := services.GetGlobalRegistry()
	registry := services.NewRegistry()
	services.SetGlobalRegistry(registry)
	t.Cleanup(func() {
		if missions, err := services.GetMissionService(); err == nil {
			missions.Shutdown()
		}
		services.SetGlobalRegistry(previous)
	})

	if err := services.InitializeServices(); err != nil {
		t.Fatalf("service bootstrap failed: %v", err)
	}
	return registry
}

// RecordingTelemetry captures telemetry events for assertions.
type RecordingTelemetry struct {
	mu     sync.Mutex
	Events []map[string]any
}

// EmitStatus records a status event.
func (r *RecordingTelemetry) EmitStatus(stage, message string, detail map[string]any) {
	r.record(map[string]any{"type": "status", "stage": stage, "message": message, "detail": detail})
}

// EmitThought records a thought event.
func (r *RecordingTelemetry) EmitThought(text, stage string) {
	r.record(map[string]any{"type": "thought", "stage": stage, "text": text})
}

// EmitComplete records the terminal event.
func (r *RecordingTelemetry) EmitComplete(success bool, fields map[string]any) {
	r.record(map[string]any{"type": "complete", "success": success, "fields": fields})
}

func (r *RecordingTelemetry) record(event map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// Types returns the recorded event types in order.
func (r *RecordingTelemetry) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e["type"].(string))
	}
	return out
}
