package services

import (
	"time"

	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

// SinkTelemetry forwards structured events to a caller-supplied sink as
// protocol-shaped maps, mirroring each event onto the log channel. The
// WebSocket adapter wraps the maps into frames verbatim.
type SinkTelemetry struct {
	sink   bittypes.Sink
	logger *logchannel.Logger
}

// NewSinkTelemetry creates a telemetry channel over a sink. A nil sink
// yields a log-only channel.
func NewSinkTelemetry(sink bittypes.Sink, source string) *SinkTelemetry {
	return &SinkTelemetry{sink: sink, logger: logchannel.Source(source)}
}

// EmitStatus reports a stage transition.
func (t *SinkTelemetry) EmitStatus(stage, message string, detail map[string]any) {
	event := map[string]any{
		"type":    "status",
		"stage":   stage,
		"message": message,
		"at":      time.Now().Format(time.RFC3339),
	}
	if len(detail) > 0 {
		event["detail"] = detail
	}
	t.logger.Info(message, map[string]any{"stage": stage})
	t.send(event)
}

// EmitThought forwards intermediate model output.
func (t *SinkTelemetry) EmitThought(text, stage string) {
	t.logger.Debug("thought", map[string]any{"stage": stage})
	t.send(map[string]any{
		"type":  "thought",
		"stage": stage,
		"text":  text,
	})
}

// EmitComplete marks the end of the run.
func (t *SinkTelemetry) EmitComplete(success bool, fields map[string]any) {
	event := map[string]any{
		"type":    "complete",
		"success": success,
	}
	for k, v := range fields {
		if k != "type" && k != "success" {
			event[k] = v
		}
	}
	t.logger.Info("complete", map[string]any{"success": success})
	t.send(event)
}

func (t *SinkTelemetry) send(event map[string]any) {
	if t.sink != nil {
		t.sink(event)
	}
}
