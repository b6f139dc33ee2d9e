// Package dispatch implements the command dispatch and execution core:
// the emitter abstraction that enforces CLI/Web output parity, the
// context builder, the dispatcher with its uniform error envelope, and
// the acknowledgement controller for WebSocket callers.
package dispatch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

// stdout and stderr are indirected for tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Serialize renders an emitted value as text: strings pass through,
// errors render their message, everything else becomes pretty JSON.
func Serialize(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// NewEmitter builds the emitter for one dispatch. Every emission writes
// through the module logger at the given level, then forwards the
// original value to the sink. A nil sink falls back to stdio: stdout for
// debug/info, stderr for warn/error. Sink panics are caught and logged;
// they never propagate into the handler.
func NewEmitter(sink bittypes.Sink, level logchannel.Level, logger *logchannel.Logger) bittypes.Emitter {
	return func(value any, meta map[string]any) {
		if meta == nil {
			switch value.(type) {
			case string, error, nil:
			default:
				meta = map[string]any{"payload": value}
			}
		}
		logger.Log(level, value, meta)

		if sink == nil {
			w := stdout
			if level == logchannel.LevelWarn || level == logchannel.LevelError {
				w = stderr
			}
			fmt.Fprintln(w, Serialize(value))
			return
		}

		defer func() {
			if r := recover(); r != nil {
				logger.Error("output sink failed", map[string]any{"panic": fmt.Sprint(r)})
			}
		}()
		sink(value)
	}
}
