// Package server is the WebSocket command adapter: it serves the browser
// terminal, decodes inbound command frames, serialises dispatches per
// connection, and emits output, error, mode_change, and acknowledgement
// frames back to the client.
package server

import (
	"fmt"

	"bitcore/pkg/bittypes"
)

// Frame is the wire shape shared by every inbound and outbound message.
// The Type field selects which of the remaining fields are meaningful.
type Frame struct {
	Type string `json:"type"`

	// command (inbound): raw line, or the pre-parsed structured form.
	Line           string         `json:"line,omitempty"`
	Name           string         `json:"name,omitempty"`
	PositionalArgs []string       `json:"positionalArgs,omitempty"`
	Flags          map[string]any `json:"flags,omitempty"`
	Action         string         `json:"action,omitempty"`

	// output / error (outbound). Data stays addressable so the
	// acknowledgement frame carries an explicit empty string.
	Data         any   `json:"data,omitempty"`
	KeepDisabled *bool `json:"keepDisabled,omitempty"`

	// mode_change (outbound).
	Mode   string `json:"mode,omitempty"`
	Prompt string `json:"prompt,omitempty"`

	// prompt (outbound) / prompt_response (inbound).
	ID        string `json:"id,omitempty"`
	Text      string `json:"text,omitempty"`
	Hidden    bool   `json:"hidden,omitempty"`
	TimeoutMs int64  `json:"timeoutMs,omitempty"`
	Value     string `json:"value,omitempty"`
}

// ackFrame builds the acknowledgement that re-enables client input: always
// type output with an empty data string and an explicit keepDisabled.
func ackFrame(keepDisabled bool) Frame {
	return Frame{Type: "output", Data: "", KeepDisabled: &keepDisabled}
}

// outputFrame wraps one emitted value.
func outputFrame(data any) Frame {
	return Frame{Type: "output", Data: data}
}

// errorFrame wraps one emitted error line.
func errorFrame(data any) Frame {
	return Frame{Type: "error", Data: data}
}

// modeChangeFrame signals a transport mode transition.
func modeChangeFrame(mode, prompt string) Frame {
	return Frame{Type: "mode_change", Mode: mode, Prompt: prompt}
}

// parseStructuredFlags converts the structured command form's flag map to
// the core representation: JSON true becomes a bare boolean flag,
// everything else a string value, never coerced further.
func parseStructuredFlags(raw map[string]any) bittypes.Flags {
	flags := make(bittypes.Flags, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case bool:
			if v {
				flags[name] = bittypes.BoolFlag()
			} else {
				flags[name] = bittypes.StringFlag("false")
			}
		case string:
			flags[name] = bittypes.StringFlag(v)
		default:
			flags[name] = bittypes.StringFlag(fmt.Sprint(v))
		}
	}
	return flags
}
