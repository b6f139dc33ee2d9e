package dispatch

import (
	"regexp"

	"bitcore/pkg/bittypes"
)

// sensitiveFlag matches flag names whose values must never reach the log
// channel: credentials, passwords, tokens, and raw API keys.
var sensitiveFlag = regexp.MustCompile(`(?i)(password|passwd|secret|token|api[-_]?key|credential)`)

const redacted = "[redacted]"

// SanitizeFlags renders a flag map for command-start logging with
// sensitive values replaced.
func SanitizeFlags(flags bittypes.Flags) map[string]any {
	if len(flags) == 0 {
		return nil
	}
	out := make(map[string]any, len(flags))
	for name, value := range flags {
		if value.IsBool {
			out[name] = true
			continue
		}
		if sensitiveFlag.MatchString(name) {
			out[name] = redacted
			continue
		}
		out[name] = value.Value
	}
	return out
}
