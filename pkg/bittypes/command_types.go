// Package bittypes defines the shared command system types for bitcore.
// This file contains the parsed command shape, flag representation, the
// result envelope returned by every handler, and the structured help types.
package bittypes

import (
	"encoding/json"
	"strconv"
)

// FlagValue holds one command flag: either a string value (--key=value)
// or the boolean true (--key with no value). The core never coerces
// string values; "--verbose=false" stays the string "false".
type FlagValue struct {
	Value  string
	IsBool bool
}

// String returns the flag's textual form: the raw value, or "true" for a
// bare boolean flag.
func (f FlagValue) String() string {
	if f.IsBool {
		return "true"
	}
	return f.Value
}

// BoolFlag constructs the value for a bare --flag occurrence.
func BoolFlag() FlagValue {
	return FlagValue{IsBool: true}
}

// StringFlag constructs the value for a --flag=value occurrence.
func StringFlag(value string) FlagValue {
	return FlagValue{Value: value}
}

// Flags maps flag names (verbatim after the leading --) to their values.
type Flags map[string]FlagValue

// Has reports whether the flag appeared at all, in either form.
func (f Flags) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// String returns the flag's string value and whether the flag was present.
// A bare boolean flag yields "true".
func (f Flags) String(name string) (string, bool) {
	v, ok := f[name]
	if !ok {
		return "", false
	}
	return v.String(), true
}

// Bool reports whether the flag is "truthy": present as a bare flag, or
// carrying a value that parses as true.
func (f Flags) Bool(name string) bool {
	v, ok := f[name]
	if !ok {
		return false
	}
	if v.IsBool {
		return true
	}
	b, err := strconv.ParseBool(v.Value)
	return err == nil && b
}

// ParsedCommand is the output of the argument parser: a lowercased command
// name (empty for empty input), positional arguments in order, and flags.
type ParsedCommand struct {
	Name           string
	PositionalArgs []string
	Flags          Flags
	// Warnings carries non-fatal tokeniser notes, e.g. an unterminated
	// quote that was closed at end of input.
	Warnings []string
}

// CommandResult is the envelope returned by every handler and by the
// dispatcher. Payload fields are flattened into the wire shape alongside
// the fixed fields.
type CommandResult struct {
	Success      bool
	Handled      bool
	KeepDisabled bool
	Error        string

	// Mode and ModePrompt request a transport mode transition; the
	// acknowledgement controller turns them into a mode_change frame.
	// They are not part of the serialised envelope.
	Mode       string
	ModePrompt string

	Payload map[string]any
}

// OK returns a plain success result.
func OK() *CommandResult {
	return &CommandResult{Success: true}
}

// OKWith returns a success result carrying payload fields.
func OKWith(payload map[string]any) *CommandResult {
	return &CommandResult{Success: true, Payload: payload}
}

// Failure returns the standard failure envelope with the error already
// rendered (handled=true suppresses any further reporting by the caller).
func Failure(message string) *CommandResult {
	return &CommandResult{Success: false, Handled: true, Error: message}
}

// MarshalJSON flattens Payload into the envelope so the wire shape is
// { success, handled, keepDisabled, error?, ...payload }.
func (r *CommandResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+4)
	for k, v := range r.Payload {
		out[k] = v
	}
	out["success"] = r.Success
	out["handled"] = r.Handled
	out["keepDisabled"] = r.KeepDisabled
	if r.Error != "" {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

// HelpOption describes one command option for structured help.
type HelpOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"`
}

// HelpExample pairs an example invocation with what it demonstrates.
type HelpExample struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// HelpInfo is the structured help block a command exports. The help
// registry renders it to text for /help and /help <name>.
type HelpInfo struct {
	Command     string        `json:"command"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Options     []HelpOption  `json:"options,omitempty"`
	Examples    []HelpExample `json:"examples,omitempty"`
	Notes       []string      `json:"notes,omitempty"`
}
