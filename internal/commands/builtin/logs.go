package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

// LogsCommand implements /logs: dumps the in-process log channel ring.
type LogsCommand struct{}

// Name returns "logs".
func (c *LogsCommand) Name() string {
	return "logs"
}

// Description returns a brief description of the logs command.
func (c *LogsCommand) Description() string {
	return "Show recent structured log entries."
}

// Usage returns the logs command syntax.
func (c *LogsCommand) Usage() string {
	return "/logs [--level=<level>] [--limit=<n>] [--json]"
}

// HelpInfo returns structured help for the logs command.
func (c *LogsCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Options: []bittypes.HelpOption{
			{Name: "level", Description: "Only show entries at this level"},
			{Name: "limit", Description: "Maximum entries to show", Default: "50"},
			{Name: "json", Description: "Emit entries as JSON"},
		},
		Examples: []bittypes.HelpExample{
			{Command: "/logs", Description: "Show the last 50 entries"},
			{Command: "/logs --level=error --limit=10", Description: "Show the last 10 errors"},
		},
	}
}

// Execute filters and emits the log ring, newest entries last.
func (c *LogsCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	limit := 50
	if raw, ok := ctx.Flags.String("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, bittypes.InputErrorf("invalid --limit value %q", raw)
		}
		limit = n
	}

	entries := logchannel.Default.Entries()
	if raw, ok := ctx.Flags.String("level"); ok {
		level := logchannel.NormalizeLevel(raw)
		filtered := entries[:0:0]
		for _, entry := range entries {
			if entry.Level == level {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	if ctx.JSONRequested() {
		ctx.Emit(entries, nil)
		return bittypes.OKWith(map[string]any{"count": len(entries)}), nil
	}

	if len(entries) == 0 {
		ctx.Emit("No log entries.", nil)
		return bittypes.OK(), nil
	}

	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "%s %-5s %-24s %s\n",
			entry.Timestamp.Format("15:04:05"), entry.Level, entry.Source, entry.Message)
	}
	ctx.Emit(strings.TrimRight(b.String(), "\n"), nil)
	return bittypes.OKWith(map[string]any{"count": len(entries)}), nil
}

func init() {
	commands.MustRegister(&LogsCommand{})
}
