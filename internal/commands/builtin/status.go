package builtin

import (
	"fmt"
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// StatusCommand implements /status: a snapshot of the current session,
// transport, and profile state.
type StatusCommand struct{}

// Name returns "status".
func (c *StatusCommand) Name() string {
	return "status"
}

// Description returns a brief description of the status command.
func (c *StatusCommand) Description() string {
	return "Show session and profile status."
}

// Usage returns the status command syntax.
func (c *StatusCommand) Usage() string {
	return "/status [--json]"
}

// HelpInfo returns structured help for the status command.
func (c *StatusCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Options: []bittypes.HelpOption{
			{Name: "json", Description: "Emit the snapshot as JSON"},
		},
		Examples: []bittypes.HelpExample{
			{Command: "/status", Description: "Show the status snapshot"},
			{Command: "/status --json", Description: "Show the snapshot as JSON"},
		},
	}
}

// Execute emits the status snapshot.
func (c *StatusCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	transport := "console"
	if ctx.IsWebSocket {
		transport = "websocket"
	}

	snapshot := map[string]any{
		"user":      ctx.CurrentUser.Username,
		"role":      string(ctx.CurrentUser.Role),
		"transport": transport,
	}
	if ctx.Session != nil {
		snapshot["session"] = ctx.Session.ID
		snapshot["mode"] = ctx.Session.Mode
		snapshot["transcriptLength"] = len(ctx.Session.Transcript)
	}
	if profile, err := services.GetProfileService(); err == nil {
		snapshot["configuredKeys"] = profile.Services()
		_, hasGitHub := profile.GitHubConfig()
		snapshot["githubConfigured"] = hasGitHub
	}

	if ctx.JSONRequested() {
		ctx.Emit(snapshot, nil)
		return bittypes.OKWith(snapshot), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User:      %s (%s)\n", snapshot["user"], snapshot["role"])
	fmt.Fprintf(&b, "Transport: %s\n", transport)
	if ctx.Session != nil {
		fmt.Fprintf(&b, "Session:   %s\n", ctx.Session.ID)
		fmt.Fprintf(&b, "Mode:      %s\n", ctx.Session.Mode)
	}
	if keys, ok := snapshot["configuredKeys"].([]string); ok {
		fmt.Fprintf(&b, "API keys:  %d configured\n", len(keys))
	}
	ctx.Emit(strings.TrimRight(b.String(), "\n"), nil)
	return bittypes.OKWith(snapshot), nil
}

func init() {
	commands.MustRegister(&StatusCommand{})
}
