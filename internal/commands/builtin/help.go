// Package builtin contains the bitcore command modules. Each command is a
// thin policy layer over a collaborator service: it validates input,
// delegates to the service, and renders through the context emitters.
// Commands self-register with the global registry at package init.
package builtin

import (
	"bitcore/internal/commands"
	"bitcore/pkg/bittypes"
)

// HelpCommand implements /help: the aggregated command listing, or the
// detailed block for a single command.
type HelpCommand struct{}

// Name returns "help".
func (c *HelpCommand) Name() string {
	return "help"
}

// Description returns a brief description of the help command.
func (c *HelpCommand) Description() string {
	return "Show this help message."
}

// Usage returns the help command syntax.
func (c *HelpCommand) Usage() string {
	return "/help [command]"
}

// HelpInfo returns structured help for the help command.
func (c *HelpCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Examples: []bittypes.HelpExample{
			{Command: "/help", Description: "List every command"},
			{Command: "/help keys", Description: "Show detailed help for /keys"},
		},
	}
}

// Execute renders the aggregate listing, or one command's block when a
// name is given. An unknown name falls back to the aggregate.
func (c *HelpCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	ctx.Emit(commands.Help(commands.GetGlobalRegistry(), ctx.Arg(0)), nil)
	return bittypes.OK(), nil
}

func init() {
	commands.MustRegister(&HelpCommand{})
}
