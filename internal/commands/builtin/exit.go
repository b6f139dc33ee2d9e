package builtin

import (
	"bitcore/internal/commands"
	"bitcore/pkg/bittypes"
)

// ExitCommand implements /exit: it asks the console loop to terminate.
// The command is registered on both transports for parity, but over
// WebSocket it only reports that the connection should be closed client
// side.
type ExitCommand struct{}

// Name returns "exit".
func (c *ExitCommand) Name() string {
	return "exit"
}

// Description returns a brief description of the exit command.
func (c *ExitCommand) Description() string {
	return "Leave the console."
}

// Usage returns the exit command syntax.
func (c *ExitCommand) Usage() string {
	return "/exit"
}

// HelpInfo returns structured help for the exit command.
func (c *ExitCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Notes:       []string{"Also available as /quit."},
	}
}

// Execute signals termination through the result payload; the console
// loop watches for the exit marker.
func (c *ExitCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	if ctx.IsWebSocket {
		ctx.Emit("Close the browser tab to leave the session.", nil)
		return bittypes.OK(), nil
	}
	ctx.Emit("Goodbye.", nil)
	return bittypes.OKWith(map[string]any{"exit": true}), nil
}

func init() {
	commands.MustRegister(&ExitCommand{})
	commands.MustRegisterAlias("quit", "exit")
}
