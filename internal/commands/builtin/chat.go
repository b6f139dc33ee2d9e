package builtin

import (
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// chatPrompt is the prompt string transports show while in chat mode.
const chatPrompt = "chat> "

// ChatCommand implements /chat: converse with the model. With no message
// the command switches the session into chat mode, where plain input is
// routed back through /chat by the transport.
type ChatCommand struct{}

// Name returns "chat".
func (c *ChatCommand) Name() string {
	return "chat"
}

// Description returns a brief description of the chat command.
func (c *ChatCommand) Description() string {
	return "Chat with the model."
}

// Usage returns the chat command syntax.
func (c *ChatCommand) Usage() string {
	return "/chat [message]"
}

// HelpInfo returns structured help for the chat command.
func (c *ChatCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Examples: []bittypes.HelpExample{
			{Command: "/chat", Description: "Enter chat mode"},
			{Command: "/chat what changed overnight?", Description: "Send one message without switching modes"},
		},
		Notes: []string{"In chat mode, send /exit or any slash command to act on the console again."},
	}
}

// Execute sends the message, or requests the chat mode transition when
// none is given.
func (c *ChatCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	message := strings.Join(ctx.PositionalArgs, " ")
	if strings.TrimSpace(message) == "" {
		if ctx.Session != nil {
			ctx.Session.Mode = "chat"
		}
		ctx.Emit("Entering chat mode. Send a slash command to leave.", nil)
		return &bittypes.CommandResult{
			Success:    true,
			Mode:       "chat",
			ModePrompt: chatPrompt,
		}, nil
	}

	controller, err := services.GetChatService()
	if err != nil {
		return nil, err
	}
	if ctx.Session == nil {
		return nil, bittypes.InputErrorf("chat requires a session")
	}

	reply, err := controller.Send(ctx.Session, message)
	if err != nil {
		return nil, err
	}
	ctx.Emit(reply, nil)
	return bittypes.OKWith(map[string]any{"transcriptLength": len(ctx.Session.Transcript)}), nil
}

func init() {
	commands.MustRegister(&ChatCommand{})
}
