package builtin

import (
	"fmt"
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// PromptsCommand implements /prompts: named prompt artefacts stored as
// files and mirrored to GitHub by /sync.
type PromptsCommand struct{}

// Name returns "prompts".
func (c *PromptsCommand) Name() string {
	return "prompts"
}

// Description returns a brief description of the prompts command.
func (c *PromptsCommand) Description() string {
	return "Manage stored prompt artefacts."
}

// Usage returns the prompts command syntax.
func (c *PromptsCommand) Usage() string {
	return `/prompts <list|get|save|remove> [name] [content]`
}

// HelpInfo returns structured help for the prompts command.
func (c *PromptsCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Examples: []bittypes.HelpExample{
			{Command: `/prompts save triage "You are a triage assistant."`, Description: "Store a prompt"},
			{Command: "/prompts get triage", Description: "Show a stored prompt"},
		},
	}
}

// Execute dispatches on the first positional argument.
func (c *PromptsCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	store, err := services.GetPromptService()
	if err != nil {
		return nil, err
	}

	verb := ctx.Arg(0)
	switch verb {
	case "list", "":
		names, err := store.List()
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			ctx.Emit("No prompts.", nil)
			return bittypes.OKWith(map[string]any{"count": 0}), nil
		}
		ctx.Emit(strings.Join(names, "\n"), nil)
		return bittypes.OKWith(map[string]any{"count": len(names)}), nil

	case "get":
		name := ctx.Arg(1)
		if name == "" {
			return nil, bittypes.InputErrorf("usage: /prompts get <name>")
		}
		content, err := store.Get(name)
		if err != nil {
			return nil, err
		}
		ctx.Emit(content, nil)
		return bittypes.OKWith(map[string]any{"name": name}), nil

	case "save":
		name := ctx.Arg(1)
		var content string
		if len(ctx.PositionalArgs) > 2 {
			content = strings.Join(ctx.PositionalArgs[2:], " ")
		}
		if name == "" || content == "" {
			return nil, bittypes.InputErrorf("usage: /prompts save <name> <content>")
		}
		if err := store.Save(name, content); err != nil {
			return nil, err
		}
		ctx.Emit(fmt.Sprintf("Saved prompt %s.", name), nil)
		return bittypes.OKWith(map[string]any{"name": name}), nil

	case "remove":
		name := ctx.Arg(1)
		if name == "" {
			return nil, bittypes.InputErrorf("usage: /prompts remove <name>")
		}
		if err := store.Remove(name); err != nil {
			return nil, err
		}
		ctx.Emit(fmt.Sprintf("Removed prompt %s.", name), nil)
		return bittypes.OK(), nil

	default:
		return nil, bittypes.InputErrorf("unknown prompts action: %s", verb)
	}
}

func init() {
	commands.MustRegister(&PromptsCommand{})
}
