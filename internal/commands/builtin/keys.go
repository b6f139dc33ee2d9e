package builtin

import (
	"fmt"
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// KeysCommand implements /keys: API credential management over the user
// profile store. Credential values are never echoed back; listings show
// service names only.
type KeysCommand struct{}

// Name returns "keys".
func (c *KeysCommand) Name() string {
	return "keys"
}

// Description returns a brief description of the keys command.
func (c *KeysCommand) Description() string {
	return "Manage API credentials."
}

// Usage returns the keys command syntax.
func (c *KeysCommand) Usage() string {
	return "/keys [list|set|remove] [service] [value]"
}

// DefaultAction returns "list".
func (c *KeysCommand) DefaultAction() string {
	return "list"
}

// HelpInfo returns structured help for the keys command.
func (c *KeysCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Examples: []bittypes.HelpExample{
			{Command: "/keys", Description: "List configured services"},
			{Command: "/keys set anthropic", Description: "Store a key, prompting for the value"},
			{Command: "/keys remove anthropic", Description: "Delete a stored key"},
		},
		Notes: []string{"Values are redacted in all output and logs."},
	}
}

// Execute dispatches on the consumed action.
func (c *KeysCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	profile, err := services.GetProfileService()
	if err != nil {
		return nil, err
	}

	switch ctx.Action {
	case "list":
		names := profile.Services()
		if len(names) == 0 {
			ctx.Emit("No API keys configured.", nil)
			return bittypes.OKWith(map[string]any{"services": []string{}}), nil
		}
		ctx.Emit("Configured services: "+strings.Join(names, ", "), nil)
		return bittypes.OKWith(map[string]any{"services": names}), nil

	case "set":
		service := ctx.Arg(0)
		if service == "" {
			return nil, bittypes.InputErrorf("usage: /keys set <service> [value]")
		}
		value := ctx.Arg(1)
		if value == "" {
			value, err = c.promptForValue(ctx, service)
			if err != nil {
				return nil, err
			}
		}
		if value == "" {
			return nil, bittypes.InputErrorf("no value provided for %s", service)
		}
		if err := profile.SetAPIKey(service, value); err != nil {
			return nil, err
		}
		ctx.Emit(fmt.Sprintf("Stored API key for %s.", service), nil)
		return bittypes.OKWith(map[string]any{"service": service}), nil

	case "remove":
		service := ctx.Arg(0)
		if service == "" {
			return nil, bittypes.InputErrorf("usage: /keys remove <service>")
		}
		if err := profile.RemoveAPIKey(service); err != nil {
			return nil, err
		}
		ctx.Emit(fmt.Sprintf("Removed API key for %s.", service), nil)
		return bittypes.OKWith(map[string]any{"service": service}), nil

	default:
		return nil, bittypes.InputErrorf("unknown keys action: %s", ctx.Action)
	}
}

// promptForValue round-trips a hidden prompt over WebSocket. Console
// callers must pass the value inline.
func (c *KeysCommand) promptForValue(ctx *bittypes.CommandContext, service string) (string, error) {
	if ctx.WSPrompt == nil {
		return "", bittypes.InputErrorf("usage: /keys set %s <value>", service)
	}
	return ctx.WSPrompt(bittypes.PromptRequest{
		Text:   fmt.Sprintf("API key for %s:", service),
		Hidden: true,
	})
}

func init() {
	commands.MustRegister(&KeysCommand{})
}
