package builtin

import (
	"fmt"
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// SyncCommand implements /sync: mirror the prompt store against the
// configured GitHub repository.
type SyncCommand struct{}

// Name returns "sync".
func (c *SyncCommand) Name() string {
	return "sync"
}

// Description returns a brief description of the sync command.
func (c *SyncCommand) Description() string {
	return "Sync prompts with GitHub."
}

// Usage returns the sync command syntax.
func (c *SyncCommand) Usage() string {
	return "/sync [status|push|pull|config] [--owner=] [--repo=] [--branch=] [--token=]"
}

// DefaultAction returns "status".
func (c *SyncCommand) DefaultAction() string {
	return "status"
}

// HelpInfo returns structured help for the sync command.
func (c *SyncCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Options: []bittypes.HelpOption{
			{Name: "owner", Description: "Repository owner (config)"},
			{Name: "repo", Description: "Repository name (config)"},
			{Name: "branch", Description: "Branch to sync against", Default: "main"},
			{Name: "token", Description: "Access token (config); redacted everywhere"},
		},
		Examples: []bittypes.HelpExample{
			{Command: "/sync config --owner=me --repo=prompts --token=ghp_x", Description: "Configure the target repository"},
			{Command: "/sync push", Description: "Upload changed prompts"},
		},
	}
}

// Execute dispatches on the consumed action.
func (c *SyncCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	controller, err := services.GetSyncService()
	if err != nil {
		return nil, err
	}

	switch ctx.Action {
	case "status":
		status, err := controller.Status()
		if err != nil {
			return nil, err
		}
		if ctx.JSONRequested() {
			ctx.Emit(status, nil)
		} else if !status.Configured {
			ctx.Emit("GitHub sync is not configured. Use /sync config.", nil)
		} else {
			reachable := "unreachable"
			if status.Reachable {
				reachable = "reachable"
			}
			ctx.Emit(fmt.Sprintf("Repository %s (branch %s): %s", status.Repository, status.Branch, reachable), nil)
		}
		return bittypes.OKWith(map[string]any{"configured": status.Configured, "reachable": status.Reachable}), nil

	case "push":
		report, err := controller.Push()
		if err != nil {
			return nil, err
		}
		return c.renderReport(ctx, "Pushed", report.Pushed, report.Skipped)

	case "pull":
		report, err := controller.Pull()
		if err != nil {
			return nil, err
		}
		return c.renderReport(ctx, "Pulled", report.Pulled, report.Skipped)

	case "config":
		profile, err := services.GetProfileService()
		if err != nil {
			return nil, err
		}
		cfg, _ := profile.GitHubConfig()
		if owner, ok := ctx.Flags.String("owner"); ok {
			cfg.Owner = owner
		}
		if repo, ok := ctx.Flags.String("repo"); ok {
			cfg.Repo = repo
		}
		if branch, ok := ctx.Flags.String("branch"); ok {
			cfg.Branch = branch
		}
		if token, ok := ctx.Flags.String("token"); ok {
			cfg.Token = token
		}
		if err := profile.SetGitHubConfig(cfg); err != nil {
			return nil, err
		}
		ctx.Emit(fmt.Sprintf("Sync configured for %s/%s.", cfg.Owner, cfg.Repo), nil)
		return bittypes.OKWith(map[string]any{"repository": cfg.Owner + "/" + cfg.Repo}), nil

	default:
		return nil, bittypes.InputErrorf("unknown sync action: %s", ctx.Action)
	}
}

func (c *SyncCommand) renderReport(ctx *bittypes.CommandContext, verb string, changed, skipped []string) (*bittypes.CommandResult, error) {
	payload := map[string]any{"changed": len(changed), "skipped": len(skipped)}
	if ctx.JSONRequested() {
		ctx.Emit(payload, nil)
		return bittypes.OKWith(payload), nil
	}
	line := fmt.Sprintf("%s %d prompt(s), skipped %d.", verb, len(changed), len(skipped))
	if len(changed) > 0 {
		line += " Changed: " + strings.Join(changed, ", ")
	}
	ctx.Emit(line, nil)
	return bittypes.OKWith(payload), nil
}

func init() {
	commands.MustRegister(&SyncCommand{})
}
