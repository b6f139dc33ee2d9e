package builtin

import (
	"fmt"
	"os"
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// DiagnoseCommand implements /diagnose: environment and configuration
// checks. The result payload carries the names of failed checks so the
// dispatcher's end-of-command log records them.
type DiagnoseCommand struct{}

// Name returns "diagnose".
func (c *DiagnoseCommand) Name() string {
	return "diagnose"
}

// Description returns a brief description of the diagnose command.
func (c *DiagnoseCommand) Description() string {
	return "Run environment and configuration checks."
}

// Usage returns the diagnose command syntax.
func (c *DiagnoseCommand) Usage() string {
	return "/diagnose [--json]"
}

// HelpInfo returns structured help for the diagnose command.
func (c *DiagnoseCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Examples: []bittypes.HelpExample{
			{Command: "/diagnose", Description: "Run every check"},
		},
	}
}

type diagnoseCheck struct {
	name string
	run  func() (string, bool)
}

// Execute runs every check and reports pass/fail per check. The command
// succeeds even when checks fail; the failures are the diagnosis.
func (c *DiagnoseCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	checks := []diagnoseCheck{
		{"storage", func() (string, bool) {
			cfg, err := services.GetConfigurationService()
			if err != nil {
				return err.Error(), false
			}
			dir := cfg.StorageDir()
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Sprintf("storage directory %s is not usable", dir), false
			}
			return dir, true
		}},
		{"profile", func() (string, bool) {
			profile, err := services.GetProfileService()
			if err != nil {
				return err.Error(), false
			}
			user := profile.CurrentUser()
			return fmt.Sprintf("%s (%s)", user.Username, user.Role), true
		}},
		{"anthropic_key", func() (string, bool) {
			profile, err := services.GetProfileService()
			if err != nil {
				return err.Error(), false
			}
			if !profile.HasAPIKey("anthropic") {
				return "no anthropic API key configured", false
			}
			return "configured", true
		}},
		{"github_sync", func() (string, bool) {
			profile, err := services.GetProfileService()
			if err != nil {
				return err.Error(), false
			}
			cfg, ok := profile.GitHubConfig()
			if !ok {
				return "sync not configured", false
			}
			return cfg.Owner + "/" + cfg.Repo, true
		}},
		{"debug_mode", func() (string, bool) {
			if services.DebugMode() {
				return "enabled", true
			}
			return "disabled", true
		}},
	}

	var failed []string
	var b strings.Builder
	results := make(map[string]any, len(checks))
	for _, check := range checks {
		detail, ok := check.run()
		status := "OK"
		if !ok {
			status = "FAIL"
			failed = append(failed, check.name)
		}
		results[check.name] = map[string]any{"ok": ok, "detail": detail}
		fmt.Fprintf(&b, "[%-4s] %-14s %s\n", status, check.name, detail)
	}

	payload := map[string]any{
		"checks":       results,
		"failedChecks": failed,
	}

	if ctx.JSONRequested() {
		ctx.Emit(payload, nil)
	} else {
		ctx.Emit(strings.TrimRight(b.String(), "\n"), nil)
	}
	return bittypes.OKWith(payload), nil
}

func init() {
	commands.MustRegister(&DiagnoseCommand{})
}
