package builtin

import (
	"fmt"
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// MissionsCommand implements /missions: named recurring command runs on
// cron schedules.
type MissionsCommand struct{}

// Name returns "missions".
func (c *MissionsCommand) Name() string {
	return "missions"
}

// Description returns a brief description of the missions command.
func (c *MissionsCommand) Description() string {
	return "Schedule recurring command runs."
}

// Usage returns the missions command syntax.
func (c *MissionsCommand) Usage() string {
	return `/missions <list|save|run|remove> [name] [--schedule="* * * * *"] [--command="/status"]`
}

// HelpInfo returns structured help for the missions command.
func (c *MissionsCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Options: []bittypes.HelpOption{
			{Name: "schedule", Description: "Standard five-field cron expression", Required: true},
			{Name: "command", Description: "Command line the mission runs", Required: true},
		},
		Examples: []bittypes.HelpExample{
			{Command: `/missions save nightly --schedule="0 3 * * *" --command="/sync push"`, Description: "Push prompts every night at 03:00"},
			{Command: "/missions run nightly", Description: "Fire a mission immediately"},
		},
	}
}

// Execute dispatches on the first positional argument.
func (c *MissionsCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	scheduler, err := services.GetMissionService()
	if err != nil {
		return nil, err
	}

	verb := ctx.Arg(0)
	switch verb {
	case "list", "":
		missions, err := scheduler.List()
		if err != nil {
			return nil, err
		}
		if ctx.JSONRequested() {
			ctx.Emit(missions, nil)
			return bittypes.OKWith(map[string]any{"count": len(missions)}), nil
		}
		if len(missions) == 0 {
			ctx.Emit("No missions.", nil)
			return bittypes.OKWith(map[string]any{"count": 0}), nil
		}
		var b strings.Builder
		for _, mission := range missions {
			fmt.Fprintf(&b, "%-20s %-16s %s\n", mission.Name, mission.Schedule, mission.CommandLine)
		}
		ctx.Emit(strings.TrimRight(b.String(), "\n"), nil)
		return bittypes.OKWith(map[string]any{"count": len(missions)}), nil

	case "save":
		name := ctx.Arg(1)
		schedule, _ := ctx.Flags.String("schedule")
		commandLine, _ := ctx.Flags.String("command")
		mission, err := scheduler.Save(name, schedule, commandLine)
		if err != nil {
			return nil, err
		}
		ctx.Emit(fmt.Sprintf("Saved mission %s (%s).", mission.Name, mission.Schedule), nil)
		return bittypes.OKWith(map[string]any{"id": mission.ID}), nil

	case "run":
		name := ctx.Arg(1)
		if name == "" {
			return nil, bittypes.InputErrorf("usage: /missions run <name>")
		}
		if err := scheduler.Run(name); err != nil {
			return nil, err
		}
		ctx.Emit(fmt.Sprintf("Mission %s completed.", name), nil)
		return bittypes.OK(), nil

	case "remove":
		name := ctx.Arg(1)
		if name == "" {
			return nil, bittypes.InputErrorf("usage: /missions remove <name>")
		}
		if err := scheduler.Remove(name); err != nil {
			return nil, err
		}
		ctx.Emit(fmt.Sprintf("Removed mission %s.", name), nil)
		return bittypes.OK(), nil

	default:
		return nil, bittypes.InputErrorf("unknown missions action: %s", verb)
	}
}

func init() {
	commands.MustRegister(&MissionsCommand{})
}
