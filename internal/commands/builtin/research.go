package builtin

import (
	"strings"

	"bitcore/internal/commands"
	"bitcore/internal/dispatch"
	"bitcore/internal/logchannel"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

// ResearchCommand implements /research: one research controller run.
// Over WebSocket the run is asynchronous: the dispatch returns with
// keepDisabled set, telemetry streams progress, and the terminal
// complete event re-enables the client. Console runs are synchronous.
type ResearchCommand struct{}

// Name returns "research".
func (c *ResearchCommand) Name() string {
	return "research"
}

// Description returns a brief description of the research command.
func (c *ResearchCommand) Description() string {
	return "Run a research query."
}

// Usage returns the research command syntax.
func (c *ResearchCommand) Usage() string {
	return "/research <query>"
}

// HelpInfo returns structured help for the research command.
func (c *ResearchCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{
		Command:     c.Name(),
		Description: c.Description(),
		Usage:       c.Usage(),
		Examples: []bittypes.HelpExample{
			{Command: `/research "mission scheduling"`, Description: "Research a topic using local material and the model"},
		},
		Notes: []string{"Over the web terminal the run continues after the command returns; progress arrives as telemetry events."},
	}
}

// Execute starts the run. The WebSocket path hands the session back to
// the client disabled; the telemetry complete event is the re-enable.
func (c *ResearchCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	controller, err := services.GetResearchService()
	if err != nil {
		return nil, err
	}

	query := strings.Join(ctx.PositionalArgs, " ")
	if strings.TrimSpace(query) == "" {
		return nil, bittypes.InputErrorf("usage: /research <query>")
	}

	if ctx.IsWebSocket {
		go c.runDetached(ctx, controller, query)
		ctx.Emit("Research started.", nil)
		return &bittypes.CommandResult{Success: true, KeepDisabled: true}, nil
	}

	report, err := controller.Run(query, ctx.Telemetry)
	if err != nil {
		return nil, err
	}
	c.render(ctx, report)
	return bittypes.OKWith(map[string]any{"sources": len(report.Sources)}), nil
}

// runDetached executes the controller outside the dispatch. Failures are
// rendered through the standard error boundary since the dispatcher has
// already returned.
func (c *ResearchCommand) runDetached(ctx *bittypes.CommandContext, controller *services.ResearchService, query string) {
	logger := logchannel.Source("commands.research")
	report, err := controller.Run(query, ctx.Telemetry)
	if err != nil {
		dispatch.WrapError(err, ctx.EmitError, logger, ctx.Verbose())
		return
	}
	c.render(ctx, report)
}

func (c *ResearchCommand) render(ctx *bittypes.CommandContext, report bittypes.ResearchReport) {
	if ctx.JSONRequested() {
		ctx.Emit(report, nil)
		return
	}
	var b strings.Builder
	b.WriteString(report.Summary)
	if len(report.Sources) > 0 {
		b.WriteString("\n\nSources:\n")
		for _, source := range report.Sources {
			b.WriteString("  " + source + "\n")
		}
	}
	ctx.Emit(strings.TrimRight(b.String(), "\n"), nil)
}

func init() {
	commands.MustRegister(&ResearchCommand{})
}
