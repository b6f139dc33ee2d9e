package dispatch

import (
	"fmt"

	"bitcore/internal/commands"
	"bitcore/internal/logchannel"
	"bitcore/internal/parser"
	"bitcore/pkg/bittypes"
)

// Options carries the caller-specific inputs for one dispatch: transport
// marker, session, sinks, and the optional WebSocket capabilities. The
// zero value is a console dispatch with stdio sinks.
type Options struct {
	Session     *bittypes.Session
	User        *bittypes.User
	IsWebSocket bool

	Output bittypes.Sink
	Error  bittypes.Sink

	// Action overrides subcommand resolution; when empty, the first
	// positional is consumed for commands that declare actions.
	Action string

	WSPrompt  bittypes.PromptFunc
	Telemetry bittypes.Telemetry

	// Acknowledge and ModeChange are supplied by the WebSocket adapter.
	// The dispatcher is the single point that invokes them, so no
	// handler can forget the acknowledgement frame.
	Acknowledge func(keepDisabled bool)
	ModeChange  func(mode, prompt string)
}

// Dispatcher routes parsed commands to registered handlers under the
// uniform context, result, and error contracts.
type Dispatcher struct {
	registry *commands.Registry
	channel  *logchannel.Channel
	logger   *logchannel.Logger
}

// New creates a dispatcher over the given registry and log channel.
func New(registry *commands.Registry, channel *logchannel.Channel) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		channel:  channel,
		logger:   channel.Logger("dispatch"),
	}
}

// Registry exposes the dispatcher's command registry.
func (d *Dispatcher) Registry() *commands.Registry {
	return d.registry
}

// DispatchLine tokenises and parses a raw line, then dispatches it.
func (d *Dispatcher) DispatchLine(line string, opts Options) *bittypes.CommandResult {
	return d.Dispatch(parser.Parse(line), opts)
}

// Dispatch executes one parsed command. It always returns a well-formed
// result and never leaks a handler panic or error to the transport.
func (d *Dispatcher) Dispatch(parsed *bittypes.ParsedCommand, opts Options) *bittypes.CommandResult {
	// Empty input is a silent no-op: no output lines, but the trailing
	// acknowledgement still fires so a WebSocket client re-enables input.
	if parsed == nil || parsed.Name == "" {
		result := &bittypes.CommandResult{Success: true, Handled: true}
		d.acknowledge(opts, result)
		return result
	}

	cmdLogger := d.channel.Logger("commands." + parsed.Name)
	emitError := NewEmitter(opts.Error, logchannel.LevelError, cmdLogger)

	cmd, found := d.registry.Get(parsed.Name)
	if !found {
		message := fmt.Sprintf("Unknown command: %s", parsed.Name)
		emitError(fmt.Sprintf("Error [%s]: %s", bittypes.ErrUnknown, message), nil)
		result := &bittypes.CommandResult{Success: false, Handled: true, Error: message}
		d.acknowledge(opts, result)
		return result
	}

	ctx := d.buildContext(cmd, parsed, opts, cmdLogger)

	// Reserved --help flag short-circuits to the command's help block.
	if parsed.Flags.Has("help") {
		ctx.Emit(commands.HelpBlock(cmd), nil)
		result := &bittypes.CommandResult{Success: true, Handled: true}
		d.acknowledge(opts, result)
		return result
	}

	for _, warning := range parsed.Warnings {
		cmdLogger.Warn(warning, nil)
	}
	cmdLogger.Info("command start", map[string]any{
		"flags":    SanitizeFlags(parsed.Flags),
		"argCount": len(ctx.PositionalArgs),
		"action":   ctx.Action,
		"ws":       ctx.IsWebSocket,
	})

	result := d.invoke(cmd, ctx)

	endMeta := map[string]any{"success": result.Success}
	if result.Error != "" {
		endMeta["error"] = result.Error
	}
	if checks, ok := result.Payload["failedChecks"]; ok {
		endMeta["failedChecks"] = checks
	}
	cmdLogger.Info("command end", endMeta)

	d.acknowledge(opts, result)
	return result
}

// invoke runs the handler at most once, converting panics and errors into
// the standard failure envelope.
func (d *Dispatcher) invoke(cmd commands.Command, ctx *bittypes.CommandContext) (result *bittypes.CommandResult) {
	cmdLogger := d.channel.Logger("commands." + cmd.Name())

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("handler panic: %v", r)
			result = WrapError(err, ctx.EmitError, cmdLogger, ctx.Verbose())
		}
	}()

	res, err := cmd.Execute(ctx)
	if err != nil {
		if res != nil && res.Handled {
			// The handler already rendered its own failure.
			return res
		}
		return WrapError(err, ctx.EmitError, cmdLogger, ctx.Verbose())
	}
	if res == nil {
		res = bittypes.OK()
	}
	return res
}

// buildContext normalises the heterogeneous call surface into the uniform
// handler context: user resolution, sink resolution, action consumption,
// and per-dispatch emitters.
func (d *Dispatcher) buildContext(cmd commands.Command, parsed *bittypes.ParsedCommand, opts Options, cmdLogger *logchannel.Logger) *bittypes.CommandContext {
	user := bittypes.DefaultUser()
	switch {
	case opts.User != nil:
		user = *opts.User
	case opts.Session != nil:
		user = opts.Session.User
	}

	action := opts.Action
	positional := parsed.PositionalArgs
	if actionCmd, ok := cmd.(commands.ActionCommand); ok {
		if action == "" && len(positional) > 0 {
			action = positional[0]
			positional = positional[1:]
		}
		if action == "" {
			action = actionCmd.DefaultAction()
		}
	}

	return &bittypes.CommandContext{
		CommandName:    parsed.Name,
		Action:         action,
		PositionalArgs: positional,
		Flags:          parsed.Flags,
		CurrentUser:    user,
		Session:        opts.Session,
		IsWebSocket:    opts.IsWebSocket,
		Output:         opts.Output,
		Error:          opts.Error,
		Emit:           NewEmitter(opts.Output, logchannel.LevelInfo, cmdLogger),
		EmitError:      NewEmitter(opts.Error, logchannel.LevelError, cmdLogger),
		WSPrompt:       opts.WSPrompt,
		Telemetry:      opts.Telemetry,
	}
}

// acknowledge is the single point producing the trailing WebSocket frames:
// an optional mode_change signal, then the acknowledgement that re-enables
// client input. Always the last frames of a dispatch.
func (d *Dispatcher) acknowledge(opts Options, result *bittypes.CommandResult) {
	if result.Mode != "" && opts.ModeChange != nil {
		opts.ModeChange(result.Mode, result.ModePrompt)
	}
	if opts.Acknowledge != nil {
		opts.Acknowledge(result.KeepDisabled)
	}
}
