package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitcore/internal/commands"
	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

// mockCommand is a configurable test command.
type mockCommand struct {
	name          string
	description   string
	defaultAction string
	execute       func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error)

	mu       sync.Mutex
	lastCtx  *bittypes.CommandContext
	executed int
}

func (m *mockCommand) Name() string        { return m.name }
func (m *mockCommand) Description() string { return m.description }
func (m *mockCommand) Usage() string       { return "/" + m.name }

func (m *mockCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{Command: m.name, Description: m.description, Usage: m.Usage()}
}

func (m *mockCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	m.mu.Lock()
	m.lastCtx = ctx
	m.executed++
	m.mu.Unlock()
	if m.execute != nil {
		return m.execute(ctx)
	}
	return bittypes.OK(), nil
}

// actionMockCommand adds a declared default action.
type actionMockCommand struct {
	mockCommand
}

func (m *actionMockCommand) DefaultAction() string { return m.defaultAction }

type capture struct {
	mu     sync.Mutex
	values []any
}

func (c *capture) sink() bittypes.Sink {
	return func(value any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.values = append(c.values, value)
	}
}

func (c *capture) strings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, v := range c.values {
		out = append(out, Serialize(v))
	}
	return out
}

func newTestDispatcher(t *testing.T, cmds ...commands.Command) *Dispatcher {
	t.Helper()
	registry := commands.NewRegistry()
	for _, cmd := range cmds {
		require.NoError(t, registry.Register(cmd))
	}
	return New(registry, logchannel.New(64))
}

func TestDispatchEmptyInputIsSilent(t *testing.T) {
	out := &capture{}
	acked := 0
	d := newTestDispatcher(t)

	for _, line := range []string{"", "   ", "\r\n"} {
		result := d.DispatchLine(line, Options{
			Output: out.sink(),
			Error:  out.sink(),
			Acknowledge: func(keepDisabled bool) {
				acked++
				assert.False(t, keepDisabled)
			},
		})
		assert.True(t, result.Success)
		assert.True(t, result.Handled)
		assert.False(t, result.KeepDisabled)
	}

	// Silent means no output lines; the acknowledgement still fires per
	// dispatch so a WebSocket client never stays disabled.
	assert.Empty(t, out.values)
	assert.Equal(t, 3, acked)
}

func TestDispatchUnknownCommand(t *testing.T) {
	errs := &capture{}
	handler := &mockCommand{name: "other"}
	d := newTestDispatcher(t, handler)

	result := d.DispatchLine("/nope", Options{Error: errs.sink()})

	assert.False(t, result.Success)
	assert.True(t, result.Handled)
	assert.False(t, result.KeepDisabled)
	assert.Equal(t, "Unknown command: nope", result.Error)
	assert.Equal(t, 0, handler.executed)

	// Exactly one error line, no hint.
	lines := errs.strings()
	require.Len(t, lines, 1)
	assert.Equal(t, "Error [unknown]: Unknown command: nope", lines[0])
}

func TestDispatchHandlerError(t *testing.T) {
	errs := &capture{}
	handler := &mockCommand{
		name: "x",
		execute: func(_ *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			return nil, errors.New("boom")
		},
	}
	d := newTestDispatcher(t, handler)

	result := d.DispatchLine("/x", Options{Error: errs.sink()})

	assert.False(t, result.Success)
	assert.True(t, result.Handled)
	assert.False(t, result.KeepDisabled)
	assert.Equal(t, "boom", result.Error)

	lines := errs.strings()
	require.NotEmpty(t, lines)
	assert.Equal(t, "Error [unknown]: boom", lines[0])
}

func TestDispatchTypedErrorHint(t *testing.T) {
	errs := &capture{}
	handler := &mockCommand{
		name: "x",
		execute: func(_ *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			return nil, bittypes.InputErrorf("bad value")
		},
	}
	d := newTestDispatcher(t, handler)

	result := d.DispatchLine("/x", Options{Error: errs.sink()})
	assert.False(t, result.Success)

	lines := errs.strings()
	require.Len(t, lines, 2)
	assert.Equal(t, "Error [input_validation]: bad value", lines[0])
	assert.Equal(t, "Check your input and try again", lines[1])
}

func TestDispatchHandledErrorSuppressesWrapper(t *testing.T) {
	errs := &capture{}
	handler := &mockCommand{
		name: "x",
		execute: func(_ *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			return bittypes.Failure("already reported"), errors.New("already reported")
		},
	}
	d := newTestDispatcher(t, handler)

	result := d.DispatchLine("/x", Options{Error: errs.sink()})
	assert.False(t, result.Success)
	assert.True(t, result.Handled)
	assert.Equal(t, "already reported", result.Error)
	assert.Empty(t, errs.strings())
}

func TestDispatchHandlerPanicIsContained(t *testing.T) {
	errs := &capture{}
	handler := &mockCommand{
		name: "x",
		execute: func(_ *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			panic("kaboom")
		},
	}
	d := newTestDispatcher(t, handler)

	result := d.DispatchLine("/x", Options{Error: errs.sink()})
	assert.False(t, result.Success)
	assert.True(t, result.Handled)
	assert.Contains(t, result.Error, "kaboom")
}

func TestDispatchNilResultBecomesOK(t *testing.T) {
	handler := &mockCommand{
		name: "x",
		execute: func(_ *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			return nil, nil
		},
	}
	d := newTestDispatcher(t, handler)

	result := d.DispatchLine("/x", Options{})
	assert.True(t, result.Success)
}

func TestDispatchHelpShortCircuit(t *testing.T) {
	out := &capture{}
	handler := &mockCommand{
		name:        "x",
		description: "Test command.",
		execute: func(_ *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			return nil, errors.New("must not run")
		},
	}
	d := newTestDispatcher(t, handler)

	result := d.DispatchLine("/x --help", Options{Output: out.sink()})
	assert.True(t, result.Success)
	assert.Equal(t, 0, handler.executed)

	lines := out.strings()
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "/x - Test command."))
}

func TestDispatchContextShape(t *testing.T) {
	handler := &mockCommand{name: "memory"}
	d := newTestDispatcher(t, handler)

	d.DispatchLine(`/memory store "hello world" --tags=a,b`, Options{})

	ctx := handler.lastCtx
	require.NotNil(t, ctx)
	assert.Equal(t, "memory", ctx.CommandName)
	assert.Equal(t, []string{"store", "hello world"}, ctx.PositionalArgs)
	assert.Equal(t, "", ctx.Action)
	tags, ok := ctx.Flags.String("tags")
	require.True(t, ok)
	assert.Equal(t, "a,b", tags)
	assert.NotNil(t, ctx.Emit)
	assert.NotNil(t, ctx.EmitError)
}

func TestDispatchActionConsumption(t *testing.T) {
	handler := &actionMockCommand{mockCommand{name: "keys", defaultAction: "list"}}
	d := newTestDispatcher(t, handler)

	d.DispatchLine("/keys set anthropic", Options{})
	require.NotNil(t, handler.lastCtx)
	assert.Equal(t, "set", handler.lastCtx.Action)
	assert.Equal(t, []string{"anthropic"}, handler.lastCtx.PositionalArgs)

	d.DispatchLine("/keys", Options{})
	assert.Equal(t, "list", handler.lastCtx.Action)
	assert.Empty(t, handler.lastCtx.PositionalArgs)

	// An explicit caller action overrides consumption.
	d.DispatchLine("/keys anthropic", Options{Action: "remove"})
	assert.Equal(t, "remove", handler.lastCtx.Action)
	assert.Equal(t, []string{"anthropic"}, handler.lastCtx.PositionalArgs)
}

func TestDispatchUserResolution(t *testing.T) {
	handler := &mockCommand{name: "x"}
	d := newTestDispatcher(t, handler)

	session := bittypes.NewSession(bittypes.User{Username: "from-session", Role: bittypes.RoleAdmin})
	d.DispatchLine("/x", Options{Session: session})
	assert.Equal(t, "from-session", handler.lastCtx.CurrentUser.Username)

	explicit := bittypes.User{Username: "explicit", Role: bittypes.RolePublic}
	d.DispatchLine("/x", Options{Session: session, User: &explicit})
	assert.Equal(t, "explicit", handler.lastCtx.CurrentUser.Username)
}

func TestDispatchAcknowledgementLaw(t *testing.T) {
	type event struct {
		kind         string
		keepDisabled bool
	}
	var events []event

	handler := &mockCommand{
		name: "x",
		execute: func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			ctx.Emit("line", nil)
			return &bittypes.CommandResult{Success: true, KeepDisabled: true}, nil
		},
	}
	d := newTestDispatcher(t, handler)

	opts := Options{
		IsWebSocket: true,
		Output: func(any) {
			events = append(events, event{kind: "output"})
		},
		Acknowledge: func(keepDisabled bool) {
			events = append(events, event{kind: "ack", keepDisabled: keepDisabled})
		},
	}
	d.DispatchLine("/x", opts)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "ack", last.kind)
	assert.True(t, last.keepDisabled)
}

func TestDispatchAcknowledgesUnknownCommand(t *testing.T) {
	acked := 0
	d := newTestDispatcher(t)
	d.DispatchLine("/nope", Options{
		IsWebSocket: true,
		Error:       func(any) {},
		Acknowledge: func(keepDisabled bool) {
			acked++
			assert.False(t, keepDisabled)
		},
	})
	assert.Equal(t, 1, acked)
}

func TestDispatchModeChangeBeforeAck(t *testing.T) {
	var order []string
	handler := &mockCommand{
		name: "chat",
		execute: func(_ *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			return &bittypes.CommandResult{Success: true, Mode: "chat", ModePrompt: "chat> "}, nil
		},
	}
	d := newTestDispatcher(t, handler)

	d.DispatchLine("/chat", Options{
		IsWebSocket: true,
		ModeChange: func(mode, prompt string) {
			order = append(order, "mode:"+mode+":"+prompt)
		},
		Acknowledge: func(bool) {
			order = append(order, "ack")
		},
	})

	require.Equal(t, []string{"mode:chat:chat> ", "ack"}, order)
}

func TestDispatchLogsCommandStartAndEnd(t *testing.T) {
	channel := logchannel.New(64)
	registry := commands.NewRegistry()
	require.NoError(t, registry.Register(&mockCommand{name: "x"}))
	d := New(registry, channel)

	d.DispatchLine("/x a b --k=v", Options{})

	var messages []string
	for _, entry := range channel.Entries() {
		messages = append(messages, entry.Message)
	}
	assert.Contains(t, messages, "command start")
	assert.Contains(t, messages, "command end")
}

func TestDispatchRedactsSensitiveFlags(t *testing.T) {
	channel := logchannel.New(64)
	registry := commands.NewRegistry()
	require.NoError(t, registry.Register(&mockCommand{name: "keys"}))
	d := New(registry, channel)

	secret := "sk-ant-very-secret-value"
	d.DispatchLine(fmt.Sprintf("/keys --api-key=%s --token=%s --password=%s", secret, secret, secret), Options{})

	for _, entry := range channel.Entries() {
		raw := fmt.Sprintf("%v", entry.Meta)
		assert.NotContains(t, raw, secret, "log entry %q leaked a credential", entry.Message)
	}
}

func TestSanitizeFlags(t *testing.T) {
	flags := bittypes.Flags{
		"password":   bittypes.StringFlag("hunter2"),
		"ApiKey":     bittypes.StringFlag("sk-123"),
		"gh_token":   bittypes.StringFlag("ghp_abc"),
		"credential": bittypes.StringFlag("x"),
		"name":       bittypes.StringFlag("safe"),
		"verbose":    bittypes.BoolFlag(),
	}

	out := SanitizeFlags(flags)
	assert.Equal(t, "[redacted]", out["password"])
	assert.Equal(t, "[redacted]", out["ApiKey"])
	assert.Equal(t, "[redacted]", out["gh_token"])
	assert.Equal(t, "[redacted]", out["credential"])
	assert.Equal(t, "safe", out["name"])
	assert.Equal(t, true, out["verbose"])

	assert.Nil(t, SanitizeFlags(nil))
}
