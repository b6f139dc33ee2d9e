package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitcore/internal/commands"
	"bitcore/internal/dispatch"
	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

type wsTestCommand struct {
	name    string
	execute func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error)
}

func (c *wsTestCommand) Name() string        { return c.name }
func (c *wsTestCommand) Description() string { return c.name + " test command" }
func (c *wsTestCommand) Usage() string       { return "/" + c.name }

func (c *wsTestCommand) HelpInfo() bittypes.HelpInfo {
	return bittypes.HelpInfo{Command: c.name, Description: c.Description(), Usage: c.Usage()}
}

func (c *wsTestCommand) Execute(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
	return c.execute(ctx)
}

// dialTestServer starts a server over the given commands and returns a
// connected client.
func dialTestServer(t *testing.T, cmds ...commands.Command) *websocket.Conn {
	t.Helper()

	registry := commands.NewRegistry()
	for _, cmd := range cmds {
		require.NoError(t, registry.Register(cmd))
	}
	srv := New(dispatch.New(registry, logchannel.New(128)))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func sendCommand(t *testing.T, conn *websocket.Conn, line string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Frame{Type: "command", Line: line}))
}

// readDispatch collects frames until the acknowledgement that closes one
// dispatch.
func readDispatch(t *testing.T, conn *websocket.Conn) []Frame {
	t.Helper()
	var frames []Frame
	for {
		frame := readFrame(t, conn)
		frames = append(frames, frame)
		if frame.Type == "output" && frame.KeepDisabled != nil {
			return frames
		}
	}
}

func TestAcknowledgementIsFinalFrame(t *testing.T) {
	conn := dialTestServer(t, &wsTestCommand{
		name: "status",
		execute: func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			ctx.Emit("all good", nil)
			return bittypes.OK(), nil
		},
	})

	sendCommand(t, conn, "/status")
	frames := readDispatch(t, conn)

	require.Len(t, frames, 2)
	assert.Equal(t, "output", frames[0].Type)
	assert.Equal(t, "all good", frames[0].Data)

	ack := frames[1]
	assert.Equal(t, "output", ack.Type)
	assert.Equal(t, "", ack.Data)
	require.NotNil(t, ack.KeepDisabled)
	assert.False(t, *ack.KeepDisabled)
}

func TestEmptyCommandLineIsAcknowledged(t *testing.T) {
	conn := dialTestServer(t)

	// A client that disables input on send must get its acknowledgement
	// even when the line carries no command.
	sendCommand(t, conn, "")
	frames := readDispatch(t, conn)

	require.Len(t, frames, 1)
	ack := frames[0]
	assert.Equal(t, "output", ack.Type)
	assert.Equal(t, "", ack.Data)
	require.NotNil(t, ack.KeepDisabled)
	assert.False(t, *ack.KeepDisabled)
}

func TestAckWireShape(t *testing.T) {
	keep := false
	raw, err := json.Marshal(ackFrame(keep))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"output","data":"","keepDisabled":false}`, string(raw))
}

func TestErrorFrameAndAck(t *testing.T) {
	conn := dialTestServer(t)

	sendCommand(t, conn, "/nope")
	frames := readDispatch(t, conn)

	require.Len(t, frames, 2)
	assert.Equal(t, "error", frames[0].Type)
	assert.Equal(t, "Error [unknown]: Unknown command: nope", frames[0].Data)
	assert.Equal(t, "output", frames[1].Type)
}

func TestDispatchSerialisation(t *testing.T) {
	slow := &wsTestCommand{
		name: "slow",
		execute: func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			ctx.Emit("slow-1", nil)
			time.Sleep(50 * time.Millisecond)
			ctx.Emit("slow-2", nil)
			return bittypes.OK(), nil
		},
	}
	fast := &wsTestCommand{
		name: "fast",
		execute: func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			ctx.Emit("fast-1", nil)
			return bittypes.OK(), nil
		},
	}
	conn := dialTestServer(t, slow, fast)

	// Two commands back-to-back on one connection.
	sendCommand(t, conn, "/slow")
	sendCommand(t, conn, "/fast")

	first := readDispatch(t, conn)
	second := readDispatch(t, conn)

	// Every frame of the first dispatch precedes every frame of the second.
	assert.Equal(t, "slow-1", first[0].Data)
	assert.Equal(t, "slow-2", first[1].Data)
	require.NotNil(t, first[2].KeepDisabled)
	assert.Equal(t, "fast-1", second[0].Data)
	require.NotNil(t, second[1].KeepDisabled)
}

func TestStructuredCommandForm(t *testing.T) {
	var mu sync.Mutex
	var gotCtx *bittypes.CommandContext
	conn := dialTestServer(t, &wsTestCommand{
		name: "memory",
		execute: func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			mu.Lock()
			gotCtx = ctx
			mu.Unlock()
			return bittypes.OK(), nil
		},
	})

	require.NoError(t, conn.WriteJSON(Frame{
		Type:           "command",
		Name:           "/Memory",
		PositionalArgs: []string{"store", "hello world"},
		Flags:          map[string]any{"tags": "a,b", "verbose": true},
	}))
	readDispatch(t, conn)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, gotCtx)
	assert.Equal(t, "memory", gotCtx.CommandName)
	assert.Equal(t, []string{"store", "hello world"}, gotCtx.PositionalArgs)
	tags, ok := gotCtx.Flags.String("tags")
	require.True(t, ok)
	assert.Equal(t, "a,b", tags)
	assert.True(t, gotCtx.Flags.Bool("verbose"))
	assert.True(t, gotCtx.IsWebSocket)
}

func TestModeChangePrecedesAck(t *testing.T) {
	conn := dialTestServer(t, &wsTestCommand{
		name: "chat",
		execute: func(_ *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			return &bittypes.CommandResult{Success: true, Mode: "chat", ModePrompt: "chat> "}, nil
		},
	})

	sendCommand(t, conn, "/chat")
	frames := readDispatch(t, conn)

	require.Len(t, frames, 2)
	assert.Equal(t, "mode_change", frames[0].Type)
	assert.Equal(t, "chat", frames[0].Mode)
	assert.Equal(t, "chat> ", frames[0].Prompt)
	assert.Equal(t, "output", frames[1].Type)
}

func TestChatModeRoutesPlainText(t *testing.T) {
	var mu sync.Mutex
	var messages []string
	chat := &wsTestCommand{
		name: "chat",
		execute: func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			message := strings.Join(ctx.PositionalArgs, " ")
			if message == "" {
				return &bittypes.CommandResult{Success: true, Mode: "chat", ModePrompt: "chat> "}, nil
			}
			mu.Lock()
			messages = append(messages, message)
			mu.Unlock()
			return bittypes.OK(), nil
		},
	}
	conn := dialTestServer(t, chat)

	sendCommand(t, conn, "/chat")
	readDispatch(t, conn)

	// Plain text in chat mode becomes a /chat invocation.
	sendCommand(t, conn, "hello there")
	readDispatch(t, conn)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hello there"}, messages)
}

func TestPromptRoundTrip(t *testing.T) {
	conn := dialTestServer(t, &wsTestCommand{
		name: "ask",
		execute: func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			answer, err := ctx.WSPrompt(bittypes.PromptRequest{Text: "Value:", Hidden: true})
			if err != nil {
				return nil, err
			}
			ctx.Emit("got "+answer, nil)
			return bittypes.OK(), nil
		},
	})

	sendCommand(t, conn, "/ask")

	prompt := readFrame(t, conn)
	require.Equal(t, "prompt", prompt.Type)
	assert.Equal(t, "Value:", prompt.Text)
	assert.True(t, prompt.Hidden)
	assert.NotEmpty(t, prompt.ID)
	assert.Greater(t, prompt.TimeoutMs, int64(0))

	require.NoError(t, conn.WriteJSON(Frame{Type: "prompt_response", ID: prompt.ID, Value: "secret"}))

	frames := readDispatch(t, conn)
	assert.Equal(t, "got secret", frames[0].Data)
}

func TestPromptTimeoutResolvesEmpty(t *testing.T) {
	conn := dialTestServer(t, &wsTestCommand{
		name: "ask",
		execute: func(ctx *bittypes.CommandContext) (*bittypes.CommandResult, error) {
			answer, err := ctx.WSPrompt(bittypes.PromptRequest{Text: "Value:", Timeout: 30 * time.Millisecond})
			if err != nil {
				return nil, err
			}
			ctx.Emit("got ["+answer+"]", nil)
			return bittypes.OK(), nil
		},
	})

	sendCommand(t, conn, "/ask")

	prompt := readFrame(t, conn)
	require.Equal(t, "prompt", prompt.Type)

	// No response; the prompt expires and resolves to the empty string.
	frames := readDispatch(t, conn)
	assert.Equal(t, "got []", frames[0].Data)
}

func TestInvalidFrameReportsError(t *testing.T) {
	conn := dialTestServer(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame.Type)

	require.NoError(t, conn.WriteJSON(Frame{Type: "mystery"}))
	frame = readFrame(t, conn)
	assert.Equal(t, "error", frame.Type)
}

func TestParseStructuredFlags(t *testing.T) {
	flags := parseStructuredFlags(map[string]any{
		"a": true,
		"b": false,
		"c": "text",
		"d": float64(3),
	})

	assert.True(t, flags["a"].IsBool)
	assert.Equal(t, "false", flags["b"].Value)
	assert.Equal(t, "text", flags["c"].Value)
	assert.Equal(t, "3", flags["d"].Value)
}
