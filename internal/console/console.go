// Package console is the local readline front-end. It drives the same
// dispatcher as the WebSocket adapter, so every command behaves
// identically on both surfaces.
package console

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"bitcore/internal/dispatch"
	"bitcore/internal/logchannel"
	"bitcore/internal/parser"
	"bitcore/internal/services"
	"bitcore/pkg/bittypes"
)

const defaultPrompt = "bitcore> "

// Console runs the interactive loop over a process-local session.
type Console struct {
	dispatcher *dispatch.Dispatcher
	session    *bittypes.Session
	logger     *logchannel.Logger
	prompt     string
}

// New creates a console bound to the dispatcher.
func New(dispatcher *dispatch.Dispatcher) *Console {
	return &Console{
		dispatcher: dispatcher,
		session:    bittypes.NewSession(bittypes.DefaultUser()),
		logger:     logchannel.Source("console"),
		prompt:     defaultPrompt,
	}
}

// Run drives the loop until /exit or EOF. The returned exit code is 0
// when the last dispatched command succeeded, 1 otherwise.
func (c *Console) Run() int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.prompt,
		HistoryFile:     c.historyFile(),
		InterruptPrompt: "^C",
	})
	if err != nil {
		c.logger.Error("cannot initialize readline", map[string]any{"error": err.Error()})
		return 1
	}
	defer func() { _ = rl.Close() }()

	lastSuccess := true
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if c.session.Mode == "chat" {
				c.leaveChatMode(rl)
				continue
			}
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			c.logger.Error("read failed", map[string]any{"error": err.Error()})
			return 1
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		result := c.dispatchLine(line, rl)
		lastSuccess = result.Success

		if exit, ok := result.Payload["exit"].(bool); ok && exit {
			break
		}
	}

	if lastSuccess {
		return 0
	}
	return 1
}

// dispatchLine routes one input line. In chat mode, plain text becomes a
// /chat invocation, matching the browser terminal.
func (c *Console) dispatchLine(line string, rl *readline.Instance) *bittypes.CommandResult {
	if c.session.Mode == "chat" && !strings.HasPrefix(strings.TrimSpace(line), "/") {
		line = "/chat " + line
	}
	parsed := parser.Parse(line)

	opts := dispatch.Options{
		Session: c.session,
		ModeChange: func(mode, prompt string) {
			c.session.Mode = mode
			if prompt == "" {
				prompt = defaultPrompt
			}
			c.prompt = prompt
			rl.SetPrompt(prompt)
		},
	}
	result := c.dispatcher.Dispatch(parsed, opts)

	// Leaving chat happens when a command other than /chat runs.
	if c.session.Mode == "chat" && exitsChatMode(parsed) {
		c.leaveChatMode(rl)
	}
	return result
}

// exitsChatMode reports whether a dispatched command ends chat mode: any
// named command except /chat itself. Plain chat text never reaches here
// with another name because dispatchLine rewrites it to a /chat line.
func exitsChatMode(parsed *bittypes.ParsedCommand) bool {
	return parsed.Name != "" && parsed.Name != "chat"
}

func (c *Console) leaveChatMode(rl *readline.Instance) {
	c.session.Mode = "command"
	c.prompt = defaultPrompt
	rl.SetPrompt(defaultPrompt)
}

func (c *Console) historyFile() string {
	cfg, err := services.GetConfigurationService()
	if err != nil {
		return ""
	}
	return filepath.Join(cfg.StorageDir(), "history")
}
